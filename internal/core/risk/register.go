// Package risk keeps the risk register: user-owned items drafted by the
// model or added by hand, never auto-deleted.
package risk

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lodestone-ai/lodestone/internal/core/model"
)

type Register struct {
	items []model.RiskItem
}

func NewRegister() *Register {
	return &Register{items: []model.RiskItem{}}
}

func clamp(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

// Add appends one item, assigning an id when absent and clamping probability
// and impact to [1,5].
func (r *Register) Add(item model.RiskItem) model.RiskItem {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.Probability = clamp(item.Probability)
	item.Impact = clamp(item.Impact)
	r.items = append(r.items, item)
	return item
}

// AddDraft folds a model-drafted analysis into the register, attributing each
// item to its source document.
func (r *Register) AddDraft(data *model.RiskAnalysisData) {
	if data == nil {
		return
	}
	for _, item := range data.Risks {
		r.Add(item)
	}
}

// Update mutates one item in place. Probability and impact are re-clamped.
func (r *Register) Update(item model.RiskItem) error {
	for i := range r.items {
		if r.items[i].ID == item.ID {
			item.Probability = clamp(item.Probability)
			item.Impact = clamp(item.Impact)
			r.items[i] = item
			return nil
		}
	}
	return fmt.Errorf("risk item %q not found", item.ID)
}

// Items returns a copy of the register contents.
func (r *Register) Items() []model.RiskItem {
	out := make([]model.RiskItem, len(r.items))
	copy(out, r.items)
	return out
}

// Replace swaps in imported register contents, re-clamping every item.
func (r *Register) Replace(data *model.RiskAnalysisData) {
	r.items = []model.RiskItem{}
	r.AddDraft(data)
}

// Data packages the register for snapshots. Nil when empty, matching the
// snapshot format's nullable riskData.
func (r *Register) Data() *model.RiskAnalysisData {
	if len(r.items) == 0 {
		return nil
	}
	return &model.RiskAnalysisData{Risks: r.Items()}
}
