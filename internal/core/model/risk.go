package model

// RiskItem is one entry in the risk register. Probability and impact are
// clamped to [1,5]; callers read the derived score via Score().
type RiskItem struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Probability int    `json:"probability"`
	Impact      int    `json:"impact"`
	Mitigation  string `json:"mitigation"`
}

// Score is the probability-times-impact rating used for triage ordering.
func (r *RiskItem) Score() int {
	return r.Probability * r.Impact
}

// RiskAnalysisData is the register payload as drafted by the model or carried
// in a snapshot.
type RiskAnalysisData struct {
	Risks []RiskItem `json:"risks"`
}
