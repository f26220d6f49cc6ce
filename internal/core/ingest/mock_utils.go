package ingest

import (
	"context"

	"github.com/lodestone-ai/lodestone/internal/llm"
)

// SequenceLLMClient replays one scripted response per Generate call, in
// order. A nil entry in Errs means that call succeeds.
type SequenceLLMClient struct {
	Responses []string
	Errs      []error
	Calls     int
}

func (m *SequenceLLMClient) Generate(ctx context.Context, parts []llm.Part, opts llm.GenerateOptions) (*llm.GenerateResult, error) {
	i := m.Calls
	m.Calls++
	if i < len(m.Errs) && m.Errs[i] != nil {
		return nil, m.Errs[i]
	}
	response := ""
	if i < len(m.Responses) {
		response = m.Responses[i]
	}
	return &llm.GenerateResult{Text: response, Finish: llm.FinishStop}, nil
}

func (m *SequenceLLMClient) StartChat(system string, history []llm.Turn) llm.Chat {
	return nil
}
