package extraction

import (
	"context"

	"github.com/lodestone-ai/lodestone/internal/llm"
)

type MockLLMClient struct {
	Response string
	Finish   llm.FinishReason
	Err      error
	Calls    int
}

func (m *MockLLMClient) Generate(ctx context.Context, parts []llm.Part, opts llm.GenerateOptions) (*llm.GenerateResult, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	finish := m.Finish
	if finish == llm.FinishUnknown && m.Response != "" {
		finish = llm.FinishStop
	}
	return &llm.GenerateResult{Text: m.Response, Finish: finish}, nil
}

func (m *MockLLMClient) StartChat(system string, history []llm.Turn) llm.Chat {
	return nil
}
