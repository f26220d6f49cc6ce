package wiki

import (
	"context"

	"github.com/lodestone-ai/lodestone/internal/llm"
)

type MockLLMClient struct {
	Response string
	Err      error
	Calls    int
}

func (m *MockLLMClient) Generate(ctx context.Context, parts []llm.Part, opts llm.GenerateOptions) (*llm.GenerateResult, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return &llm.GenerateResult{Text: m.Response, Finish: llm.FinishStop}, nil
}

func (m *MockLLMClient) StartChat(system string, history []llm.Turn) llm.Chat {
	return nil
}
