package session

import (
	"context"

	"github.com/lodestone-ai/lodestone/internal/llm"
)

type MockChat struct {
	Deltas []string
	Err    error
	Sent   []string
	Seeded []llm.Turn
	System string
}

func (m *MockChat) SendStream(ctx context.Context, message string, onDelta func(string) error) error {
	m.Sent = append(m.Sent, message)
	for _, d := range m.Deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return m.Err
}

type MockLLMClient struct {
	StartChatCalls int
	Chats          []*MockChat
	Deltas         []string
}

func (m *MockLLMClient) Generate(ctx context.Context, parts []llm.Part, opts llm.GenerateOptions) (*llm.GenerateResult, error) {
	return &llm.GenerateResult{Finish: llm.FinishStop}, nil
}

func (m *MockLLMClient) StartChat(system string, history []llm.Turn) llm.Chat {
	m.StartChatCalls++
	chat := &MockChat{Deltas: m.Deltas, Seeded: history, System: system}
	m.Chats = append(m.Chats, chat)
	return chat
}
