package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// Anthropic requires an explicit output ceiling on every call.
const claudeDefaultMaxTokens = 4096

type ClaudeClient struct {
	client *anthropic.Client
	model  string
}

func NewClaudeClient(apiKey string, model string, baseURL string) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(apiKey, opts...)
	return &ClaudeClient{
		client: client,
		model:  model,
	}
}

func (c *ClaudeClient) buildRequest(parts []Part, opts GenerateOptions) anthropic.MessagesRequest {
	prompt := flattenParts(parts)
	if opts.ResponseSchema != nil {
		prompt += "\n\nRespond with a single JSON object matching this shape exactly: " + renderSchema(opts.ResponseSchema)
	}
	req := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens: claudeDefaultMaxTokens,
	}
	if opts.Temperature != nil {
		req.Temperature = opts.Temperature
	}
	if opts.MaxOutputTokens != nil {
		req.MaxTokens = int(*opts.MaxOutputTokens)
	}
	return req
}

func (c *ClaudeClient) Generate(ctx context.Context, parts []Part, opts GenerateOptions) (*GenerateResult, error) {
	resp, err := c.client.CreateMessages(ctx, c.buildRequest(parts, opts))
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{}
	switch resp.StopReason {
	case anthropic.MessagesStopReasonEndTurn, anthropic.MessagesStopReasonStopSequence:
		result.Finish = FinishStop
	case anthropic.MessagesStopReasonMaxTokens:
		result.Finish = FinishMaxTokens
	}
	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		result.Text = *resp.Content[0].Text
	}
	return result, nil
}

type claudeChat struct {
	client   *anthropic.Client
	model    string
	system   string
	messages []anthropic.Message
}

func (c *ClaudeClient) StartChat(system string, history []Turn) Chat {
	chat := &claudeChat{client: c.client, model: c.model, system: system}
	for _, turn := range history {
		role := anthropic.RoleUser
		if turn.Role == RoleModel {
			role = anthropic.RoleAssistant
		}
		chat.messages = append(chat.messages, anthropic.Message{
			Role: role,
			Content: []anthropic.MessageContent{
				anthropic.NewTextMessageContent(flattenParts(turn.Parts)),
			},
		})
	}
	return chat
}

func (cc *claudeChat) SendStream(ctx context.Context, message string, onDelta func(string) error) error {
	cc.messages = append(cc.messages, anthropic.Message{
		Role: anthropic.RoleUser,
		Content: []anthropic.MessageContent{
			anthropic.NewTextMessageContent(message),
		},
	})

	var full strings.Builder
	var deltaErr error
	_, err := cc.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
		MessagesRequest: anthropic.MessagesRequest{
			Model:     anthropic.Model(cc.model),
			System:    cc.system,
			Messages:  cc.messages,
			MaxTokens: claudeDefaultMaxTokens,
		},
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if deltaErr != nil || data.Delta.Text == nil || *data.Delta.Text == "" {
				return
			}
			full.WriteString(*data.Delta.Text)
			deltaErr = onDelta(*data.Delta.Text)
		},
	})
	if err != nil {
		return fmt.Errorf("claude stream: %w", err)
	}
	if deltaErr != nil {
		return deltaErr
	}

	cc.messages = append(cc.messages, anthropic.Message{
		Role: anthropic.RoleAssistant,
		Content: []anthropic.MessageContent{
			anthropic.NewTextMessageContent(full.String()),
		},
	})
	return nil
}
