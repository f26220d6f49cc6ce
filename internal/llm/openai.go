package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey string, model string, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIClient{
		client: client,
		model:  model,
	}
}

// flattenParts renders parts into one prompt string. Binary payloads cannot
// be inlined on this API, so they are described instead.
func flattenParts(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if len(p.Data) > 0 {
			fmt.Fprintf(&b, "[binary attachment: %s, %d bytes]", p.MIMEType, len(p.Data))
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// renderSchema produces a JSON-shaped skeleton for providers without native
// structured output, e.g. {"summary": string, "topics": [string]}.
func renderSchema(s *Schema) string {
	if s == nil {
		return ""
	}
	switch s.Type {
	case TypeObject:
		keys := make([]string, 0, len(s.Properties))
		for k := range s.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]string, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, fmt.Sprintf("%q: %s", k, renderSchema(s.Properties[k])))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case TypeArray:
		return "[" + renderSchema(s.Items) + "]"
	case TypeInteger:
		return "integer"
	default:
		return "string"
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, parts []Part, opts GenerateOptions) (*GenerateResult, error) {
	prompt := flattenParts(parts)
	req := openai.ChatCompletionRequest{
		Model: c.model,
	}
	if opts.ResponseSchema != nil {
		prompt += "\n\nRespond with a single JSON object matching this shape exactly: " + renderSchema(opts.ResponseSchema)
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.MaxOutputTokens != nil {
		req.MaxTokens = int(*opts.MaxOutputTokens)
	}
	req.Messages = []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return &GenerateResult{Finish: FinishUnknown}, nil
	}
	choice := resp.Choices[0]
	result := &GenerateResult{Text: choice.Message.Content}
	switch choice.FinishReason {
	case openai.FinishReasonStop:
		result.Finish = FinishStop
	case openai.FinishReasonLength:
		result.Finish = FinishMaxTokens
	case openai.FinishReasonContentFilter:
		result.Finish = FinishSafety
	}
	return result, nil
}

type openaiChat struct {
	client   *openai.Client
	model    string
	messages []openai.ChatCompletionMessage
}

func (c *OpenAIClient) StartChat(system string, history []Turn) Chat {
	chat := &openaiChat{client: c.client, model: c.model}
	if system != "" {
		chat.messages = append(chat.messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		chat.messages = append(chat.messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: flattenParts(turn.Parts),
		})
	}
	return chat
}

func (o *openaiChat) SendStream(ctx context.Context, message string, onDelta func(string) error) error {
	o.messages = append(o.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: o.messages,
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("openai stream: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("openai stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return err
		}
	}

	o.messages = append(o.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: full.String(),
	})
	return nil
}
