package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

// permissiveSafety relaxes every category to BLOCK_NONE. Aviation-risk
// documents legitimately discuss incidents and hazards that default
// thresholds flag.
func permissiveSafety() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockNone,
		})
	}
	return settings
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Description: s.Description}
	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeInteger:
		out.Type = genai.TypeInteger
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	out.Required = s.Required
	out.Items = toGenaiSchema(s.Items)
	return out
}

func toGenaiParts(parts []Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			out = append(out, genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
			continue
		}
		out = append(out, genai.Text(p.Text))
	}
	return out
}

func (c *GeminiClient) Generate(ctx context.Context, parts []Part, opts GenerateOptions) (*GenerateResult, error) {
	model := c.client.GenerativeModel(c.model)
	model.SafetySettings = permissiveSafety()
	if opts.ResponseSchema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = toGenaiSchema(opts.ResponseSchema)
	}
	if opts.Temperature != nil {
		model.SetTemperature(*opts.Temperature)
	}
	if opts.MaxOutputTokens != nil {
		model.SetMaxOutputTokens(*opts.MaxOutputTokens)
	}

	resp, err := model.GenerateContent(ctx, toGenaiParts(parts)...)
	if err != nil {
		return nil, err
	}
	return geminiResult(resp), nil
}

// geminiResult flattens a response to text plus a finish classification.
// A candidate with no text parts yields empty Text, which callers treat as a
// soft failure.
func geminiResult(resp *genai.GenerateContentResponse) *GenerateResult {
	result := &GenerateResult{Finish: FinishUnknown}
	if resp == nil {
		return result
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		result.Finish = FinishSafety
		return result
	}
	if len(resp.Candidates) == 0 {
		return result
	}
	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonStop:
		result.Finish = FinishStop
	case genai.FinishReasonSafety:
		result.Finish = FinishSafety
	case genai.FinishReasonMaxTokens:
		result.Finish = FinishMaxTokens
	}
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				result.Text += string(txt)
			}
		}
	}
	return result
}

type geminiChat struct {
	session *genai.ChatSession
}

func (c *GeminiClient) StartChat(system string, history []Turn) Chat {
	model := c.client.GenerativeModel(c.model)
	model.SafetySettings = permissiveSafety()
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	session := model.StartChat()
	for _, turn := range history {
		session.History = append(session.History, &genai.Content{
			Role:  turn.Role,
			Parts: toGenaiParts(turn.Parts),
		})
	}
	return &geminiChat{session: session}
}

func (g *geminiChat) SendStream(ctx context.Context, message string, onDelta func(string) error) error {
	iter := g.session.SendMessageStream(ctx, genai.Text(message))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}
		delta := geminiResult(resp).Text
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}
}
