// Package generate holds the one-shot document generators (report, email,
// risk matrix). Unlike per-chunk extraction these raise classified errors:
// the user takes different corrective action for a safety block than for a
// token-limit truncation.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lodestone-ai/lodestone/internal/config"
	"github.com/lodestone-ai/lodestone/internal/core/common"
	"github.com/lodestone-ai/lodestone/internal/core/model"
	"github.com/lodestone-ai/lodestone/internal/llm"
)

var (
	ErrSafetyBlocked = errors.New("generation blocked by safety filters; rephrase the request")
	ErrTokenLimit    = errors.New("generation truncated at the output token limit; narrow the request")
)

type Generator struct {
	LLM     llm.Client
	Prompts config.GeneratePrompts
}

func NewGenerator(llmClient llm.Client, prompts config.GeneratePrompts) *Generator {
	return &Generator{
		LLM:     llmClient,
		Prompts: prompts,
	}
}

// documentContext condenses the processed records into prompt context,
// falling back to raw content for files that have not finished ingestion.
func documentContext(files []*model.LocalFile) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "## %s\n", f.Name)
		switch {
		case f.Processed != nil:
			fmt.Fprintf(&b, "%s\n", f.Processed.Summary)
			for _, k := range f.Processed.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", k)
			}
		case f.IsBinary():
			fmt.Fprintf(&b, "[binary document, %d bytes]\n", f.Size)
		default:
			b.WriteString(f.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func classify(result *llm.GenerateResult) error {
	switch result.Finish {
	case llm.FinishSafety:
		return ErrSafetyBlocked
	case llm.FinishMaxTokens:
		return ErrTokenLimit
	default:
		return errors.New("the model returned no content; retry the request")
	}
}

func (g *Generator) generateText(ctx context.Context, prompt string) (string, error) {
	result, err := g.LLM.Generate(ctx, []llm.Part{llm.TextPart(prompt)}, llm.GenerateOptions{})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if result.Text == "" {
		return "", classify(result)
	}
	return result.Text, nil
}

// Report produces a briefing document over the active file set.
func (g *Generator) Report(ctx context.Context, files []*model.LocalFile) (string, error) {
	return g.generateText(ctx, fmt.Sprintf(g.Prompts.Report, documentContext(files)))
}

// Email drafts an email about the active file set per the given instructions.
func (g *Generator) Email(ctx context.Context, files []*model.LocalFile, instructions string) (string, error) {
	return g.generateText(ctx, fmt.Sprintf(g.Prompts.Email, instructions, documentContext(files)))
}

// RiskMatrix drafts a structured risk register from the active file set.
func (g *Generator) RiskMatrix(ctx context.Context, files []*model.LocalFile) (*model.RiskAnalysisData, error) {
	prompt := fmt.Sprintf(g.Prompts.Risks, documentContext(files))
	result, err := g.LLM.Generate(ctx, []llm.Part{llm.TextPart(prompt)}, llm.GenerateOptions{
		ResponseSchema: riskMatrixSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("risk matrix generation failed: %w", err)
	}
	if result.Text == "" {
		return nil, classify(result)
	}

	decoded := common.Decode[model.RiskAnalysisData](result.Text)
	if !decoded.Ok {
		return nil, errors.New("risk matrix generation returned malformed JSON; retry the request")
	}
	return &decoded.Value, nil
}

func riskMatrixSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"risks": {
				Type: llm.TypeArray,
				Items: &llm.Schema{
					Type: llm.TypeObject,
					Properties: map[string]*llm.Schema{
						"source":      {Type: llm.TypeString, Description: "Originating document name"},
						"description": {Type: llm.TypeString},
						"category":    {Type: llm.TypeString, Description: "PESTLE category or Operational"},
						"probability": {Type: llm.TypeInteger, Description: "1-5"},
						"impact":      {Type: llm.TypeInteger, Description: "1-5"},
						"mitigation":  {Type: llm.TypeString},
					},
					Required: []string{"description", "category"},
				},
			},
		},
		Required: []string{"risks"},
	}
}
