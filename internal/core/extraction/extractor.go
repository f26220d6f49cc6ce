package extraction

import (
	"context"
	"fmt"
	"log"

	"github.com/lodestone-ai/lodestone/internal/config"
	"github.com/lodestone-ai/lodestone/internal/core/common"
	"github.com/lodestone-ai/lodestone/internal/core/model"
	"github.com/lodestone-ai/lodestone/internal/llm"
)

type Extractor struct {
	LLM     llm.Client
	Prompts config.ExtractionPrompts
}

func NewExtractor(llmClient llm.Client, prompts config.ExtractionPrompts) *Extractor {
	return &Extractor{
		LLM:     llmClient,
		Prompts: prompts,
	}
}

// ProcessedDataSchema is the required response shape for a document
// extraction call.
func ProcessedDataSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"summary": {Type: llm.TypeString, Description: "Concise summary of the content"},
			"topics": {
				Type:  llm.TypeArray,
				Items: &llm.Schema{Type: llm.TypeString},
			},
			"risks": {
				Type: llm.TypeArray,
				Items: &llm.Schema{
					Type: llm.TypeObject,
					Properties: map[string]*llm.Schema{
						"risk":     {Type: llm.TypeString},
						"category": {Type: llm.TypeString, Description: "PESTLE category or Operational"},
					},
					Required: []string{"risk", "category"},
				},
			},
			"keyPoints": {
				Type:  llm.TypeArray,
				Items: &llm.Schema{Type: llm.TypeString},
			},
			"entities": {
				Type:  llm.TypeArray,
				Items: &llm.Schema{Type: llm.TypeString},
			},
		},
		Required: []string{"summary", "topics", "risks", "keyPoints", "entities"},
	}
}

// Extract issues one structured model call over the given content parts.
// Every failure mode (transport error, empty response text, malformed JSON)
// degrades to the empty ProcessedData shape so one bad chunk never aborts a
// multi-chunk ingestion.
func (e *Extractor) Extract(ctx context.Context, name string, parts []llm.Part) *model.ProcessedData {
	temperature := float32(0.3)
	prompt := fmt.Sprintf(e.Prompts.Document, name)

	callParts := append([]llm.Part{llm.TextPart(prompt)}, parts...)
	result, err := e.LLM.Generate(ctx, callParts, llm.GenerateOptions{
		ResponseSchema: ProcessedDataSchema(),
		Temperature:    &temperature,
	})
	if err != nil {
		log.Printf("extraction call failed for %s: %v", name, err)
		return model.EmptyProcessedData()
	}
	if result.Text == "" {
		log.Printf("extraction returned no text for %s (finish=%d)", name, result.Finish)
		return model.EmptyProcessedData()
	}

	decoded := common.Decode[model.ProcessedData](result.Text)
	if !decoded.Ok {
		log.Printf("extraction returned malformed JSON for %s", name)
		return model.EmptyProcessedData()
	}
	return normalize(&decoded.Value)
}

// normalize guarantees the structural-completeness invariant: no nil
// collections, ever.
func normalize(data *model.ProcessedData) *model.ProcessedData {
	if data.Topics == nil {
		data.Topics = []string{}
	}
	if data.Risks == nil {
		data.Risks = []model.ExtractedRisk{}
	}
	if data.KeyPoints == nil {
		data.KeyPoints = []string{}
	}
	if data.Entities == nil {
		data.Entities = []string{}
	}
	return data
}
