// Package ingest drives a whole document through chunking and per-chunk
// extraction, merging the partial results into one ProcessedData record.
package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/lodestone-ai/lodestone/internal/config"
	"github.com/lodestone-ai/lodestone/internal/core/chunk"
	"github.com/lodestone-ai/lodestone/internal/core/extraction"
	"github.com/lodestone-ai/lodestone/internal/core/model"
	"github.com/lodestone-ai/lodestone/internal/llm"
)

// summaryMarker is appended when the merged summary is truncated to the cap.
const summaryMarker = "... [Summary synthesized from multiple document sections]"

type Ingestor struct {
	Extractor *extraction.Extractor
	Limits    config.LimitsConfig
}

func NewIngestor(ex *extraction.Extractor, limits config.LimitsConfig) *Ingestor {
	limits = withDefaults(limits)
	return &Ingestor{
		Extractor: ex,
		Limits:    limits,
	}
}

func withDefaults(l config.LimitsConfig) config.LimitsConfig {
	if l.ChunkSize <= 0 {
		l.ChunkSize = config.DefaultChunkSize
	}
	if l.SmallDocLimit <= 0 {
		l.SmallDocLimit = config.DefaultSmallDocLimit
	}
	if l.SummaryCap <= 0 {
		l.SummaryCap = config.DefaultSummaryCap
	}
	return l
}

// Ingest produces the aggregated extraction record for one document. It never
// panics past its own boundary: any failure yields a placeholder record with a
// failure-notice summary and empty collections, and the document is preserved
// for retry.
func (ing *Ingestor) Ingest(ctx context.Context, file *model.LocalFile) (data *model.ProcessedData) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ingestion of %s failed: %v", file.Name, r)
			data = placeholder(file.Name)
		}
	}()

	// Binary documents (PDF and Office payloads) go to the model whole; so
	// does any text short enough to fit one call.
	if file.IsBinary() {
		return ing.Extractor.Extract(ctx, file.Name, []llm.Part{
			llm.BlobPart(file.MIMEType, file.Data),
		})
	}
	if len(file.Content) <= ing.Limits.SmallDocLimit {
		return ing.Extractor.Extract(ctx, file.Name, []llm.Part{
			llm.TextPart(file.Content),
		})
	}

	pieces := chunk.Split(file.Content, ing.Limits.ChunkSize)
	results := make([]*model.ProcessedData, 0, len(pieces))
	// Strictly sequential: one in-flight call at a time keeps us under
	// provider rate limits and bounds memory.
	for i, piece := range pieces {
		name := fmt.Sprintf("%s (section %d/%d)", file.Name, i+1, len(pieces))
		results = append(results, ing.Extractor.Extract(ctx, name, []llm.Part{
			llm.TextPart(piece),
		}))
	}

	return ing.merge(results)
}

// merge folds per-chunk records into one. Summaries concatenate with a blank
// line; topics and entities merge as sets; risks and key points concatenate
// without deduplication, since downstream triage wants every mention.
func (ing *Ingestor) merge(results []*model.ProcessedData) *model.ProcessedData {
	merged := model.EmptyProcessedData()
	seenTopics := make(map[string]bool)
	seenEntities := make(map[string]bool)

	for _, r := range results {
		if r.Summary != "" {
			if merged.Summary != "" {
				merged.Summary += "\n\n"
			}
			merged.Summary += r.Summary
		}
		for _, t := range r.Topics {
			if !seenTopics[t] {
				seenTopics[t] = true
				merged.Topics = append(merged.Topics, t)
			}
		}
		for _, e := range r.Entities {
			if !seenEntities[e] {
				seenEntities[e] = true
				merged.Entities = append(merged.Entities, e)
			}
		}
		merged.Risks = append(merged.Risks, r.Risks...)
		merged.KeyPoints = append(merged.KeyPoints, r.KeyPoints...)
	}

	if len(merged.Summary) > ing.Limits.SummaryCap {
		merged.Summary = merged.Summary[:ing.Limits.SummaryCap] + summaryMarker
	}
	return merged
}

func placeholder(name string) *model.ProcessedData {
	data := model.EmptyProcessedData()
	data.Summary = fmt.Sprintf("Processing failed for %s. The document is preserved; retry ingestion to analyze it.", name)
	return data
}
