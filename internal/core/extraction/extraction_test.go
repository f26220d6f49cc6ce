package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lodestone-ai/lodestone/internal/config"
	"github.com/lodestone-ai/lodestone/internal/llm"
)

func newExtractor(mock *MockLLMClient) *Extractor {
	return NewExtractor(mock, config.ExtractionPrompts{Document: "analyze %s"})
}

func TestExtractParsesStructuredResponse(t *testing.T) {
	mockJSON := `{
		"summary": "Fleet maintenance backlog is growing.",
		"topics": ["maintenance", "fleet"],
		"risks": [{"risk": "Deferred inspections", "category": "Operational"}],
		"keyPoints": ["Backlog doubled in Q2"],
		"entities": ["AeroCorp"]
	}`
	mock := &MockLLMClient{Response: mockJSON}
	ex := newExtractor(mock)

	data := ex.Extract(context.Background(), "ops.txt", []llm.Part{llm.TextPart("content")})

	assert.Equal(t, "Fleet maintenance backlog is growing.", data.Summary)
	assert.Equal(t, []string{"maintenance", "fleet"}, data.Topics)
	assert.Len(t, data.Risks, 1)
	assert.Equal(t, "Operational", data.Risks[0].Category)
	assert.Equal(t, []string{"Backlog doubled in Q2"}, data.KeyPoints)
	assert.Equal(t, []string{"AeroCorp"}, data.Entities)
}

func TestExtractEmptyResponseDegradesToEmptyShape(t *testing.T) {
	mock := &MockLLMClient{Response: "", Finish: llm.FinishSafety}
	ex := newExtractor(mock)

	data := ex.Extract(context.Background(), "ops.txt", []llm.Part{llm.TextPart("content")})

	assert.NotNil(t, data)
	assert.Empty(t, data.Summary)
	assert.Empty(t, data.Topics)
	assert.NotNil(t, data.Topics, "collections must be present, not nil")
	assert.NotNil(t, data.Risks)
	assert.NotNil(t, data.KeyPoints)
	assert.NotNil(t, data.Entities)
}

func TestExtractTransportErrorDegradesToEmptyShape(t *testing.T) {
	mock := &MockLLMClient{Err: errors.New("connection reset")}
	ex := newExtractor(mock)

	data := ex.Extract(context.Background(), "ops.txt", []llm.Part{llm.TextPart("content")})

	assert.NotNil(t, data)
	assert.Empty(t, data.Summary)
	assert.Empty(t, data.Risks)
}

func TestExtractMalformedJSONDegradesToEmptyShape(t *testing.T) {
	mock := &MockLLMClient{Response: `{"summary": "truncated mid-`}
	ex := newExtractor(mock)

	data := ex.Extract(context.Background(), "ops.txt", []llm.Part{llm.TextPart("content")})

	assert.NotNil(t, data)
	assert.Empty(t, data.Summary)
	assert.NotNil(t, data.Topics)
}

func TestExtractFillsMissingCollections(t *testing.T) {
	// A model that returns only a summary must still yield a complete record.
	mock := &MockLLMClient{Response: `{"summary": "Short note."}`}
	ex := newExtractor(mock)

	data := ex.Extract(context.Background(), "note.txt", []llm.Part{llm.TextPart("content")})

	assert.Equal(t, "Short note.", data.Summary)
	assert.NotNil(t, data.Topics)
	assert.NotNil(t, data.Risks)
	assert.NotNil(t, data.KeyPoints)
	assert.NotNil(t, data.Entities)
}
