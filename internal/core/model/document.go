package model

import "time"

// LocalFile is one uploaded document. Content holds text payloads; Data holds
// binary payloads (PDF and Office formats) and serializes as base64.
type LocalFile struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	MIMEType   string         `json:"mimeType"`
	Content    string         `json:"content,omitempty"`
	Data       []byte         `json:"data,omitempty"`
	Size       int64          `json:"size"`
	CreatedAt  time.Time      `json:"createdAt"`
	Processed  *ProcessedData `json:"processedData,omitempty"`
	Processing bool           `json:"isProcessing,omitempty"`
}

// IsBinary reports whether the file carries a binary payload that goes to the
// model as an inline blob rather than as text.
func (f *LocalFile) IsBinary() bool {
	return len(f.Data) > 0
}

// ProcessedData is the aggregated extraction record for one document.
// Every field is always present; failures degrade to empty values, never to a
// missing or partially-shaped record.
type ProcessedData struct {
	Summary   string          `json:"summary"`
	Topics    []string        `json:"topics"`
	Risks     []ExtractedRisk `json:"risks"`
	KeyPoints []string        `json:"keyPoints"`
	Entities  []string        `json:"entities"`
}

// ExtractedRisk is one risk statement returned by the model, categorized
// against the PESTLE taxonomy plus Operational.
type ExtractedRisk struct {
	Risk     string `json:"risk"`
	Category string `json:"category"`
}

// EmptyProcessedData is the fallback shape for every failure path. Collections
// are non-nil so the record marshals as empty arrays, not nulls.
func EmptyProcessedData() *ProcessedData {
	return &ProcessedData{
		Topics:    []string{},
		Risks:     []ExtractedRisk{},
		KeyPoints: []string{},
		Entities:  []string{},
	}
}
