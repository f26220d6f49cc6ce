// Package snapshot serializes the full application state to a single
// versioned JSON document. This is the sole durability mechanism; there is no
// incremental persistence.
package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lodestone-ai/lodestone/internal/core/model"
)

const Version = 2

type Snapshot struct {
	Version   int                            `json:"version"`
	Timestamp time.Time                      `json:"timestamp"`
	Files     []*model.LocalFile             `json:"files"`
	Wiki      map[string]*model.WikiNodeData `json:"wiki"`
	RiskData  *model.RiskAnalysisData        `json:"riskData"`
}

// Export packages the current state. Files and Wiki are emitted even when
// empty so the document always carries every section.
func Export(files []*model.LocalFile, wiki map[string]*model.WikiNodeData, riskData *model.RiskAnalysisData) ([]byte, error) {
	if files == nil {
		files = []*model.LocalFile{}
	}
	if wiki == nil {
		wiki = map[string]*model.WikiNodeData{}
	}
	snap := Snapshot{
		Version:   Version,
		Timestamp: time.Now().UTC(),
		Files:     files,
		Wiki:      wiki,
		RiskData:  riskData,
	}
	return json.MarshalIndent(snap, "", "  ")
}

// rawSnapshot defers section decoding so structure can be validated before
// anything is applied. Import is all-or-nothing.
type rawSnapshot struct {
	Version  int                     `json:"version"`
	Files    json.RawMessage         `json:"files"`
	Wiki     json.RawMessage         `json:"wiki"`
	RiskData *model.RiskAnalysisData `json:"riskData"`
}

func leadingByte(raw json.RawMessage) byte {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return 0
	}
	return trimmed[0]
}

// Import validates and decodes a snapshot document. The file list must be a
// JSON array and the wiki value a JSON object; anything else is rejected with
// a descriptive error and no state is returned.
func Import(data []byte) ([]*model.LocalFile, map[string]*model.WikiNodeData, *model.RiskAnalysisData, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, nil, fmt.Errorf("snapshot is not valid JSON: %w", err)
	}
	if len(raw.Files) == 0 || leadingByte(raw.Files) != '[' {
		return nil, nil, nil, fmt.Errorf("snapshot 'files' must be an array")
	}
	if len(raw.Wiki) == 0 || leadingByte(raw.Wiki) != '{' {
		return nil, nil, nil, fmt.Errorf("snapshot 'wiki' must be an object")
	}

	var files []*model.LocalFile
	if err := json.Unmarshal(raw.Files, &files); err != nil {
		return nil, nil, nil, fmt.Errorf("snapshot 'files' did not decode: %w", err)
	}
	var wiki map[string]*model.WikiNodeData
	if err := json.Unmarshal(raw.Wiki, &wiki); err != nil {
		return nil, nil, nil, fmt.Errorf("snapshot 'wiki' did not decode: %w", err)
	}

	return files, wiki, raw.RiskData, nil
}

// ExportWiki emits the bare graph map, importable independently of the full
// snapshot.
func ExportWiki(wiki map[string]*model.WikiNodeData) ([]byte, error) {
	if wiki == nil {
		wiki = map[string]*model.WikiNodeData{}
	}
	return json.MarshalIndent(wiki, "", "  ")
}

// ImportWiki decodes a bare graph map.
func ImportWiki(data []byte) (map[string]*model.WikiNodeData, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed[0] != '{' {
		return nil, fmt.Errorf("wiki export must be a JSON object")
	}
	var wiki map[string]*model.WikiNodeData
	if err := json.Unmarshal(data, &wiki); err != nil {
		return nil, fmt.Errorf("wiki export did not decode: %w", err)
	}
	return wiki, nil
}
