// Package library owns the document list: uploads against the extension
// allow-list, lookup, removal, and ingestion-state bookkeeping.
package library

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lodestone-ai/lodestone/internal/core/model"
)

// allowedExtensions is the upload allow-list: plain text and code formats go
// in as text, the binary formats as inline payloads. Anything else is skipped
// with a warning, not an error.
var allowedExtensions = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".json": true, ".xml": true,
	".yaml": true, ".yml": true, ".html": true, ".log": true,
	".go": true, ".py": true, ".js": true, ".ts": true, ".java": true,
	".pdf": true, ".docx": true, ".xlsx": true, ".pptx": true,
}

var binaryExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".xlsx": true, ".pptx": true,
}

// ErrUnsupportedType marks a skipped upload; batch callers log it and keep
// going, since partial batch success is expected behavior.
var ErrUnsupportedType = fmt.Errorf("unsupported file type")

type Library struct {
	files []*model.LocalFile
}

func New() *Library {
	return &Library{files: []*model.LocalFile{}}
}

// Add validates the name against the allow-list and stores a new document.
func (l *Library) Add(name, mimeType string, payload []byte) (*model.LocalFile, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}

	file := &model.LocalFile{
		ID:        uuid.New().String(),
		Name:      name,
		MIMEType:  mimeType,
		Size:      int64(len(payload)),
		CreatedAt: time.Now().UTC(),
	}
	if binaryExtensions[ext] {
		file.Data = payload
	} else {
		file.Content = string(payload)
	}

	l.files = append(l.files, file)
	return file, nil
}

// Get looks a document up by id.
func (l *Library) Get(id string) (*model.LocalFile, bool) {
	for _, f := range l.files {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// Remove drops a document by id.
func (l *Library) Remove(id string) bool {
	for i, f := range l.files {
		if f.ID == id {
			l.files = append(l.files[:i], l.files[i+1:]...)
			return true
		}
	}
	return false
}

// Files returns the live document list, in upload order. The orchestrating
// layer owns mutation; this is not a defensive copy.
func (l *Library) Files() []*model.LocalFile {
	return l.files
}

// SetProcessing flags a document as having an in-flight ingestion.
func (l *Library) SetProcessing(id string, processing bool) {
	if f, ok := l.Get(id); ok {
		f.Processing = processing
	}
}

// SetProcessed replaces a document's extraction record wholesale and clears
// the in-flight flag.
func (l *Library) SetProcessed(id string, data *model.ProcessedData) {
	if f, ok := l.Get(id); ok {
		f.Processed = data
		f.Processing = false
	}
}

// Replace swaps in an imported document list.
func (l *Library) Replace(files []*model.LocalFile) {
	if files == nil {
		files = []*model.LocalFile{}
	}
	l.files = files
}
