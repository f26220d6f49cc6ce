// Package session maintains the single reusable chat conversation, keyed by a
// fingerprint of the active document set.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lodestone-ai/lodestone/internal/config"
	"github.com/lodestone-ai/lodestone/internal/core/model"
	"github.com/lodestone-ai/lodestone/internal/llm"
)

// truncationMarker is appended to text payloads cut at the seed limit.
const truncationMarker = "\n\n[Content truncated for context window]"

// Manager owns at most one live conversation. It is not safe for concurrent
// use; the caller serializes sends on one manager.
type Manager struct {
	llm     llm.Client
	prompts config.ChatPrompts
	limits  config.LimitsConfig

	chat        llm.Chat
	fingerprint string
}

func NewManager(client llm.Client, prompts config.ChatPrompts, limits config.LimitsConfig) *Manager {
	if limits.SeedTruncate <= 0 {
		limits.SeedTruncate = config.DefaultSeedTruncate
	}
	return &Manager{
		llm:     client,
		prompts: prompts,
		limits:  limits,
	}
}

// Fingerprint digests the document set identity: name and size of every file,
// in order. Any rename, addition, removal or size change yields a new value.
func Fingerprint(files []*model.LocalFile) string {
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s:%d;", f.Name, f.Size)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Send routes one user message into the conversation, streaming text deltas
// through onDelta. A session is reused while the document set fingerprint is
// unchanged; otherwise a new one is seeded with the file contents.
func (m *Manager) Send(ctx context.Context, message string, files []*model.LocalFile, onDelta func(string) error) error {
	fp := Fingerprint(files)
	if m.chat == nil || fp != m.fingerprint {
		m.chat = m.llm.StartChat(m.systemInstruction(files), seedHistory(files, m.limits.SeedTruncate, m.prompts.Acknowledgment))
		m.fingerprint = fp
	}
	return m.chat.SendStream(ctx, message, onDelta)
}

// Reset discards the conversation and fingerprint, forcing a full re-seed on
// the next Send.
func (m *Manager) Reset() {
	m.chat = nil
	m.fingerprint = ""
}

// Active reports whether a seeded conversation is being held.
func (m *Manager) Active() bool {
	return m.chat != nil
}

// systemInstruction prefers condensed per-file summaries once every active
// file has completed ingestion; until then the model is told to work from the
// attached raw content.
func (m *Manager) systemInstruction(files []*model.LocalFile) string {
	allProcessed := len(files) > 0
	for _, f := range files {
		if f.Processed == nil {
			allProcessed = false
			break
		}
	}
	if !allProcessed {
		return m.prompts.SystemRaw
	}

	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "## %s\nSummary: %s\n", f.Name, f.Processed.Summary)
		if len(f.Processed.Topics) > 0 {
			fmt.Fprintf(&b, "Topics: %s\n", strings.Join(f.Processed.Topics, ", "))
		}
		b.WriteString("\n")
	}
	return fmt.Sprintf(m.prompts.SystemSummaries, b.String())
}

// seedHistory builds the priming exchange: one user turn carrying every
// file's raw content, answered by a synthetic acknowledgment turn.
func seedHistory(files []*model.LocalFile, seedLimit int, ack string) []llm.Turn {
	if len(files) == 0 {
		return nil
	}

	var parts []llm.Part
	for _, f := range files {
		if f.IsBinary() {
			parts = append(parts, llm.BlobPart(f.MIMEType, f.Data))
			continue
		}
		content := f.Content
		if len(content) > seedLimit {
			content = content[:seedLimit] + truncationMarker
		}
		parts = append(parts, llm.TextPart(fmt.Sprintf("--- Document: %s ---\n%s", f.Name, content)))
	}

	if ack == "" {
		ack = "I have reviewed the attached documents and am ready to answer questions about them."
	}
	return []llm.Turn{
		{Role: llm.RoleUser, Parts: parts},
		{Role: llm.RoleModel, Parts: []llm.Part{llm.TextPart(ack)}},
	}
}
