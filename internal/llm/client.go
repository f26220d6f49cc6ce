package llm

import (
	"context"
)

// Part is one piece of model input: either text or binary with a declared
// MIME type.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func BlobPart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// Schema is a provider-neutral description of the required response shape.
// Adapters translate it to their vendor's structured-output mechanism, or
// render it into the prompt when the vendor has none.
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
}

const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
)

// GenerateOptions tunes a single structured call. Nil pointers leave the
// provider default in place.
type GenerateOptions struct {
	ResponseSchema  *Schema
	Temperature     *float32
	MaxOutputTokens *int32
}

// FinishReason classifies why generation stopped. Callers use it to tell
// safety blocks and token-limit truncation apart from a normal stop.
type FinishReason int

const (
	FinishUnknown FinishReason = iota
	FinishStop
	FinishSafety
	FinishMaxTokens
)

// GenerateResult carries the model text, possibly empty. Empty Text with a
// nil error is a soft failure the caller degrades from, not an exception.
type GenerateResult struct {
	Text   string
	Finish FinishReason
}

// Turn is one prior exchange used to seed a chat session.
type Turn struct {
	Role  string // RoleUser or RoleModel
	Parts []Part
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Chat is a live multi-turn conversation handle. SendStream is forward-only
// and not re-entrant: one message may be in flight per handle.
type Chat interface {
	SendStream(ctx context.Context, message string, onDelta func(delta string) error) error
}

// Client is the abstract model transport.
type Client interface {
	Generate(ctx context.Context, parts []Part, opts GenerateOptions) (*GenerateResult, error)
	StartChat(system string, history []Turn) Chat
}
