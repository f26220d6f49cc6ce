// Package chunk splits long text into bounded, break-safe segments for
// model calls. Concatenating the pieces reproduces the input exactly.
package chunk

import "strings"

// DefaultMaxSize is the per-piece ceiling used by the ingestion pipeline.
const DefaultMaxSize = 50000

// breakFloor is how far into the window a break point must fall to be
// accepted; earlier breaks would produce degenerate tiny chunks.
const breakFloor = 0.8

// Split cuts text into ordered pieces of at most maxSize bytes. The cut
// prefers the last newline inside the window, then the last sentence-ending
// period, and falls back to a hard cut mid-token when neither lands past the
// floor. Text at or under maxSize comes back as a single piece.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if len(text) <= maxSize {
		return []string{text}
	}

	var pieces []string
	rest := text
	for len(rest) > maxSize {
		window := rest[:maxSize]
		floor := int(float64(maxSize) * breakFloor)

		cut := maxSize
		if idx := strings.LastIndexByte(window, '\n'); idx >= floor {
			cut = idx + 1
		} else if idx := strings.LastIndexByte(window, '.'); idx >= floor {
			cut = idx + 1
		}

		pieces = append(pieces, rest[:cut])
		rest = rest[cut:]
	}
	if len(rest) > 0 {
		pieces = append(pieces, rest)
	}
	return pieces
}
