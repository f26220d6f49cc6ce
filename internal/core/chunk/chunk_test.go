package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSmallInputIdentity(t *testing.T) {
	text := "A short document.\nNothing to split here."
	pieces := Split(text, 50000)

	assert.Len(t, pieces, 1)
	assert.Equal(t, text, pieces[0])
}

func TestSplitRoundTrip(t *testing.T) {
	inputs := []string{
		strings.Repeat("The quick brown fox jumps over the lazy dog. ", 500),
		strings.Repeat("line one\nline two\nline three\n", 400),
		strings.Repeat("x", 2500),
		"",
	}
	for _, text := range inputs {
		pieces := Split(text, 1000)
		assert.Equal(t, text, strings.Join(pieces, ""), "concatenation must reproduce the input exactly")
	}
}

func TestSplitSizeBound(t *testing.T) {
	text := strings.Repeat("Some sentence of moderate length ends here. ", 1000)
	pieces := Split(text, 1000)

	assert.Greater(t, len(pieces), 1)
	for i, p := range pieces[:len(pieces)-1] {
		assert.LessOrEqual(t, len(p), 1000, "piece %d exceeds the bound", i)
	}
}

func TestSplitPrefersNewlineBreak(t *testing.T) {
	// A newline lands at byte 900 of a 1000-byte window, past the 80% floor.
	text := strings.Repeat("a", 899) + "\n" + strings.Repeat("b", 600)
	pieces := Split(text, 1000)

	assert.Equal(t, strings.Repeat("a", 899)+"\n", pieces[0])
	assert.Equal(t, text, strings.Join(pieces, ""))
}

func TestSplitFallsBackToSentenceBreak(t *testing.T) {
	// No newline anywhere; a period at byte 850 is the best break.
	text := strings.Repeat("a", 849) + "." + strings.Repeat("b", 600)
	pieces := Split(text, 1000)

	assert.Equal(t, strings.Repeat("a", 849)+".", pieces[0])
	assert.Equal(t, text, strings.Join(pieces, ""))
}

func TestSplitHardCutWhenNoSafeBreak(t *testing.T) {
	// A newline exists but before the 80% floor, so it must be ignored.
	text := strings.Repeat("a", 100) + "\n" + strings.Repeat("b", 1500)
	pieces := Split(text, 1000)

	assert.Equal(t, 1000, len(pieces[0]))
	assert.Equal(t, text, strings.Join(pieces, ""))
}
