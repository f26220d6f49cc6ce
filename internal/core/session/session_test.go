package session

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-ai/lodestone/internal/config"
	"github.com/lodestone-ai/lodestone/internal/core/model"
	"github.com/lodestone-ai/lodestone/internal/llm"
)

func testPrompts() config.ChatPrompts {
	return config.ChatPrompts{
		SystemSummaries: "Answer from these summaries:\n%s",
		SystemRaw:       "Answer from the attached raw content.",
		Acknowledgment:  "Understood.",
	}
}

func testFiles() []*model.LocalFile {
	return []*model.LocalFile{
		{ID: "a", Name: "ops.txt", Content: "operational notes", Size: 17},
		{ID: "b", Name: "fleet.txt", Content: "fleet roster", Size: 12},
	}
}

func TestFingerprintStableAndSensitive(t *testing.T) {
	files := testFiles()
	fp1 := Fingerprint(files)
	fp2 := Fingerprint(testFiles())
	assert.Equal(t, fp1, fp2, "same name+size pairs must fingerprint identically")

	files[0].Name = "renamed.txt"
	assert.NotEqual(t, fp1, Fingerprint(files), "a rename must change the fingerprint")

	files[0].Name = "ops.txt"
	files[1].Size = 13
	assert.NotEqual(t, fp1, Fingerprint(files), "a size change must change the fingerprint")
}

func TestSendReusesSessionOnUnchangedFileSet(t *testing.T) {
	mock := &MockLLMClient{Deltas: []string{"hello"}}
	m := NewManager(mock, testPrompts(), config.LimitsConfig{})
	files := testFiles()

	require.NoError(t, m.Send(context.Background(), "first", files, func(string) error { return nil }))
	require.NoError(t, m.Send(context.Background(), "second", files, func(string) error { return nil }))

	assert.Equal(t, 1, mock.StartChatCalls, "unchanged file set must reuse the session")
	assert.Equal(t, []string{"first", "second"}, mock.Chats[0].Sent)
}

func TestSendReseedsWhenFileSetChanges(t *testing.T) {
	mock := &MockLLMClient{}
	m := NewManager(mock, testPrompts(), config.LimitsConfig{})
	files := testFiles()

	require.NoError(t, m.Send(context.Background(), "first", files, func(string) error { return nil }))
	files[0].Size = 99
	require.NoError(t, m.Send(context.Background(), "second", files, func(string) error { return nil }))

	assert.Equal(t, 2, mock.StartChatCalls)
	assert.Equal(t, []string{"second"}, mock.Chats[1].Sent)
}

func TestResetForcesReseed(t *testing.T) {
	mock := &MockLLMClient{}
	m := NewManager(mock, testPrompts(), config.LimitsConfig{})
	files := testFiles()

	require.NoError(t, m.Send(context.Background(), "first", files, func(string) error { return nil }))
	m.Reset()
	assert.False(t, m.Active())
	require.NoError(t, m.Send(context.Background(), "second", files, func(string) error { return nil }))

	assert.Equal(t, 2, mock.StartChatCalls)
}

func TestSeedHistoryShape(t *testing.T) {
	mock := &MockLLMClient{}
	m := NewManager(mock, testPrompts(), config.LimitsConfig{})
	files := testFiles()
	files = append(files, &model.LocalFile{ID: "c", Name: "deck.pdf", MIMEType: "application/pdf", Data: []byte("pdf-bytes"), Size: 9})

	require.NoError(t, m.Send(context.Background(), "question", files, func(string) error { return nil }))

	require.Len(t, mock.Chats, 1)
	seeded := mock.Chats[0].Seeded
	require.Len(t, seeded, 2, "seed is one user turn plus a synthetic acknowledgment")
	assert.Equal(t, llm.RoleUser, seeded[0].Role)
	assert.Len(t, seeded[0].Parts, 3, "every file contributes a part")
	assert.Equal(t, "application/pdf", seeded[0].Parts[2].MIMEType)
	assert.Equal(t, llm.RoleModel, seeded[1].Role)
	assert.Equal(t, "Understood.", seeded[1].Parts[0].Text)
}

func TestSeedTruncatesLongText(t *testing.T) {
	mock := &MockLLMClient{}
	m := NewManager(mock, testPrompts(), config.LimitsConfig{SeedTruncate: 100})
	files := []*model.LocalFile{
		{ID: "a", Name: "big.txt", Content: strings.Repeat("x", 500), Size: 500},
	}

	require.NoError(t, m.Send(context.Background(), "question", files, func(string) error { return nil }))

	part := mock.Chats[0].Seeded[0].Parts[0].Text
	assert.True(t, strings.HasSuffix(part, truncationMarker))
	assert.NotContains(t, part, strings.Repeat("x", 101), "content past the limit must be cut")
}

func TestSystemInstructionPrefersSummaries(t *testing.T) {
	mock := &MockLLMClient{}
	m := NewManager(mock, testPrompts(), config.LimitsConfig{})
	files := testFiles()

	require.NoError(t, m.Send(context.Background(), "q", files, func(string) error { return nil }))
	assert.Equal(t, "Answer from the attached raw content.", mock.Chats[0].System,
		"unprocessed files fall back to the raw-content instruction")

	for _, f := range files {
		f.Processed = &model.ProcessedData{Summary: "done", Topics: []string{"t"}}
	}
	m.Reset()
	require.NoError(t, m.Send(context.Background(), "q", files, func(string) error { return nil }))
	assert.Contains(t, mock.Chats[1].System, "ops.txt")
	assert.Contains(t, mock.Chats[1].System, "done")
}

func TestSendDeliversDeltasInOrder(t *testing.T) {
	mock := &MockLLMClient{Deltas: []string{"The ", "answer ", "is 42."}}
	m := NewManager(mock, testPrompts(), config.LimitsConfig{})

	var got []string
	require.NoError(t, m.Send(context.Background(), "q", testFiles(), func(d string) error {
		got = append(got, d)
		return nil
	}))
	assert.Equal(t, []string{"The ", "answer ", "is 42."}, got)
}
