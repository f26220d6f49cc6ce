package wiki

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-ai/lodestone/internal/config"
	"github.com/lodestone-ai/lodestone/internal/core/model"
)

func testStore() (*Store, *MockLLMClient) {
	mock := &MockLLMClient{}
	return NewStore(mock, config.WikiPrompts{Expand: "expand %s ctx %s", Parent: "place %s (%s) among %s"}), mock
}

func TestEnsureNodeIdempotent(t *testing.T) {
	s, _ := testStore()

	first := s.EnsureNode("Turbulence")
	first.Notes = "keep me"
	second := s.EnsureNode("Turbulence")

	assert.Same(t, first, second)
	assert.Equal(t, "keep me", second.Notes)
}

func TestSetEntriesPreservesNotesAndFiles(t *testing.T) {
	s, _ := testStore()
	s.UpdateNotes("Weather", "expert commentary")
	s.AddAttachment("Weather", &model.LocalFile{ID: "f1", Name: "metar.txt"})

	s.SetEntries("Weather", []model.WikiEntry{
		{Term: "Windshear", Definition: "sudden wind change"},
		{Term: "Icing", Definition: "ice accretion"},
	})

	node := s.Node("Weather")
	require.NotNil(t, node)
	assert.Len(t, node.Entries, 2)
	assert.Equal(t, "expert commentary", node.Notes)
	require.Len(t, node.Files, 1)
	assert.Equal(t, "f1", node.Files[0].ID)
}

func TestAddManualEntryFallsBackToRoot(t *testing.T) {
	s, _ := testStore()

	require.NoError(t, s.AddManualEntry("Wake Vortex", "trailing turbulence", "NoSuchParent"))

	root := s.Node(model.RootTerm)
	require.Len(t, root.Entries, 1)
	assert.Equal(t, "Wake Vortex", root.Entries[0].Term)
	assert.NotNil(t, s.Node("Wake Vortex"), "the term gets its own node record")
	parent, ok := s.Parent("Wake Vortex")
	assert.True(t, ok)
	assert.Equal(t, model.RootTerm, parent)
}

func TestAddManualEntryRejectsSecondParent(t *testing.T) {
	s, _ := testStore()
	s.EnsureNode("A")
	s.EnsureNode("B")
	require.NoError(t, s.AddManualEntry("X", "def", "A"))

	err := s.AddManualEntry("X", "def", "B")

	assert.ErrorIs(t, err, ErrDuplicateEntry)
	assert.Empty(t, s.Node("B").Entries, "store must be unchanged on rejection")
}

func TestMoveEntry(t *testing.T) {
	s, _ := testStore()
	s.EnsureNode("A")
	s.EnsureNode("B")
	require.NoError(t, s.AddManualEntry("X", "def", "A"))

	require.NoError(t, s.MoveEntry("X", "def", "A", "B"))

	assert.Empty(t, s.Node("A").Entries)
	require.Len(t, s.Node("B").Entries, 1)
	assert.Equal(t, "X", s.Node("B").Entries[0].Term)
	parent, _ := s.Parent("X")
	assert.Equal(t, "B", parent)
}

func TestMoveEntryRejectsDuplicateAtDestination(t *testing.T) {
	s, _ := testStore()
	s.EnsureNode("A")
	s.EnsureNode("B")
	s.EnsureNode("C")
	require.NoError(t, s.AddManualEntry("X", "def", "A"))
	require.NoError(t, s.MoveEntry("X", "def", "A", "B"))

	// C also holds an entry named X (set directly, as an AI expand could).
	s.SetEntries("C", []model.WikiEntry{{Term: "X", Definition: "other"}})
	err := s.MoveEntry("X", "other", "C", "B")

	assert.ErrorIs(t, err, ErrDuplicateEntry)
	require.Len(t, s.Node("B").Entries, 1, "destination unchanged")
	require.Len(t, s.Node("C").Entries, 1, "source unchanged")
}

func TestMoveEntryRejectsSameParent(t *testing.T) {
	s, _ := testStore()
	s.EnsureNode("A")
	require.NoError(t, s.AddManualEntry("X", "def", "A"))

	assert.ErrorIs(t, s.MoveEntry("X", "def", "A", "A"), ErrDuplicateEntry)
	assert.Len(t, s.Node("A").Entries, 1)
}

func TestIsBranch(t *testing.T) {
	s, _ := testStore()
	s.EnsureNode("Leaf")
	s.SetEntries("Branch", []model.WikiEntry{{Term: "Child", Definition: "d"}})

	assert.False(t, s.IsBranch("Leaf"))
	assert.False(t, s.IsBranch("Missing"))
	assert.True(t, s.IsBranch("Branch"))
}

func TestNavigationStack(t *testing.T) {
	s, _ := testStore()

	assert.Equal(t, []string{model.RootTerm}, s.Path())
	s.DrillInto("Weather")
	s.DrillInto("Icing")
	assert.Equal(t, []string{model.RootTerm, "Weather", "Icing"}, s.Path())
	assert.Equal(t, "Icing", s.Current())
	assert.NotNil(t, s.Node("Icing"), "drill-down creates the node lazily")

	s.Back()
	assert.Equal(t, "Weather", s.Current())
	s.Back()
	s.Back()
	assert.Equal(t, []string{model.RootTerm}, s.Path(), "back never pops the root")

	s.DrillInto("Weather")
	s.Home()
	assert.Equal(t, []string{model.RootTerm}, s.Path())
}

func TestSuggestParentFallbackWithFewCandidates(t *testing.T) {
	s, mock := testStore()
	s.EnsureNode("Only")

	got := s.SuggestParent(context.Background(), "New Term", "def", []string{"Only"})

	assert.Equal(t, model.RootTerm, got.Parent)
	assert.Equal(t, 0, mock.Calls, "no model call with fewer than two candidates")
}

func TestSuggestParentUsesModelAnswer(t *testing.T) {
	s, mock := testStore()
	mock.Response = `{"parent": "Weather", "rationale": "meteorological phenomenon"}`

	got := s.SuggestParent(context.Background(), "Icing", "ice accretion", []string{"Weather", "Operations"})

	assert.Equal(t, 1, mock.Calls)
	assert.Equal(t, "Weather", got.Parent)
	assert.Equal(t, "meteorological phenomenon", got.Rationale)
}

func TestSuggestParentFallbackOnModelFailure(t *testing.T) {
	s, mock := testStore()
	mock.Err = errors.New("timeout")

	got := s.SuggestParent(context.Background(), "Icing", "def", []string{"Weather", "Operations"})

	assert.Equal(t, model.RootTerm, got.Parent)
	assert.NotEmpty(t, got.Rationale)
}

func TestExpandInstallsEntries(t *testing.T) {
	s, mock := testStore()
	s.UpdateNotes("Weather", "keep")
	mock.Response = `{"entries": [{"term": "Windshear", "definition": "sudden wind change", "relatedContext": "approach phase"}]}`

	entries, err := s.Expand(context.Background(), "Weather", "analyst notes")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Windshear", entries[0].Term)
	assert.Equal(t, "keep", s.Node("Weather").Notes)
	parent, _ := s.Parent("Windshear")
	assert.Equal(t, "Weather", parent)
}

func TestReplaceRebuildsParentIndexAndResetsNavigation(t *testing.T) {
	s, _ := testStore()
	s.DrillInto("Old")

	s.Replace(map[string]*model.WikiNodeData{
		model.RootTerm: {Entries: []model.WikiEntry{{Term: "Weather", Definition: "d"}}},
		"Weather":      {Entries: []model.WikiEntry{{Term: "Icing", Definition: "d"}}},
	})

	assert.Equal(t, []string{model.RootTerm}, s.Path(), "import resets navigation")
	parent, _ := s.Parent("Icing")
	assert.Equal(t, "Weather", parent)
	assert.Nil(t, s.Node("Old"))
}
