package model

// RootTerm is the sentinel name of the wiki forest root.
const RootTerm = "ROOT"

// WikiEntry is a child reference inside a parent node's entry list. It names a
// child node and is distinct from the child node's own record.
type WikiEntry struct {
	Term           string `json:"term"`
	Definition     string `json:"definition"`
	RelatedContext string `json:"relatedContext,omitempty"`
}

// WikiNodeData is one named node in the knowledge graph: its child entries,
// free-form expert notes (markdown) and attached documents.
type WikiNodeData struct {
	Entries []WikiEntry  `json:"entries"`
	Notes   string       `json:"notes,omitempty"`
	Files   []*LocalFile `json:"files,omitempty"`
}

// ParentSuggestion is the model's answer to "where does this term belong".
type ParentSuggestion struct {
	Parent    string `json:"parent"`
	Rationale string `json:"rationale"`
}

// WikiExpansion is the structured result of an AI "expand" call on a term.
type WikiExpansion struct {
	Entries []WikiEntry `json:"entries"`
}
