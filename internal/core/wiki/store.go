// Package wiki holds the in-memory knowledge graph: a forest of named nodes
// rooted at the ROOT sentinel, with drill-down navigation and AI-assisted
// reorganization.
package wiki

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/lodestone-ai/lodestone/internal/config"
	"github.com/lodestone-ai/lodestone/internal/core/common"
	"github.com/lodestone-ai/lodestone/internal/core/model"
	"github.com/lodestone-ai/lodestone/internal/llm"
)

// Store maps node names to node content and tracks the navigation path. The
// parent index is a non-owning back-reference kept alongside the entry lists
// so duplicate and move validation is O(1) instead of a scan over all nodes.
type Store struct {
	llm     llm.Client
	prompts config.WikiPrompts

	nodes   map[string]*model.WikiNodeData
	parents map[string]string
	path    []string
}

func NewStore(client llm.Client, prompts config.WikiPrompts) *Store {
	return &Store{
		llm:     client,
		prompts: prompts,
		nodes:   map[string]*model.WikiNodeData{model.RootTerm: newNode()},
		parents: map[string]string{},
		path:    []string{model.RootTerm},
	}
}

func newNode() *model.WikiNodeData {
	return &model.WikiNodeData{Entries: []model.WikiEntry{}}
}

// EnsureNode creates an empty placeholder record for term if none exists.
// Idempotent; used on drill-down into a not-yet-expanded term.
func (s *Store) EnsureNode(term string) *model.WikiNodeData {
	if node, ok := s.nodes[term]; ok {
		return node
	}
	node := newNode()
	s.nodes[term] = node
	return node
}

// Node returns the record for term, or nil if the store has never seen it.
func (s *Store) Node(term string) *model.WikiNodeData {
	return s.nodes[term]
}

// Nodes exposes the full graph map for snapshots.
func (s *Store) Nodes() map[string]*model.WikiNodeData {
	return s.nodes
}

// SetEntries replaces a node's child-entry list wholesale with the result of
// an AI expand call, preserving its notes and attachments. The parent index
// follows the new list.
func (s *Store) SetEntries(term string, entries []model.WikiEntry) {
	node := s.EnsureNode(term)
	for _, old := range node.Entries {
		if s.parents[old.Term] == term {
			delete(s.parents, old.Term)
		}
	}
	node.Entries = entries
	for _, e := range entries {
		if _, claimed := s.parents[e.Term]; !claimed {
			s.parents[e.Term] = term
		}
	}
}

// UpdateNotes replaces a node's expert notes.
func (s *Store) UpdateNotes(term string, text string) {
	s.EnsureNode(term).Notes = text
}

// AddAttachment attaches a document to a node.
func (s *Store) AddAttachment(term string, file *model.LocalFile) {
	node := s.EnsureNode(term)
	node.Files = append(node.Files, file)
}

// RemoveAttachment detaches a document by id. Unknown ids are a no-op.
func (s *Store) RemoveAttachment(term string, fileID string) {
	node := s.nodes[term]
	if node == nil {
		return
	}
	kept := node.Files[:0]
	for _, f := range node.Files {
		if f.ID != fileID {
			kept = append(kept, f)
		}
	}
	node.Files = kept
}

// ErrDuplicateEntry signals that a term is already listed under a parent.
// Duplicate insertions are expected user-interaction races, rejected quietly.
var ErrDuplicateEntry = fmt.Errorf("term already listed under a parent")

// AddManualEntry appends a child entry under parentTerm, falling back to ROOT
// when the parent is unknown, and ensures a node record exists for the term
// itself. Rejected if the term is already listed under any parent, keeping
// the single-parent forest invariant.
func (s *Store) AddManualEntry(term, definition, parentTerm string) error {
	if _, ok := s.nodes[parentTerm]; !ok {
		parentTerm = model.RootTerm
	}
	if _, claimed := s.parents[term]; claimed {
		return ErrDuplicateEntry
	}

	parent := s.EnsureNode(parentTerm)
	parent.Entries = append(parent.Entries, model.WikiEntry{Term: term, Definition: definition})
	s.parents[term] = parentTerm
	s.EnsureNode(term)
	return nil
}

// MoveEntry atomically relocates the entry named term from one parent's list
// to another's. No-op rejection when source and destination are the same or
// when the destination already lists a same-named entry.
func (s *Store) MoveEntry(term, definition, fromParent, toParent string) error {
	if fromParent == toParent {
		return ErrDuplicateEntry
	}
	from := s.nodes[fromParent]
	to := s.nodes[toParent]
	if from == nil || to == nil {
		return fmt.Errorf("unknown parent node")
	}
	for _, e := range to.Entries {
		if e.Term == term {
			return ErrDuplicateEntry
		}
	}

	moved := model.WikiEntry{Term: term, Definition: definition}
	found := false
	kept := from.Entries[:0]
	for _, e := range from.Entries {
		if !found && e.Term == term {
			moved = e
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("entry %q not found under %q", term, fromParent)
	}
	from.Entries = kept
	to.Entries = append(to.Entries, moved)
	s.parents[term] = toParent
	return nil
}

// IsBranch reports whether a node has child entries. Computed, not stored, so
// it can never go stale.
func (s *Store) IsBranch(term string) bool {
	node := s.nodes[term]
	return node != nil && len(node.Entries) > 0
}

// Parent returns the recorded parent of term, if it is listed anywhere.
func (s *Store) Parent(term string) (string, bool) {
	p, ok := s.parents[term]
	return p, ok
}

// NodeNames lists every named node, sorted, excluding ROOT.
func (s *Store) NodeNames() []string {
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		if name != model.RootTerm {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Replace swaps in an imported graph map wholesale, rebuilds the parent
// index from the entry lists (first listing wins, matching the forest
// invariant), and resets navigation to ROOT.
func (s *Store) Replace(nodes map[string]*model.WikiNodeData) {
	if nodes == nil {
		nodes = map[string]*model.WikiNodeData{}
	}
	if _, ok := nodes[model.RootTerm]; !ok {
		nodes[model.RootTerm] = newNode()
	}
	s.nodes = nodes
	s.parents = map[string]string{}
	for name, node := range nodes {
		for _, e := range node.Entries {
			if _, claimed := s.parents[e.Term]; !claimed {
				s.parents[e.Term] = name
			}
		}
	}
	s.Home()
}

// SuggestParent asks the model to place a term among candidate node names.
// With fewer than two candidates there is nothing to rank against, and on any
// model failure the answer degrades to ROOT: the caller always gets a usable
// placement.
func (s *Store) SuggestParent(ctx context.Context, term, definition string, candidates []string) model.ParentSuggestion {
	fallback := model.ParentSuggestion{
		Parent:    model.RootTerm,
		Rationale: "Placed at the top level.",
	}
	if len(candidates) < 2 {
		return fallback
	}

	prompt := fmt.Sprintf(s.prompts.Parent, term, definition, strings.Join(candidates, "\n- "))
	result, err := s.llm.Generate(ctx, []llm.Part{llm.TextPart(prompt)}, llm.GenerateOptions{
		ResponseSchema: &llm.Schema{
			Type: llm.TypeObject,
			Properties: map[string]*llm.Schema{
				"parent":    {Type: llm.TypeString, Description: "One of the candidate node names, or ROOT"},
				"rationale": {Type: llm.TypeString},
			},
			Required: []string{"parent", "rationale"},
		},
	})
	if err != nil || result.Text == "" {
		log.Printf("parent suggestion for %q failed: %v", term, err)
		return fallback
	}

	decoded := common.Decode[model.ParentSuggestion](result.Text)
	if !decoded.Ok || decoded.Value.Parent == "" {
		return fallback
	}
	return decoded.Value
}

// Expand asks the model for a child-entry list on term and installs it,
// preserving notes and attachments.
func (s *Store) Expand(ctx context.Context, term string, contextNotes string) ([]model.WikiEntry, error) {
	prompt := fmt.Sprintf(s.prompts.Expand, term, contextNotes)
	result, err := s.llm.Generate(ctx, []llm.Part{llm.TextPart(prompt)}, llm.GenerateOptions{
		ResponseSchema: &llm.Schema{
			Type: llm.TypeObject,
			Properties: map[string]*llm.Schema{
				"entries": {
					Type: llm.TypeArray,
					Items: &llm.Schema{
						Type: llm.TypeObject,
						Properties: map[string]*llm.Schema{
							"term":           {Type: llm.TypeString},
							"definition":     {Type: llm.TypeString},
							"relatedContext": {Type: llm.TypeString},
						},
						Required: []string{"term", "definition"},
					},
				},
			},
			Required: []string{"entries"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expand %q: %w", term, err)
	}
	decoded := common.Decode[model.WikiExpansion](result.Text)
	if !decoded.Ok {
		return nil, fmt.Errorf("expand returned malformed JSON for %q", term)
	}

	s.SetEntries(term, decoded.Value.Entries)
	return decoded.Value.Entries, nil
}
