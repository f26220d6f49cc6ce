package wiki

import "github.com/lodestone-ai/lodestone/internal/core/model"

// Navigation is a simple stack of node names from ROOT to the node currently
// in view.

// DrillInto pushes term onto the path, creating an empty node if this is the
// first visit.
func (s *Store) DrillInto(term string) {
	s.EnsureNode(term)
	s.path = append(s.path, term)
}

// Back pops one level unless already at the root.
func (s *Store) Back() {
	if len(s.path) > 1 {
		s.path = s.path[:len(s.path)-1]
	}
}

// Home resets the path to [ROOT].
func (s *Store) Home() {
	s.path = []string{model.RootTerm}
}

// Path returns a copy of the current navigation path.
func (s *Store) Path() []string {
	out := make([]string, len(s.path))
	copy(out, s.path)
	return out
}

// Current is the name of the node in view.
func (s *Store) Current() string {
	return s.path[len(s.path)-1]
}
