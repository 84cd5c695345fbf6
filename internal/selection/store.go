package selection

import (
	"slices"
	"strings"
	"sync"
)

// State is a point-in-time copy of the selection.
type State struct {
	SelectedIDs  []string
	Selecting    bool
	MaxSelection int
}

// Store tracks the selected item ids of an admin panel. It is the only place
// the selection cap is enforced.
type Store struct {
	mu        sync.RWMutex
	order     []string
	index     map[string]struct{}
	selecting bool
	max       int
}

// NewStore constructs an empty store. Non-positive caps are clamped to one.
func NewStore(maxSelection int) *Store {
	if maxSelection <= 0 {
		maxSelection = 1
	}
	return &Store{
		index: make(map[string]struct{}),
		max:   maxSelection,
	}
}

// MaxSelection returns the configured cap.
func (s *Store) MaxSelection() int {
	return s.max
}

// Selecting reports whether selection mode is on.
func (s *Store) Selecting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selecting
}

// ToggleSelectionMode flips selection mode. Leaving the mode clears the selection.
func (s *Store) ToggleSelectionMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selecting = !s.selecting
	if !s.selecting {
		s.resetLocked()
	}
	return s.selecting
}

// SelectAll replaces the selection with ids, keeping the first MaxSelection
// distinct ids in input order. It returns the number of ids dropped by the cap.
func (s *Store) SelectAll(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()

	dropped := 0
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := s.index[id]; ok {
			continue
		}
		if len(s.order) >= s.max {
			dropped++
			continue
		}
		s.order = append(s.order, id)
		s.index[id] = struct{}{}
	}
	return dropped
}

// DeselectAll empties the selection.
func (s *Store) DeselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Toggle adds id when absent and under the cap, or removes it when present.
// It returns false only when the add was rejected because the cap is reached.
func (s *Store) Toggle(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		delete(s.index, id)
		s.order = slices.DeleteFunc(s.order, func(candidate string) bool { return candidate == id })
		return true
	}
	if len(s.order) >= s.max {
		return false
	}
	s.order = append(s.order, id)
	s.index[id] = struct{}{}
	return true
}

// Prune drops selected ids that are not in valid, preserving order. It
// returns the ids removed.
func (s *Store) Prune(valid []string) []string {
	keep := make(map[string]struct{}, len(valid))
	for _, id := range valid {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	next := s.order[:0]
	for _, id := range s.order {
		if _, ok := keep[id]; ok {
			next = append(next, id)
			continue
		}
		removed = append(removed, id)
		delete(s.index, id)
	}
	s.order = next
	return removed
}

// IsSelected reports whether id is selected.
func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Count returns the number of selected ids.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Selected returns the selected ids in selection order.
func (s *Store) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := slices.Clone(s.order)
	if ids == nil {
		ids = []string{}
	}
	return State{
		SelectedIDs:  ids,
		Selecting:    s.selecting,
		MaxSelection: s.max,
	}
}

func (s *Store) resetLocked() {
	s.order = nil
	clear(s.index)
}
