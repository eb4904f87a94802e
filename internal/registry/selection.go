package registry

import "slices"

// Selection is an ordered set of selected key identifiers.
type Selection struct {
	ids []string
	set map[string]struct{}
}

// NewSelection returns a selection containing ids, ignoring duplicates.
func NewSelection(ids ...string) *Selection {
	s := &Selection{set: make(map[string]struct{})}
	s.Set(ids)
	return s
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.set[id]
	return ok
}

// Len returns the number of selected identifiers.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected identifiers in the order they were selected.
func (s *Selection) IDs() []string {
	return slices.Clone(s.ids)
}

// Set replaces the whole selection.
func (s *Selection) Set(ids []string) {
	s.ids = s.ids[:0]
	clear(s.set)
	for _, id := range ids {
		s.add(id)
	}
}

// Toggle flips id and returns its new state.
func (s *Selection) Toggle(id string) bool {
	if s.Has(id) {
		s.remove(id)
		return false
	}
	s.add(id)
	return true
}

// Retain drops every identifier for which keep returns false.
func (s *Selection) Retain(keep func(id string) bool) {
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool {
		if keep(id) {
			return false
		}
		delete(s.set, id)
		return true
	})
}

func (s *Selection) add(id string) {
	if id == "" || s.Has(id) {
		return
	}
	s.set[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *Selection) remove(id string) {
	delete(s.set, id)
	s.ids = slices.DeleteFunc(s.ids, func(v string) bool { return v == id })
}
