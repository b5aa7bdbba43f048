package convert

// SeenSet remembers which graph annotations were already turned into flat
// records for a document, so overlapping standoff files do not duplicate
// them. One set belongs to one document.
type SeenSet struct {
	ids map[string]bool
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]bool)}
}

// Add records id and reports whether it was new.
func (s *SeenSet) Add(id string) bool {
	if s.ids[id] {
		return false
	}
	s.ids[id] = true
	return true
}

// Has reports whether id was recorded.
func (s *SeenSet) Has(id string) bool {
	return s.ids[id]
}

// Len returns the number of recorded ids.
func (s *SeenSet) Len() int {
	return len(s.ids)
}
