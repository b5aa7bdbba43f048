package graf

// Header describes a standoff graph: the spaces it declares, the annotation
// types it depends on, its root nodes, and free-form info entries.
type Header struct {
	Spaces    []*Space
	DependsOn []string
	Roots     []string
	info      []InfoEntry
}

// InfoEntry is one named header value.
type InfoEntry struct {
	Name  string
	Value string
}

// Well known info entries.
const (
	// InfoTextDigest records the BLAKE3 digest of the primary text.
	InfoTextDigest = "graf:textDigest"
)

// SetInfo stores value under name, replacing an existing entry.
func (h *Header) SetInfo(name, value string) {
	for i := range h.info {
		if h.info[i].Name == name {
			h.info[i].Value = value
			return
		}
	}
	h.info = append(h.info, InfoEntry{Name: name, Value: value})
}

// Info returns the value stored under name.
func (h *Header) Info(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	for _, e := range h.info {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// InfoEntries returns all info entries in insertion order.
func (h *Header) InfoEntries() []InfoEntry {
	if h == nil {
		return nil
	}
	return h.info
}

// AddDependency records an annotation type this graph depends on.
func (h *Header) AddDependency(typ string) {
	for _, d := range h.DependsOn {
		if d == typ {
			return
		}
	}
	h.DependsOn = append(h.DependsOn, typ)
}

// AddRoot records a root node id.
func (h *Header) AddRoot(id string) {
	for _, r := range h.Roots {
		if r == id {
			return
		}
	}
	h.Roots = append(h.Roots, id)
}

// AddSpace declares a space in the header once.
func (h *Header) AddSpace(s *Space) {
	for _, existing := range h.Spaces {
		if existing.Name == s.Name {
			return
		}
	}
	h.Spaces = append(h.Spaces, s)
}
