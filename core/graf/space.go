package graf

import "strings"

// Default annotation space settings.
const (
	DefaultSpaceName     = "xces"
	DefaultSpaceType     = "http://www.xces.org/schema/2003"
	DefaultSpaceTypeBase = "http://www.anc.org/ns/masc/1.0"
)

// Space is a named grouping of annotations.
type Space struct {
	Name string
	Type string
}

// SpaceRegistry tracks the annotation spaces of one graph by name.
type SpaceRegistry struct {
	spaces   map[string]*Space
	order    []*Space
	def      *Space
	typeBase string
}

// NewSpaceRegistry creates a registry whose default space is (name, typ).
// Unknown names resolved later get a type derived from typeBase.
func NewSpaceRegistry(name, typ, typeBase string) *SpaceRegistry {
	if name == "" {
		name = DefaultSpaceName
	}
	if typ == "" {
		typ = DefaultSpaceType
	}
	if typeBase == "" {
		typeBase = DefaultSpaceTypeBase
	}
	r := &SpaceRegistry{spaces: make(map[string]*Space), typeBase: typeBase}
	r.def = r.Register(name, typ)
	return r
}

// Default returns the space used when none is specified.
func (r *SpaceRegistry) Default() *Space {
	return r.def
}

// Lookup returns a previously registered space.
func (r *SpaceRegistry) Lookup(name string) (*Space, bool) {
	s, ok := r.spaces[name]
	return s, ok
}

// Register adds a space, or returns the existing space of that name.
func (r *SpaceRegistry) Register(name, typ string) *Space {
	if s, ok := r.spaces[name]; ok {
		return s
	}
	s := &Space{Name: name, Type: typ}
	r.spaces[name] = s
	r.order = append(r.order, s)
	return s
}

// Resolve returns the space called name, creating it under the type base
// when it has not been seen. created reports whether a new space was made.
func (r *SpaceRegistry) Resolve(name string) (s *Space, created bool) {
	if s, ok := r.spaces[name]; ok {
		return s, false
	}
	return r.Register(name, SpaceTypeFor(r.typeBase, name)), true
}

// All returns the registered spaces in registration order.
func (r *SpaceRegistry) All() []*Space {
	return r.order
}

// SpaceTypeFor derives the type URI for name: "{base}{name}" when base ends
// with "/", else "{base}/{name}".
func SpaceTypeFor(base, name string) string {
	if strings.HasSuffix(base, "/") {
		return base + name
	}
	return base + "/" + name
}
