// Package features implements nested feature structures and their flat,
// path-named form.
//
// A Structure is a tree: each Feature is either atomic (a string value) or
// holds a child Structure. Flatten names every atomic leaf by the path of
// feature names leading to it, joined with "/".
//
// A "/" inside a literal feature name makes the flattened key ambiguous;
// Unflatten always splits on it. Names are not escaped.
package features

import (
	"strings"
)

// Separator joins feature names in flattened keys.
const Separator = "/"

// Feature is one named entry of a Structure.
type Feature struct {
	Name  string
	Value string
	Child *Structure
}

// IsAtomic reports whether the feature holds a plain value.
func (f *Feature) IsAtomic() bool {
	return f.Child == nil
}

// Structure is an ordered set of named features.
type Structure struct {
	Type     string
	features []*Feature
}

// New returns an empty structure.
func New() *Structure {
	return &Structure{}
}

// Add appends an atomic feature, replacing the value of an existing
// feature of the same name.
func (s *Structure) Add(name, value string) *Feature {
	if f := s.Get(name); f != nil {
		f.Value, f.Child = value, nil
		return f
	}
	f := &Feature{Name: name, Value: value}
	s.features = append(s.features, f)
	return f
}

// AddStructure appends a nested structure under name and returns it.
func (s *Structure) AddStructure(name string) *Structure {
	if f := s.Get(name); f != nil {
		if f.Child == nil {
			f.Child, f.Value = New(), ""
		}
		return f.Child
	}
	child := New()
	s.features = append(s.features, &Feature{Name: name, Child: child})
	return child
}

// Get returns the feature named name, or nil.
func (s *Structure) Get(name string) *Feature {
	if s == nil {
		return nil
	}
	for _, f := range s.features {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Value returns the value of an atomic feature.
func (s *Structure) Value(name string) (string, bool) {
	f := s.Get(name)
	if f == nil || !f.IsAtomic() {
		return "", false
	}
	return f.Value, true
}

// Features returns the features in insertion order.
func (s *Structure) Features() []*Feature {
	if s == nil {
		return nil
	}
	return s.features
}

// Len returns the number of direct features.
func (s *Structure) Len() int {
	if s == nil {
		return 0
	}
	return len(s.features)
}

// IsEmpty reports whether the structure has no features.
func (s *Structure) IsEmpty() bool {
	return s.Len() == 0
}

// Pair is one flattened feature.
type Pair struct {
	Key   string
	Value string
}

// Flatten returns the atomic leaves of s keyed by their path below base.
// An empty base yields keys relative to s. Order follows insertion order.
func Flatten(s *Structure, base string) []Pair {
	return flattenInto(nil, s, base)
}

func flattenInto(out []Pair, s *Structure, base string) []Pair {
	for _, f := range s.Features() {
		key := join(base, f.Name)
		if f.IsAtomic() {
			out = append(out, Pair{Key: key, Value: f.Value})
			continue
		}
		out = flattenInto(out, f.Child, key)
	}
	return out
}

func join(base, name string) string {
	if base == "" {
		return name
	}
	return base + Separator + name
}

// Unflatten rebuilds a structure from path-named pairs.
func Unflatten(pairs []Pair) *Structure {
	root := New()
	for _, p := range pairs {
		parts := strings.Split(p.Key, Separator)
		s := root
		for _, name := range parts[:len(parts)-1] {
			s = s.AddStructure(name)
		}
		s.Add(parts[len(parts)-1], p.Value)
	}
	return root
}
