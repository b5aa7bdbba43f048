// Package spans provides the flat annotation representation: records of
// (start, end, type, features) collected in an Index.
//
// This is the host side of the conversion. Offsets are character offsets
// into the document text.
package spans

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
)

// Reserved feature keys shared by the flat and graph representations.
const (
	// FeatureSet names the annotation space a flat annotation belongs to.
	FeatureSet = "graf:set"
	// FeatureEdge is a space separated list of child node ids.
	FeatureEdge = "graf:edge"
	// FeatureID is the id of the originating graph node.
	FeatureID = "graf:id"
	// FeatureEmptyAndSpan is a host sentinel never carried into a graph.
	FeatureEmptyAndSpan = "isEmptyAndSpan"
)

// IsReserved reports whether key is one of the protocol keys.
func IsReserved(key string) bool {
	switch key {
	case FeatureSet, FeatureEdge, FeatureID, FeatureEmptyAndSpan:
		return true
	}
	return false
}

// Record is one flat annotation.
type Record struct {
	Start    int64     `json:"start"`
	End      int64     `json:"end"`
	Type     string    `json:"type"`
	Features *Features `json:"features,omitempty"`
}

// String renders the record as "type(start,end)".
func (r *Record) String() string {
	return fmt.Sprintf("%s(%d,%d)", r.Type, r.Start, r.End)
}

// Feature returns a feature value or "" when absent.
func (r *Record) Feature(key string) string {
	v, _ := r.Features.Get(key)
	return v
}

// Comparator orders records.
type Comparator func(a, b *Record) int

// StartOrder sorts by start ascending; on ties the longer (outer) record
// comes first.
func StartOrder(a, b *Record) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(b.End, a.End)
}

// EndOrder sorts by end ascending; on ties the record starting later comes
// first.
func EndOrder(a, b *Record) int {
	if c := cmp.Compare(a.End, b.End); c != 0 {
		return c
	}
	return cmp.Compare(b.Start, a.Start)
}

// Index is an ordered collection of records.
type Index struct {
	records []*Record
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Add appends a new record. A nil feature map is replaced by an empty one.
func (x *Index) Add(start, end int64, typ string, features *Features) *Record {
	if features == nil {
		features = NewFeatures()
	}
	r := &Record{Start: start, End: end, Type: typ, Features: features}
	x.records = append(x.records, r)
	return r
}

// AddRecord appends r.
func (x *Index) AddRecord(r *Record) {
	if r.Features == nil {
		r.Features = NewFeatures()
	}
	x.records = append(x.records, r)
}

// Len returns the number of records.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.records)
}

// Records returns the records in insertion order. The slice is shared.
func (x *Index) Records() []*Record {
	if x == nil {
		return nil
	}
	return x.records
}

// All iterates records in insertion order.
func (x *Index) All() iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		if x == nil {
			return
		}
		for _, r := range x.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Sorted returns a stably sorted copy of the records.
func (x *Index) Sorted(order Comparator) []*Record {
	out := slices.Clone(x.Records())
	slices.SortStableFunc(out, order)
	return out
}

// Filter returns the records whose type is in types. An empty list keeps
// every record.
func (x *Index) Filter(types ...string) *Index {
	if len(types) == 0 {
		return &Index{records: slices.Clone(x.Records())}
	}
	keep := make(map[string]bool, len(types))
	for _, t := range types {
		keep[t] = true
	}
	out := NewIndex()
	for r := range x.All() {
		if keep[r.Type] {
			out.records = append(out.records, r)
		}
	}
	return out
}

// Types returns the distinct record types, sorted.
func (x *Index) Types() []string {
	seen := make(map[string]bool)
	var out []string
	for r := range x.All() {
		if !seen[r.Type] {
			seen[r.Type] = true
			out = append(out, r.Type)
		}
	}
	slices.Sort(out)
	return out
}

// Problem describes a record that fails offset validation.
type Problem struct {
	Index   int
	Record  *Record
	Message string
}

// Validate checks offsets against a text of textLen characters.
func (x *Index) Validate(textLen int) []Problem {
	var problems []Problem
	for i, r := range x.Records() {
		switch {
		case r.Start < 0:
			problems = append(problems, Problem{i, r, fmt.Sprintf("negative start offset %d", r.Start)})
		case r.End < r.Start:
			problems = append(problems, Problem{i, r, fmt.Sprintf("end %d before start %d", r.End, r.Start)})
		case r.End > int64(textLen):
			problems = append(problems, Problem{i, r, fmt.Sprintf("end %d beyond end of content %d", r.End, textLen)})
		}
	}
	return problems
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
