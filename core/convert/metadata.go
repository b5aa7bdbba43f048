package convert

import (
	"slices"
	"strings"

	"github.com/FocuswithJustin/grafstandoff/core/graf"
	"github.com/FocuswithJustin/grafstandoff/core/spans"
)

// Document metadata keys filled from a graph header.
const (
	MetaAnnotationSpaces = "graf:annotationSpaces"
	MetaDependsOn        = "graf:dependsOn"
	MetaRoots            = "graf:roots"
)

// HeaderMetadata returns the header's spaces, dependencies and roots as
// space separated document metadata. Empty lists are left out.
func HeaderMetadata(h *graf.Header) *spans.Features {
	meta := spans.NewFeatures()
	if h == nil {
		return meta
	}
	names := make([]string, 0, len(h.Spaces))
	for _, s := range h.Spaces {
		names = append(names, s.Name)
	}
	set := func(key string, values []string) {
		if len(values) > 0 {
			meta.Set(key, strings.Join(values, " "))
		}
	}
	set(MetaAnnotationSpaces, names)
	set(MetaDependsOn, h.DependsOn)
	set(MetaRoots, h.Roots)
	return meta
}

// MergeMetadata copies every entry of src into dst, appending to space
// separated lists already present under the same key.
func MergeMetadata(dst, src *spans.Features) {
	for k, v := range src.All() {
		old, ok := dst.Get(k)
		if !ok || old == "" {
			dst.Set(k, v)
			continue
		}
		existing := strings.Fields(old)
		for _, item := range strings.Fields(v) {
			if !slices.Contains(existing, item) {
				existing = append(existing, item)
			}
		}
		dst.Set(k, strings.Join(existing, " "))
	}
}

// ApplyMetadata is the reverse of HeaderMetadata: it declares the spaces,
// dependencies and roots listed in meta in the header of g.
func ApplyMetadata(g *graf.Graph, meta *spans.Features) {
	if v, ok := meta.Get(MetaAnnotationSpaces); ok {
		for _, name := range strings.Fields(v) {
			s, _ := g.Spaces().Resolve(name)
			g.Header.AddSpace(s)
		}
	}
	if v, ok := meta.Get(MetaDependsOn); ok {
		for _, typ := range strings.Fields(v) {
			g.Header.AddDependency(typ)
		}
	}
	if v, ok := meta.Get(MetaRoots); ok {
		for _, id := range strings.Fields(v) {
			g.Header.AddRoot(id)
		}
	}
}
