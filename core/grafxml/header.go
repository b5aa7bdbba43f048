package grafxml

import (
	"io"

	"github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/graf"
	"github.com/FocuswithJustin/grafstandoff/core/xml"
)

// ResourceHeader is the corpus-wide header declaring annotation spaces.
type ResourceHeader struct {
	Spaces []*graf.Space
}

// ParseResourceHeader reads the annotation spaces of a resource header
// (resourceDesc/annotationSpaces/annotationSpace).
func ParseResourceHeader(r io.Reader, path string) (*ResourceHeader, error) {
	doc, err := xml.ParseReader(r)
	if err != nil {
		return nil, &errors.ParseError{Format: "resource header", Path: path, Message: "malformed XML", Err: err}
	}
	if doc.Root() == nil {
		return nil, errors.NewParse("resource header", path, "document has no root element")
	}
	nodes, err := doc.XPath("//annotationSpaces/annotationSpace")
	if err != nil {
		return nil, errors.Wrap(err, "query annotation spaces")
	}
	h := &ResourceHeader{}
	for _, n := range nodes {
		name := n.Attr("as.id")
		if name == "" {
			continue
		}
		h.Spaces = append(h.Spaces, &graf.Space{Name: name, Type: n.Attr("as.type")})
	}
	return h, nil
}

// Apply registers the header's spaces in reg. Spaces without a type get
// one derived from base.
func (h *ResourceHeader) Apply(reg *graf.SpaceRegistry, base string) {
	if h == nil {
		return
	}
	if base == "" {
		base = graf.DefaultSpaceTypeBase
	}
	for _, s := range h.Spaces {
		typ := s.Type
		if typ == "" {
			typ = graf.SpaceTypeFor(base, s.Name)
		}
		reg.Register(s.Name, typ)
	}
}

// Location ties an annotation type to its standoff file.
type Location struct {
	Type     string
	Location string
}

// DocumentHeader locates the primary text and the standoff files of one
// document. Locations are relative to the header's directory.
type DocumentHeader struct {
	ContentLocation string
	Annotations     []Location
}

// ParseDocumentHeader reads a documentHeader: primaryData@loc and
// annotations/annotation@f.id,@loc.
func ParseDocumentHeader(r io.Reader, path string) (*DocumentHeader, error) {
	doc, err := xml.ParseReader(r)
	if err != nil {
		return nil, &errors.ParseError{Format: "document header", Path: path, Message: "malformed XML", Err: err}
	}
	root := doc.Root()
	if root == nil || root.Name() != "documentHeader" {
		return nil, errors.NewParse("document header", path, "root element is not documentHeader")
	}

	h := &DocumentHeader{}
	if primary, err := doc.XPathFirst("//primaryData"); err != nil {
		return nil, errors.Wrap(err, "query primary data")
	} else if primary != nil {
		h.ContentLocation = primary.Attr("loc")
	}

	annotations, err := doc.XPath("//annotations/annotation")
	if err != nil {
		return nil, errors.Wrap(err, "query annotations")
	}
	for _, a := range annotations {
		typ, loc := a.Attr("f.id"), a.Attr("loc")
		if typ == "" || loc == "" {
			continue
		}
		h.Annotations = append(h.Annotations, Location{Type: typ, Location: loc})
	}
	return h, nil
}

// Location returns the standoff file for typ.
func (h *DocumentHeader) Location(typ string) (string, bool) {
	for _, l := range h.Annotations {
		if l.Type == typ {
			return l.Location, true
		}
	}
	return "", false
}

// Types returns the annotation types in header order.
func (h *DocumentHeader) Types() []string {
	types := make([]string, len(h.Annotations))
	for i, l := range h.Annotations {
		types[i] = l.Type
	}
	return types
}

// Dependencies returns the annotation types a standoff file declares in
// header/dependencies/dependsOn, without parsing the rest of the graph.
func Dependencies(r io.Reader, path string) ([]string, error) {
	doc, err := xml.ParseReader(r)
	if err != nil {
		return nil, &errors.ParseError{Format: "GrAF", Path: path, Message: "malformed XML", Err: err}
	}
	root := doc.Root()
	if root == nil || root.Name() != "graph" {
		return nil, errors.NewParse("GrAF", path, "root element is not graph")
	}
	var deps []string
	if h := root.FirstChild("header"); h != nil {
		for _, d := range h.ChildrenNamed("dependencies") {
			for _, on := range d.ChildrenNamed("dependsOn") {
				if typ := on.Attr("f.id"); typ != "" {
					deps = append(deps, typ)
				}
			}
		}
	}
	return deps, nil
}
