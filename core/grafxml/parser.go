// Package grafxml reads and writes the GrAF XML standoff format, the
// resource and document headers that locate standoff files, and the older
// XCES cesAna standoff format.
package grafxml

import (
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/grafstandoff/core/convert"
	"github.com/FocuswithJustin/grafstandoff/core/encoding"
	"github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/features"
	"github.com/FocuswithJustin/grafstandoff/core/graf"
	"github.com/FocuswithJustin/grafstandoff/core/text"
	"github.com/FocuswithJustin/grafstandoff/core/xml"
)

// NamespaceGrAF is the namespace of standoff graph documents.
const NamespaceGrAF = "http://www.xces.org/ns/GrAF/1.0/"

// ParseOptions configures Parse.
type ParseOptions struct {
	// Path names the source in errors and diagnostics.
	Path string

	// Graph receives the parsed content. Standoff files of one document
	// are parsed into the same graph so references to regions and nodes
	// of dependencies resolve. A new graph is created when nil.
	Graph *graf.Graph
}

// Result is the outcome of parsing one standoff file.
type Result struct {
	Graph *graf.Graph

	// Header is the header of this file alone.
	Header *graf.Header

	// Annotations lists the annotations added by this file.
	Annotations []*graf.Annotation

	Diagnostics convert.Diagnostics
}

// VerifyText checks the file's graf:textDigest entry against content. A
// file without the entry always verifies.
func (r *Result) VerifyText(content *text.Buffer) error {
	d, ok := r.Header.Info(graf.InfoTextDigest)
	if !ok || content.VerifyDigest(d) {
		return nil
	}
	return errors.NewValidation(graf.InfoTextDigest, fmt.Sprintf("annotations were made over another text (digest %s)", d))
}

type parser struct {
	path  string
	g     *graf.Graph
	res   *Result
	diags *convert.Diagnostics
}

// Parse reads a GrAF standoff document. Unreadable or malformed XML, a root
// element other than graph, and id collisions are structural errors. Bad
// regions, links and references are skipped with a diagnostic.
func Parse(r io.Reader, opts ParseOptions) (*Result, error) {
	doc, err := xml.ParseReader(r)
	if err != nil {
		return nil, &errors.ParseError{Format: "GrAF", Path: opts.Path, Message: "malformed XML", Err: err}
	}
	root := doc.Root()
	if root == nil || root.Name() != "graph" {
		return nil, errors.NewParse("GrAF", opts.Path, fmt.Sprintf("root element is %q, want graph", root.Name()))
	}

	g := opts.Graph
	if g == nil {
		g = graf.New()
	}
	res := &Result{Graph: g, Header: &graf.Header{}}
	p := &parser{path: opts.Path, g: g, res: res, diags: &res.Diagnostics}

	if h := root.FirstChild("header"); h != nil {
		p.header(h)
	}
	steps := []struct {
		name string
		fn   func(*xml.Node) error
	}{
		{"region", p.region},
		{"node", p.node},
		{"a", p.annotation},
		{"edge", p.edge},
	}
	for _, step := range steps {
		elems, err := root.XPath(step.name)
		if err != nil {
			return nil, errors.Wrapf(err, "query %s", step.name)
		}
		for _, el := range elems {
			if err := step.fn(el); err != nil {
				return nil, &errors.ParseError{Format: "GrAF", Path: opts.Path, Message: err.Error(), Err: err}
			}
		}
	}
	return res, nil
}

func (p *parser) subject(id string) string {
	if p.path == "" {
		return id
	}
	return p.path + "#" + id
}

func (p *parser) header(h *xml.Node) {
	for _, deps := range h.ChildrenNamed("dependencies") {
		for _, d := range deps.ChildrenNamed("dependsOn") {
			if typ := d.Attr("f.id"); typ != "" {
				p.res.Header.AddDependency(typ)
				p.g.Header.AddDependency(typ)
			}
		}
	}
	for _, spaces := range h.ChildrenNamed("annotationSpaces") {
		for _, s := range spaces.ChildrenNamed("annotationSpace") {
			name := s.Attr("as.id")
			if name == "" {
				p.diags.Add(convert.Invalid, p.subject("annotationSpace"), "space without as.id ignored")
				continue
			}
			typ := s.Attr("as.type")
			if typ == "" {
				typ = graf.SpaceTypeFor(graf.DefaultSpaceTypeBase, name)
			}
			space := p.g.Spaces().Register(name, typ)
			p.res.Header.AddSpace(space)
			p.g.Header.AddSpace(space)
		}
	}
	for _, roots := range h.ChildrenNamed("roots") {
		for _, r := range roots.ChildrenNamed("root") {
			for _, id := range strings.Fields(r.InnerText()) {
				p.res.Header.AddRoot(id)
				p.g.Header.AddRoot(id)
			}
		}
	}
	for _, info := range h.ChildrenNamed("info") {
		if name := info.Attr("name"); name != "" {
			p.res.Header.SetInfo(name, info.Attr("value"))
			p.g.Header.SetInfo(name, info.Attr("value"))
		}
	}
}

func (p *parser) region(el *xml.Node) error {
	id := el.Attr("xml:id")
	if id == "" {
		p.diags.Add(convert.Invalid, p.subject("region"), "region without xml:id ignored")
		return nil
	}
	start, end, err := ParseAnchors(el.Attr("anchors"))
	if err != nil {
		p.diags.Add(convert.Invalid, p.subject(id), "malformed anchors %q", el.Attr("anchors"))
		return nil
	}
	if start > end || start < 0 {
		p.diags.Add(convert.Invalid, p.subject(id), "anchors (%d,%d) out of order", start, end)
		return nil
	}
	_, err = p.g.AddRegion(id, start, end)
	return err
}

func (p *parser) node(el *xml.Node) error {
	id := el.Attr("xml:id")
	if id == "" {
		p.diags.Add(convert.Invalid, p.subject("node"), "node without xml:id ignored")
		return nil
	}
	n, err := p.g.AddNode(id)
	if err != nil {
		return err
	}

	var links [][]*graf.Region
	for _, link := range el.ChildrenNamed("link") {
		var regions []*graf.Region
		for _, target := range strings.Fields(link.Attr("targets")) {
			r, ok := p.g.RegionByID(target)
			if !ok {
				p.diags.Add(convert.Unresolved, p.subject(id), "link to unknown region %s", target)
				continue
			}
			regions = append(regions, r)
		}
		if len(regions) > 0 {
			links = append(links, regions)
		}
	}

	if len(links) == 1 && len(links[0]) == 1 {
		p.g.AttachRegion(n, links[0][0])
		return nil
	}
	for _, regions := range links {
		p.g.AddLink(n, regions...)
	}
	return nil
}

func (p *parser) annotation(el *xml.Node) error {
	id := el.Attr("xml:id")
	ref := el.Attr("ref")
	n, ok := p.g.Node(ref)
	if !ok {
		p.diags.Add(convert.Unresolved, p.subject(orDefault(id, "a")), "annotation refers to unknown node %q", ref)
		return nil
	}

	var space *graf.Space
	if name := el.Attr("as"); name != "" {
		var created bool
		space, created = p.g.Spaces().Resolve(name)
		if created {
			p.diags.Add(convert.Unresolved, p.subject(orDefault(id, "a")), "space %s not declared", name)
		}
		p.g.Header.AddSpace(space)
	}

	fs := features.New()
	if fsEl := el.FirstChild("fs"); fsEl != nil {
		p.structure(fsEl, fs)
	}
	a, err := p.g.AddAnnotationWithID(id, n, el.Attr("label"), space, fs)
	if err != nil {
		return err
	}
	if space == nil {
		// No as attribute: the flattener names the set.
		a.Space = nil
	}
	p.res.Annotations = append(p.res.Annotations, a)
	return nil
}

// structure copies an fs element into s. Values are re-encoded so the graph
// keeps them in markup form.
func (p *parser) structure(el *xml.Node, s *features.Structure) {
	s.Type = el.Attr("type")
	for _, f := range el.ChildrenNamed("f") {
		name := f.Attr("name")
		if name == "" {
			p.diags.Add(convert.Invalid, p.subject("f"), "feature without name ignored")
			continue
		}
		if child := f.FirstChild("fs"); child != nil {
			p.structure(child, s.AddStructure(name))
			continue
		}
		value, ok := f.LookupAttr("value")
		if !ok {
			value = strings.TrimSpace(f.InnerText())
		}
		s.Add(name, encoding.EscapeXMLAttr(value))
	}
}

func (p *parser) edge(el *xml.Node) error {
	from, to := el.Attr("from"), el.Attr("to")
	if from == "" || to == "" {
		p.diags.Add(convert.Invalid, p.subject(orDefault(el.Attr("xml:id"), "edge")), "edge without from or to ignored")
		return nil
	}
	e, err := p.g.AddEdgeWithID(el.Attr("xml:id"), from, to)
	if err != nil {
		return err
	}
	for _, end := range []string{e.From, e.To} {
		if !p.g.HasNode(end) {
			p.diags.Add(convert.Unresolved, p.subject(e.ID), "edge endpoint %s not defined", end)
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
