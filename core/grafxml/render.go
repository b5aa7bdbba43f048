package grafxml

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/grafstandoff/core/encoding"
	"github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/features"
	"github.com/FocuswithJustin/grafstandoff/core/graf"
	"github.com/FocuswithJustin/grafstandoff/core/xml"
)

// RenderOptions configures Render.
type RenderOptions struct {
	// Indent pretty prints the output with this indentation. Empty writes
	// compact XML.
	Indent string
}

// Render writes g as a GrAF standoff document. Feature values are written
// as stored: the graph keeps them in markup form already. Output depends
// only on the graph's insertion order.
func Render(w io.Writer, g *graf.Graph, opts RenderOptions) error {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString(`<graph xmlns="` + NamespaceGrAF + `">`)
	renderHeader(&buf, g)

	for _, r := range g.Regions() {
		buf.WriteString(`<region xml:id="`)
		buf.WriteString(encoding.EscapeXMLAttr(r.ID))
		buf.WriteString(`" anchors="`)
		buf.WriteString(FormatAnchors(r.Start, r.End))
		buf.WriteString(`"/>`)
	}

	for n := range g.Nodes() {
		renderNode(&buf, n)
	}
	for n := range g.Nodes() {
		for _, a := range n.Annotations() {
			renderAnnotation(&buf, a)
		}
	}

	for _, e := range g.Edges() {
		buf.WriteString(`<edge xml:id="`)
		buf.WriteString(encoding.EscapeXMLAttr(e.ID))
		buf.WriteString(`" from="`)
		buf.WriteString(encoding.EscapeXMLAttr(e.From))
		buf.WriteString(`" to="`)
		buf.WriteString(encoding.EscapeXMLAttr(e.To))
		buf.WriteString(`"/>`)
	}
	buf.WriteString("</graph>")

	out := buf.Bytes()
	if opts.Indent != "" {
		formatted, err := xml.Format(out, xml.FormatOptions{Indent: opts.Indent})
		if err != nil {
			return errors.Wrap(err, "format graph")
		}
		out = formatted
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(out); err != nil {
		return errors.NewIO("write", "", err)
	}
	if err := bw.Flush(); err != nil {
		return errors.NewIO("write", "", err)
	}
	return nil
}

func renderHeader(buf *bytes.Buffer, g *graf.Graph) {
	buf.WriteString("<header>")

	type usage struct {
		label  string
		occurs int
	}
	var labels []*usage
	byLabel := make(map[string]*usage)
	spaces := append([]*graf.Space(nil), g.Header.Spaces...)
	declared := make(map[string]bool, len(spaces))
	for _, s := range spaces {
		declared[s.Name] = true
	}
	for n := range g.Nodes() {
		for _, a := range n.Annotations() {
			u, ok := byLabel[a.Label]
			if !ok {
				u = &usage{label: a.Label}
				byLabel[a.Label] = u
				labels = append(labels, u)
			}
			u.occurs++
			if a.Space != nil && !declared[a.Space.Name] {
				declared[a.Space.Name] = true
				spaces = append(spaces, a.Space)
			}
		}
	}

	if len(labels) > 0 {
		buf.WriteString("<labelsDecl>")
		for _, u := range labels {
			buf.WriteString(`<labelUsage label="`)
			buf.WriteString(encoding.EscapeXMLAttr(u.label))
			buf.WriteString(`" occurs="`)
			buf.WriteString(strconv.Itoa(u.occurs))
			buf.WriteString(`"/>`)
		}
		buf.WriteString("</labelsDecl>")
	}

	if len(g.Header.DependsOn) > 0 {
		buf.WriteString("<dependencies>")
		for _, d := range g.Header.DependsOn {
			buf.WriteString(`<dependsOn f.id="`)
			buf.WriteString(encoding.EscapeXMLAttr(d))
			buf.WriteString(`"/>`)
		}
		buf.WriteString("</dependencies>")
	}

	if len(spaces) > 0 {
		buf.WriteString("<annotationSpaces>")
		for _, s := range spaces {
			buf.WriteString(`<annotationSpace as.id="`)
			buf.WriteString(encoding.EscapeXMLAttr(s.Name))
			buf.WriteString(`" as.type="`)
			buf.WriteString(encoding.EscapeXMLAttr(s.Type))
			buf.WriteString(`"/>`)
		}
		buf.WriteString("</annotationSpaces>")
	}

	if len(g.Header.Roots) > 0 {
		buf.WriteString("<roots><root>")
		buf.WriteString(encoding.EscapeXMLText(strings.Join(g.Header.Roots, " ")))
		buf.WriteString("</root></roots>")
	}

	for _, e := range g.Header.InfoEntries() {
		buf.WriteString(`<info name="`)
		buf.WriteString(encoding.EscapeXMLAttr(e.Name))
		buf.WriteString(`" value="`)
		buf.WriteString(encoding.EscapeXMLAttr(e.Value))
		buf.WriteString(`"/>`)
	}
	buf.WriteString("</header>")
}

func renderNode(buf *bytes.Buffer, n *graf.Node) {
	buf.WriteString(`<node xml:id="`)
	buf.WriteString(encoding.EscapeXMLAttr(n.ID))
	buf.WriteString(`"`)
	if n.Region == nil && len(n.Links) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteString(">")
	if n.Region != nil {
		writeLink(buf, []*graf.Region{n.Region})
	}
	for _, l := range n.Links {
		writeLink(buf, l.Regions)
	}
	buf.WriteString("</node>")
}

func writeLink(buf *bytes.Buffer, regions []*graf.Region) {
	ids := make([]string, len(regions))
	for i, r := range regions {
		ids[i] = r.ID
	}
	buf.WriteString(`<link targets="`)
	buf.WriteString(encoding.EscapeXMLAttr(strings.Join(ids, " ")))
	buf.WriteString(`"/>`)
}

func renderAnnotation(buf *bytes.Buffer, a *graf.Annotation) {
	buf.WriteString(`<a xml:id="`)
	buf.WriteString(encoding.EscapeXMLAttr(a.ID))
	buf.WriteString(`" label="`)
	buf.WriteString(encoding.EscapeXMLAttr(a.Label))
	buf.WriteString(`" ref="`)
	buf.WriteString(encoding.EscapeXMLAttr(a.Node.ID))
	if name := a.SpaceName(); name != "" {
		buf.WriteString(`" as="`)
		buf.WriteString(encoding.EscapeXMLAttr(name))
	}
	buf.WriteString(`"`)
	if a.Features.IsEmpty() {
		buf.WriteString("/>")
		return
	}
	buf.WriteString(">")
	renderStructure(buf, a.Features)
	buf.WriteString("</a>")
}

func renderStructure(buf *bytes.Buffer, s *features.Structure) {
	buf.WriteString("<fs")
	if s.Type != "" {
		buf.WriteString(` type="`)
		buf.WriteString(encoding.EscapeXMLAttr(s.Type))
		buf.WriteString(`"`)
	}
	buf.WriteString(">")
	for _, f := range s.Features() {
		buf.WriteString(`<f name="`)
		buf.WriteString(encoding.EscapeXMLAttr(f.Name))
		if f.IsAtomic() {
			buf.WriteString(`" value="`)
			buf.WriteString(f.Value)
			buf.WriteString(`"/>`)
			continue
		}
		buf.WriteString(`">`)
		renderStructure(buf, f.Child)
		buf.WriteString("</f>")
	}
	buf.WriteString("</fs>")
}
