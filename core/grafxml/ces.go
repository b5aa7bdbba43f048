package grafxml

import (
	"bufio"
	"io"
	"strconv"

	"github.com/FocuswithJustin/grafstandoff/core/convert"
	"github.com/FocuswithJustin/grafstandoff/core/encoding"
	"github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/spans"
	"github.com/FocuswithJustin/grafstandoff/core/xml"
)

// Defaults for the XCES cesAna format.
const (
	DefaultCESNamespace = "http://www.xces.org/schema/2003"
	DefaultCESVersion   = "1.0.4"
	DefaultCESEncoding  = "UTF-8"
)

// CESOptions configures WriteCES.
type CESOptions struct {
	Namespace      string
	Version        string
	SchemaLocation string
	Encoding       string

	// Types selects record types to write. Empty writes all.
	Types []string
}

const cesIndent = "   "

// WriteCES writes idx as an XCES cesAna document: one struct element per
// record, sorted by start offset, with its features as feat children. The
// isEmptyAndSpan sentinel is never written. An empty selection is an error.
func WriteCES(w io.Writer, idx *spans.Index, opts CESOptions) error {
	if opts.Namespace == "" {
		opts.Namespace = DefaultCESNamespace
	}
	if opts.Version == "" {
		opts.Version = DefaultCESVersion
	}
	if opts.Encoding == "" {
		opts.Encoding = DefaultCESEncoding
	}

	records := idx.Filter(opts.Types...).Sorted(spans.StartOrder)
	if len(records) == 0 {
		return errors.NewNotFound("standoff annotations", "")
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(`<?xml version="1.0" encoding="` + encoding.EscapeXMLAttr(opts.Encoding) + `"?>` + "\n")
	bw.WriteString(`<cesAna xmlns="` + encoding.EscapeXMLAttr(opts.Namespace) + `" version="` + encoding.EscapeXMLAttr(opts.Version) + `"`)
	if opts.SchemaLocation != "" {
		bw.WriteString(` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`)
		bw.WriteString(` xsi:schemaLocation="` + encoding.EscapeXMLAttr(opts.Namespace+" "+opts.SchemaLocation) + `"`)
	}
	bw.WriteString(">\n")

	for _, r := range records {
		bw.WriteString(cesIndent + `<struct type="` + encoding.EscapeXMLAttr(r.Type) +
			`" from="` + strconv.FormatInt(r.Start, 10) +
			`" to="` + strconv.FormatInt(r.End, 10) + `"`)

		var feats int
		for key, value := range r.Features.All() {
			if key == spans.FeatureEmptyAndSpan {
				continue
			}
			if feats == 0 {
				bw.WriteString(">\n")
			}
			feats++
			bw.WriteString(cesIndent + cesIndent + `<feat name="` + encoding.EscapeXMLAttr(key) +
				`" value="` + encoding.EscapeXMLAttr(value) + `"/>` + "\n")
		}
		if feats == 0 {
			bw.WriteString("/>\n")
		} else {
			bw.WriteString(cesIndent + "</struct>\n")
		}
	}
	bw.WriteString("</cesAna>\n")

	if err := bw.Flush(); err != nil {
		return errors.NewIO("write", "", err)
	}
	return nil
}

// ReadCES reads a cesAna document. Structs with malformed or out of order
// offsets are skipped with a diagnostic.
func ReadCES(r io.Reader, path string) (*spans.Index, convert.Diagnostics, error) {
	doc, err := xml.ParseReader(r)
	if err != nil {
		return nil, nil, &errors.ParseError{Format: "cesAna", Path: path, Message: "malformed XML", Err: err}
	}
	root := doc.Root()
	if root == nil || root.Name() != "cesAna" {
		return nil, nil, errors.NewParse("cesAna", path, "root element is not cesAna")
	}

	structs, err := root.XPath("//struct")
	if err != nil {
		return nil, nil, errors.Wrap(err, "query structs")
	}

	idx := spans.NewIndex()
	var diags convert.Diagnostics
	for i, s := range structs {
		subject := path + "#struct[" + strconv.Itoa(i+1) + "]"
		start, errStart := strconv.ParseInt(s.Attr("from"), 10, 64)
		end, errEnd := strconv.ParseInt(s.Attr("to"), 10, 64)
		if errStart != nil || errEnd != nil {
			diags.Add(convert.Invalid, subject, "malformed offsets from=%q to=%q", s.Attr("from"), s.Attr("to"))
			continue
		}
		if start < 0 || end < start {
			diags.Add(convert.Invalid, subject, "offsets (%d,%d) out of order", start, end)
			continue
		}

		fm := spans.NewFeatures()
		for _, f := range s.ChildrenNamed("feat") {
			name := f.Attr("name")
			if name == "" {
				diags.Add(convert.Invalid, subject, "feat without name ignored")
				continue
			}
			fm.Set(name, f.Attr("value"))
		}
		idx.Add(start, end, s.Attr("type"), fm)
	}
	return idx, diags, nil
}
