// Package xml provides pure Go XML parsing, XPath and formatting for the
// standoff readers and writers.
//
// Security Notes:
//   - XXE (External Entity) attacks are mitigated by using Go's xml.Decoder
//     which doesn't fetch external entities by default, and we explicitly
//     disable entity expansion in validation functions.
//   - The xmlquery library is used for parsing, which uses Go's encoding/xml
//     internally and inherits its security properties.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/grafstandoff/core/encoding"
)

// NamespaceXML is the namespace bound to the reserved "xml" prefix.
const NamespaceXML = "http://www.w3.org/XML/1998/namespace"

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML element.
type Node struct {
	node *xmlquery.Node
}

// ValidationResult contains the result of XML validation.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Line    int
	Column  int
	Message string
}

// FormatOptions controls XML formatting behavior.
type FormatOptions struct {
	Indent string // Indentation string (e.g., "  " or "\t")
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader parses XML from r.
func ParseReader(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Validate checks that data is well-formed XML.
//
// Security: entity expansion is disabled. Go's xml.Decoder does not fetch
// external entities, and no internal entities are defined either.
func Validate(data []byte) ValidationResult {
	result := ValidationResult{Valid: true}

	decoder := xml.NewDecoder(bytes.NewReader(data))

	// XXE Protection (CWE-611)
	decoder.Entity = map[string]string{}

	for {
		_, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 1
			if se, ok := err.(*xml.SyntaxError); ok {
				line = se.Line
			}
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Line:    line,
				Message: err.Error(),
			})
			break
		}
	}

	return result
}

// Format formats/pretty-prints XML data. The XML declaration is written
// only when data carries one; xmlquery synthesizes it otherwise.
func Format(data []byte, opts FormatOptions) ([]byte, error) {
	if opts.Indent == "" {
		opts.Indent = "  "
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}

	declared := bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\ufeff"), []byte("<?xml"))
	var buf bytes.Buffer
	for child := doc.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.DeclarationNode && !declared {
			continue
		}
		formatNode(&buf, child, 0, opts.Indent)
	}
	return buf.Bytes(), nil
}

// formatNode recursively formats an XML node.
func formatNode(w *bytes.Buffer, n *xmlquery.Node, depth int, indent string) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			formatNode(w, child, depth, indent)
		}

	case xmlquery.DeclarationNode:
		w.WriteString("<?xml")
		for _, attr := range n.Attr {
			writeAttr(w, attr)
		}
		w.WriteString("?>\n")

	case xmlquery.ElementNode:
		writeIndent(w, depth, indent)
		w.WriteString("<")
		writeElementName(w, n)
		for _, attr := range n.Attr {
			writeAttr(w, attr)
		}

		hasChildren := false
		hasElementChildren := false
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			switch child.Type {
			case xmlquery.ElementNode, xmlquery.CommentNode:
				hasChildren, hasElementChildren = true, true
			case xmlquery.TextNode, xmlquery.CharDataNode:
				if strings.TrimSpace(child.Data) != "" {
					hasChildren = true
				}
			}
		}

		if !hasChildren {
			w.WriteString("/>\n")
			return
		}
		w.WriteString(">")
		if hasElementChildren {
			w.WriteString("\n")
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			switch child.Type {
			case xmlquery.ElementNode, xmlquery.CommentNode:
				formatNode(w, child, depth+1, indent)
			case xmlquery.TextNode:
				text := strings.TrimSpace(child.Data)
				if text == "" {
					continue
				}
				if hasElementChildren {
					writeIndent(w, depth+1, indent)
				}
				w.WriteString(encoding.EscapeXMLText(text))
				if hasElementChildren {
					w.WriteString("\n")
				}
			case xmlquery.CharDataNode:
				w.WriteString("<![CDATA[")
				w.WriteString(child.Data)
				w.WriteString("]]>")
			}
		}

		if hasElementChildren {
			writeIndent(w, depth, indent)
		}
		w.WriteString("</")
		writeElementName(w, n)
		w.WriteString(">\n")

	case xmlquery.CommentNode:
		writeIndent(w, depth, indent)
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->\n")
	}
}

func writeElementName(w *bytes.Buffer, n *xmlquery.Node) {
	if n.Prefix != "" {
		w.WriteString(n.Prefix)
		w.WriteString(":")
	}
	w.WriteString(n.Data)
}

func writeAttr(w *bytes.Buffer, attr xmlquery.Attr) {
	w.WriteString(" ")
	w.WriteString(qualifiedName(attr.Name))
	w.WriteString("=\"")
	w.WriteString(encoding.EscapeXMLAttr(attr.Value))
	w.WriteString("\"")
}

// qualifiedName renders an attribute name with its prefix. The decoder
// may report the xml prefix by its namespace URI.
func qualifiedName(name xml.Name) string {
	switch name.Space {
	case "":
		return name.Local
	case NamespaceXML:
		return "xml:" + name.Local
	default:
		return name.Space + ":" + name.Local
	}
}

func writeIndent(w *bytes.Buffer, depth int, indent string) {
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d == nil || d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}

	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

// XPathFirst executes an XPath query and returns the first matching node,
// or nil when nothing matches.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	node, err := xmlquery.Query(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	if node == nil {
		return nil, nil
	}
	return &Node{node: node}, nil
}

// XPath evaluates expr relative to n.
func (n *Node) XPath(expr string) ([]*Node, error) {
	if n == nil || n.node == nil {
		return nil, nil
	}
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	nodes, err := xmlquery.QueryAll(n.node, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	result := make([]*Node, len(nodes))
	for i, found := range nodes {
		result[i] = &Node{node: found}
	}
	return result, nil
}

// Name returns the local element name.
func (n *Node) Name() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.Data
}

// NamespaceURI returns the element's namespace.
func (n *Node) NamespaceURI() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.NamespaceURI
}

// InnerText returns all text content of the node and its descendants.
func (n *Node) InnerText() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// Children returns the child element nodes.
func (n *Node) Children() []*Node {
	if n == nil || n.node == nil {
		return nil
	}

	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// ChildrenNamed returns the child elements with local name name.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children() {
		if c.Name() == name {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first child element named name, or nil.
func (n *Node) FirstChild(name string) *Node {
	for _, c := range n.Children() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Attributes returns all attributes of the node keyed by qualified name.
func (n *Node) Attributes() map[string]string {
	if n == nil || n.node == nil {
		return nil
	}

	attrs := make(map[string]string)
	for _, attr := range n.node.Attr {
		attrs[qualifiedName(attr.Name)] = attr.Value
	}
	return attrs
}

// Attr returns the value of an attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	v, _ := n.LookupAttr(name)
	return v
}

// LookupAttr returns the value of an attribute given by qualified name
// ("label", "xml:id").
func (n *Node) LookupAttr(name string) (string, bool) {
	if n == nil || n.node == nil {
		return "", false
	}
	for _, attr := range n.node.Attr {
		if qualifiedName(attr.Name) == name {
			return attr.Value, true
		}
	}
	return "", false
}
