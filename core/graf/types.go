package graf

import (
	"fmt"

	"github.com/FocuswithJustin/grafstandoff/core/features"
)

// Region is a span of text between two character anchors.
type Region struct {
	ID    string
	Start int64
	End   int64
}

// String renders the region as "id(start,end)".
func (r *Region) String() string {
	return fmt.Sprintf("%s(%d,%d)", r.ID, r.Start, r.End)
}

// Link attaches a node to several regions at once (co-reference style).
type Link struct {
	Regions []*Region
}

// Node is a graph vertex.
type Node struct {
	ID string

	// Region is the directly owned region, nil for virtual nodes.
	Region *Region

	// Links holds multi-region attachments.
	Links []Link

	annotations []*Annotation
}

// Annotations returns the node's annotations in insertion order.
func (n *Node) Annotations() []*Annotation {
	return n.annotations
}

// IsVirtual reports whether the node owns no region of its own.
func (n *Node) IsVirtual() bool {
	return n.Region == nil
}

// Edge is a directed parent to child relation between node ids.
type Edge struct {
	ID   string
	From string
	To   string
}

// Annotation is a labelled feature structure attached to a node.
type Annotation struct {
	ID       string
	Label    string
	Space    *Space
	Features *features.Structure
	Node     *Node
}

// SpaceName returns the name of the annotation's space, or "".
func (a *Annotation) SpaceName() string {
	if a.Space == nil {
		return ""
	}
	return a.Space.Name
}
