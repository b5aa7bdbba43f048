package graf

import (
	"fmt"
	"iter"
	"math"

	"github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/features"
)

// regionKey identifies a region by its anchors.
type regionKey struct {
	start, end int64
}

// Graph is a GrAF annotation graph over one document.
type Graph struct {
	Header *Header

	spaces *SpaceRegistry
	ids    *IDGenerator

	regions     map[regionKey]*Region
	regionByID  map[string]*Region
	regionList  []*Region
	regionOwner map[*Region]*Node

	nodes    []*Node
	nodeByID map[string]*Node
	reserved map[string]bool

	edges   []*Edge
	edgeIDs map[string]bool
	out     map[string][]*Edge

	annotationIDs map[string]bool
	annotations   int
}

// New creates an empty graph with the default space registry.
func New() *Graph {
	return NewWithSpaces(NewSpaceRegistry("", "", ""))
}

// NewWithSpaces creates an empty graph using spaces for space resolution.
func NewWithSpaces(spaces *SpaceRegistry) *Graph {
	return &Graph{
		Header:        &Header{},
		spaces:        spaces,
		ids:           NewIDGenerator(),
		regions:       make(map[regionKey]*Region),
		regionByID:    make(map[string]*Region),
		regionOwner:   make(map[*Region]*Node),
		nodeByID:      make(map[string]*Node),
		reserved:      make(map[string]bool),
		edgeIDs:       make(map[string]bool),
		out:           make(map[string][]*Edge),
		annotationIDs: make(map[string]bool),
	}
}

// Spaces returns the graph's space registry.
func (g *Graph) Spaces() *SpaceRegistry {
	return g.spaces
}

// Region returns the region with anchors (start, end).
func (g *Graph) Region(start, end int64) (*Region, bool) {
	r, ok := g.regions[regionKey{start, end}]
	return r, ok
}

// RegionByID returns a region by its id.
func (g *Graph) RegionByID(id string) (*Region, bool) {
	r, ok := g.regionByID[id]
	return r, ok
}

// GetOrCreateRegion returns the region for (start, end), creating it when
// absent. Callers must ensure start <= end.
func (g *Graph) GetOrCreateRegion(start, end int64) *Region {
	if r, ok := g.regions[regionKey{start, end}]; ok {
		return r
	}
	id := g.ids.GenerateUnused("r", func(id string) bool {
		_, taken := g.regionByID[id]
		return taken
	})
	return g.insertRegion(id, start, end)
}

// AddRegion registers a region under an explicit id. Anchors that are
// already present resolve to the existing region, and id becomes an alias
// for it. Reusing an id for different anchors is an id collision.
func (g *Graph) AddRegion(id string, start, end int64) (*Region, error) {
	if existing, ok := g.regionByID[id]; ok {
		if existing.Start == start && existing.End == end {
			return existing, nil
		}
		return nil, errors.Wrapf(errors.ErrIDCollision, "region %s", id)
	}
	if r, ok := g.regions[regionKey{start, end}]; ok {
		g.regionByID[id] = r
		return r, nil
	}
	return g.insertRegion(id, start, end), nil
}

func (g *Graph) insertRegion(id string, start, end int64) *Region {
	r := &Region{ID: id, Start: start, End: end}
	g.regions[regionKey{start, end}] = r
	g.regionByID[id] = r
	g.regionList = append(g.regionList, r)
	return r
}

// Regions returns the regions in creation order.
func (g *Graph) Regions() []*Region {
	return g.regionList
}

// NodeForRegion returns the first node that owns r.
func (g *Graph) NodeForRegion(r *Region) (*Node, bool) {
	n, ok := g.regionOwner[r]
	return n, ok
}

// GetOrCreateNodeForRegion returns the first node owning r, or creates a
// node with a generated id that owns it. created reports a new node.
func (g *Graph) GetOrCreateNodeForRegion(r *Region) (n *Node, created bool) {
	if n, ok := g.regionOwner[r]; ok {
		return n, false
	}
	n = g.newNode(g.generateNodeID())
	g.AttachRegion(n, r)
	return n, true
}

// AddNode creates a node. An empty id is generated as "n<seq>". An id that
// is already in use returns ErrIDCollision.
func (g *Graph) AddNode(id string) (*Node, error) {
	if id == "" {
		id = g.generateNodeID()
	}
	if _, ok := g.nodeByID[id]; ok {
		return nil, errors.Wrapf(errors.ErrIDCollision, "node %s", id)
	}
	return g.newNode(id), nil
}

// HasNode reports whether a node with id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeByID[id]
	return ok
}

// Reserve keeps generated node ids clear of ids that will be assigned
// explicitly later.
func (g *Graph) Reserve(ids ...string) {
	for _, id := range ids {
		if id != "" {
			g.reserved[id] = true
		}
	}
}

func (g *Graph) generateNodeID() string {
	return g.ids.GenerateUnused("n", func(id string) bool {
		return g.reserved[id] || g.HasNode(id)
	})
}

func (g *Graph) newNode(id string) *Node {
	n := &Node{ID: id}
	g.nodes = append(g.nodes, n)
	g.nodeByID[id] = n
	return n
}

// AttachRegion makes r the node's own region. The first node attached to a
// region becomes its owner for GetOrCreateNodeForRegion.
func (g *Graph) AttachRegion(n *Node, r *Region) {
	n.Region = r
	if _, ok := g.regionOwner[r]; !ok {
		g.regionOwner[r] = n
	}
}

// AddLink attaches several regions to n as one link.
func (g *Graph) AddLink(n *Node, regions ...*Region) {
	if len(regions) == 0 {
		return
	}
	n.Links = append(n.Links, Link{Regions: regions})
}

// Node returns the node with id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodeByID[id]
	return n, ok
}

// Nodes iterates nodes in creation order. The sequence can be ranged over
// any number of times.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, n := range g.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// AddEdge appends an edge from -> to. Neither node has to exist yet.
func (g *Graph) AddEdge(from, to string) *Edge {
	id := g.ids.GenerateUnused("e", func(id string) bool { return g.edgeIDs[id] })
	return g.appendEdge(id, from, to)
}

// AddEdgeWithID appends an edge with an explicit id.
func (g *Graph) AddEdgeWithID(id, from, to string) (*Edge, error) {
	if id == "" {
		return g.AddEdge(from, to), nil
	}
	if g.edgeIDs[id] {
		return nil, errors.Wrapf(errors.ErrIDCollision, "edge %s", id)
	}
	return g.appendEdge(id, from, to), nil
}

func (g *Graph) appendEdge(id, from, to string) *Edge {
	e := &Edge{ID: id, From: from, To: to}
	g.edgeIDs[id] = true
	g.edges = append(g.edges, e)
	g.out[from] = append(g.out[from], e)
	return e
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// OutEdges returns the edges leaving the node with id, in insertion order.
func (g *Graph) OutEdges(id string) []*Edge {
	return g.out[id]
}

// DanglingEdges returns edges whose source or target is not a node.
func (g *Graph) DanglingEdges() []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			out = append(out, e)
		}
	}
	return out
}

// AddAnnotation attaches a new annotation to n. The space is space when
// given; otherwise the "graf:set" feature of fs is resolved through the
// registry; otherwise the registry default is used.
func (g *Graph) AddAnnotation(n *Node, label string, space *Space, fs *features.Structure) *Annotation {
	id := g.ids.GenerateUnused("a", func(id string) bool { return g.annotationIDs[id] })
	return g.appendAnnotation(id, n, label, space, fs)
}

// AddAnnotationWithID is AddAnnotation with an explicit annotation id.
func (g *Graph) AddAnnotationWithID(id string, n *Node, label string, space *Space, fs *features.Structure) (*Annotation, error) {
	if id == "" {
		return g.AddAnnotation(n, label, space, fs), nil
	}
	if g.annotationIDs[id] {
		return nil, errors.Wrapf(errors.ErrIDCollision, "annotation %s", id)
	}
	return g.appendAnnotation(id, n, label, space, fs), nil
}

// setFeature is the feature that names an annotation's space.
const setFeature = "graf:set"

func (g *Graph) appendAnnotation(id string, n *Node, label string, space *Space, fs *features.Structure) *Annotation {
	if fs == nil {
		fs = features.New()
	}
	if space == nil {
		if name, ok := fs.Value(setFeature); ok && name != "" {
			space, _ = g.spaces.Resolve(name)
		} else {
			space = g.spaces.Default()
		}
	}
	a := &Annotation{ID: id, Label: label, Space: space, Features: fs, Node: n}
	n.annotations = append(n.annotations, a)
	g.annotationIDs[id] = true
	g.annotations++
	return a
}

// AnnotationCount returns the number of annotations in the graph.
func (g *Graph) AnnotationCount() int {
	return g.annotations
}

// Span returns the effective offsets of n. A node with its own region spans
// that region. A virtual node spans the union of every anchored region
// reachable through its links and outgoing edges; each node is visited once
// per call, so cycles terminate. ok is false when nothing anchored is
// reachable.
func (g *Graph) Span(n *Node) (start, end int64, ok bool) {
	if n.Region != nil {
		return n.Region.Start, n.Region.End, true
	}

	start, end = math.MaxInt64, math.MinInt64
	include := func(r *Region) {
		start = min(start, r.Start)
		end = max(end, r.End)
	}

	visited := map[string]bool{n.ID: true}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.Region != nil {
			include(cur.Region)
		}
		for _, link := range cur.Links {
			for _, r := range link.Regions {
				include(r)
			}
		}
		edges := g.out[cur.ID]
		for i := len(edges) - 1; i >= 0; i-- {
			child, exists := g.nodeByID[edges[i].To]
			if !exists || visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			stack = append(stack, child)
		}
	}

	if start == math.MaxInt64 {
		return 0, 0, false
	}
	return start, end, true
}

// String summarises the graph size.
func (g *Graph) String() string {
	return fmt.Sprintf("graph{regions=%d nodes=%d edges=%d annotations=%d}",
		len(g.regionList), len(g.nodes), len(g.edges), g.annotations)
}
