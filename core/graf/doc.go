// Package graf provides the in-memory GrAF annotation graph.
//
// A graph over one document text consists of:
//
//   - Region: a pair of character anchors (start, end), deduplicated per graph
//   - Node: a vertex owning at most one region, any number of links
//     (multi-region attachments), and one or more annotations
//   - Edge: a directed parent to child link between node ids
//   - Annotation: a label and a feature structure in an annotation space
//   - Space: a named grouping of annotations (one per linguistic layer)
//
// Nodes without a region are virtual; their span is the union of the
// anchored regions reachable through links and outgoing edges (see Span).
//
// Edges name their endpoints by id and may point at nodes that do not exist
// yet. They are resolved when the graph is traversed.
//
// A Graph is owned by one conversion of one document. All id counters and
// the space registry live on the graph, so documents converted in parallel
// never share state. A Graph is not safe for concurrent mutation.
//
// # Example
//
//	g := graf.New()
//	r := g.GetOrCreateRegion(0, 5)
//	n, _ := g.GetOrCreateNodeForRegion(r)
//	fs := features.New()
//	fs.Add("msd", "NN")
//	g.AddAnnotation(n, "tok", nil, fs)
package graf
