package convert

import (
	"strings"

	"github.com/FocuswithJustin/grafstandoff/core/encoding"
	"github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/features"
	"github.com/FocuswithJustin/grafstandoff/core/graf"
	"github.com/FocuswithJustin/grafstandoff/core/spans"
)

// BuildOptions configures Build.
type BuildOptions struct {
	// SpaceName and SpaceType describe the default annotation space used
	// for records without a graf:set feature.
	SpaceName string
	SpaceType string

	// DefaultSpaceType is the type base for spaces named by graf:set.
	DefaultSpaceType string

	// Types selects record types to convert. Empty converts all.
	Types []string
}

type edgeKey struct {
	from, to string
}

type pendingEdges struct {
	from     string
	children string
}

// Build creates an annotation graph from idx.
//
// Records are visited by start ascending and end descending, so outer
// records create their nodes before inner records starting at the same
// offset. The returned error is structural; per-record problems are
// reported as diagnostics.
func Build(idx *spans.Index, opts BuildOptions) (*graf.Graph, Diagnostics, error) {
	g := graf.NewWithSpaces(graf.NewSpaceRegistry(opts.SpaceName, opts.SpaceType, opts.DefaultSpaceType))
	var diags Diagnostics

	records := idx.Filter(opts.Types...).Sorted(spans.StartOrder)
	for _, r := range records {
		g.Reserve(r.Feature(spans.FeatureID))
	}

	var pending []pendingEdges
	for _, r := range records {
		if r.Start < 0 || r.End < r.Start {
			diags.Add(Invalid, r.String(), "offsets out of order")
			continue
		}

		n, err := nodeFor(g, r, &diags)
		if err != nil {
			return nil, diags, errors.NewStructural("", err)
		}

		fs := features.New()
		var space *graf.Space
		for key, value := range r.Features.All() {
			switch key {
			case spans.FeatureEmptyAndSpan, spans.FeatureID:
			case "":
				diags.Add(Invalid, r.String(), "feature with empty name dropped")
			case spans.FeatureEdge:
				pending = append(pending, pendingEdges{from: n.ID, children: value})
			case spans.FeatureSet:
				if value != "" {
					space, _ = g.Spaces().Resolve(value)
				}
			default:
				fs.Add(key, encoding.EscapeXMLAttr(value))
			}
		}
		if space == nil {
			space = g.Spaces().Default()
		}
		g.Header.AddSpace(space)
		g.AddAnnotation(n, r.Type, space, fs)
	}

	seen := make(map[edgeKey]bool)
	for _, p := range pending {
		for _, child := range strings.Fields(p.children) {
			key := edgeKey{p.from, child}
			if seen[key] {
				continue
			}
			seen[key] = true
			g.AddEdge(p.from, child)
			if !g.HasNode(child) {
				diags.Add(Unresolved, p.from, "edge to unknown node %s", child)
			}
		}
	}
	return g, diags, nil
}

// nodeFor returns the node owning the record's region, creating it when
// needed. A new node takes the record's graf:id when one is given.
func nodeFor(g *graf.Graph, r *spans.Record, diags *Diagnostics) (*graf.Node, error) {
	region := g.GetOrCreateRegion(r.Start, r.End)
	id := r.Feature(spans.FeatureID)

	if n, ok := g.NodeForRegion(region); ok {
		if id != "" && id != n.ID {
			diags.Add(Invalid, r.String(), "graf:id %s ignored, region %s belongs to node %s", id, region.ID, n.ID)
		}
		return n, nil
	}
	if id == "" {
		n, _ := g.GetOrCreateNodeForRegion(region)
		return n, nil
	}

	n, err := g.AddNode(id)
	if err != nil {
		other, _ := g.Node(id)
		return nil, errors.Wrapf(err, "%s claims node %s already anchored at %s", r, id, anchorOf(other))
	}
	g.AttachRegion(n, region)
	return n, nil
}

func anchorOf(n *graf.Node) string {
	if n == nil || n.Region == nil {
		return "no region"
	}
	return n.Region.String()
}
