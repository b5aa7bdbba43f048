package convert

import (
	"strings"

	"github.com/FocuswithJustin/grafstandoff/core/encoding"
	"github.com/FocuswithJustin/grafstandoff/core/features"
	"github.com/FocuswithJustin/grafstandoff/core/graf"
	"github.com/FocuswithJustin/grafstandoff/core/spans"
)

// DefaultFlatSpaceName is the graf:set value given to annotations that
// belong to no space.
const DefaultFlatSpaceName = "Standoff Markups"

// FlattenOptions configures Flatten.
type FlattenOptions struct {
	// DefaultSpaceName replaces a missing annotation space.
	DefaultSpaceName string

	// Seen, when set, skips annotations already flattened for the same
	// document and records the ones flattened now.
	Seen *SeenSet
}

// Flatten turns the annotations of g into flat records over a text of
// textLen characters. Nodes are visited in creation order.
func Flatten(g *graf.Graph, textLen int64, opts FlattenOptions) (*spans.Index, Diagnostics) {
	if opts.DefaultSpaceName == "" {
		opts.DefaultSpaceName = DefaultFlatSpaceName
	}
	out := spans.NewIndex()
	var diags Diagnostics

	for n := range g.Nodes() {
		if len(n.Annotations()) == 0 {
			continue
		}
		start, end, ok := g.Span(n)
		if !ok {
			continue
		}
		if end < start || start < 0 {
			diags.Add(Skipped, n.ID, "invalid span (%d,%d)", start, end)
			continue
		}

		children := childList(g, n)
		for _, a := range n.Annotations() {
			if opts.Seen != nil && !opts.Seen.Add(a.ID) {
				continue
			}

			fm := spans.NewFeatures()
			if children != "" {
				fm.Set(spans.FeatureEdge, children)
			}
			space := a.SpaceName()
			if space == "" {
				space = opts.DefaultSpaceName
			}
			fm.Set(spans.FeatureSet, space)
			fm.Set(spans.FeatureID, n.ID)
			for _, p := range features.Flatten(a.Features, "") {
				if spans.IsReserved(p.Key) {
					diags.Add(Skipped, a.ID, "feature %s is reserved", p.Key)
					continue
				}
				fm.Set(p.Key, encoding.UnescapeXML(p.Value))
			}

			s, e := start, end
			if e > textLen {
				diags.Add(Clamped, a.ID, "end %d beyond end of content %d", e, textLen)
				e = textLen
			}
			if s > e {
				diags.Add(Skipped, a.ID, "start %d after end of content %d", s, e)
				continue
			}
			out.Add(s, e, a.Label, fm)
		}
	}
	return out, diags
}

func childList(g *graf.Graph, n *graf.Node) string {
	edges := g.OutEdges(n.ID)
	if len(edges) == 0 {
		return ""
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.To
	}
	return strings.Join(ids, " ")
}
