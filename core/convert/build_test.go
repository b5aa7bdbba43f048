package convert

import (
	"slices"
	"testing"

	"github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/graf"
	"github.com/FocuswithJustin/grafstandoff/core/spans"
)

func mustBuild(t *testing.T, idx *spans.Index, opts BuildOptions) (*graf.Graph, Diagnostics) {
	t.Helper()
	g, diags, err := Build(idx, opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g, diags
}

func nodeIDs(g *graf.Graph) []string {
	var ids []string
	for n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestBuildSharedRegionSharesNode(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 5, "tok", nil)
	idx.Add(0, 5, "ne", nil)

	g, _ := mustBuild(t, idx, BuildOptions{})
	if got := len(g.Regions()); got != 1 {
		t.Errorf("regions = %d, want 1", got)
	}
	if got := g.NodeCount(); got != 1 {
		t.Fatalf("nodes = %d, want 1", got)
	}
	n, _ := g.Node("n1")
	if got := len(n.Annotations()); got != 2 {
		t.Errorf("annotations on n1 = %d, want 2", got)
	}
}

func TestBuildOrdersOuterBeforeInner(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(5, 10, "A", nil)
	idx.Add(5, 8, "B", nil)
	idx.Add(0, 20, "C", nil)

	g, _ := mustBuild(t, idx, BuildOptions{})
	var labels []string
	for n := range g.Nodes() {
		labels = append(labels, n.Annotations()[0].Label)
	}
	if want := []string{"C", "A", "B"}; !slices.Equal(labels, want) {
		t.Errorf("node creation order = %v, want %v", labels, want)
	}
	if want := []string{"n1", "n2", "n3"}; !slices.Equal(nodeIDs(g), want) {
		t.Errorf("node ids = %v, want %v", nodeIDs(g), want)
	}
}

func TestBuildResolvesEdgesAfterAllRecords(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 10, "S", spans.FeaturesOf(spans.FeatureEdge, "n2 n3"))
	idx.Add(0, 5, "NP", nil)
	idx.Add(5, 10, "VP", nil)

	g, diags := mustBuild(t, idx, BuildOptions{})
	edges := g.OutEdges("n1")
	if len(edges) != 2 {
		t.Fatalf("edges from n1 = %d, want 2", len(edges))
	}
	if edges[0].To != "n2" || edges[1].To != "n3" {
		t.Errorf("edge targets = %s, %s", edges[0].To, edges[1].To)
	}
	if diags.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	n1, _ := g.Node("n1")
	if _, ok := n1.Annotations()[0].Features.Value(spans.FeatureEdge); ok {
		t.Error("graf:edge should not be copied into the feature structure")
	}
}

func TestBuildEdgeToUnknownNode(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 10, "S", spans.FeaturesOf(spans.FeatureEdge, "  n9\tn1 "))

	g, diags := mustBuild(t, idx, BuildOptions{})
	if len(g.Edges()) != 2 {
		t.Errorf("edges = %d, want 2", len(g.Edges()))
	}
	if got := diags.Filter(Unresolved); len(got) != 1 {
		t.Errorf("unresolved diagnostics = %v", got)
	}
}

func TestBuildDeduplicatesEdgesOfSharedNode(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 10, "S", spans.FeaturesOf(spans.FeatureEdge, "n2"))
	idx.Add(0, 10, "Cat", spans.FeaturesOf(spans.FeatureEdge, "n2"))
	idx.Add(0, 4, "NP", nil)

	g, _ := mustBuild(t, idx, BuildOptions{})
	if got := len(g.OutEdges("n1")); got != 1 {
		t.Errorf("edges from n1 = %d, want 1", got)
	}
}

func TestBuildSpaceAssignment(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 3, "tok", spans.FeaturesOf(spans.FeatureSet, "penn", "pos", "NN"))
	idx.Add(4, 6, "tok", nil)
	idx.Add(7, 9, "tok", spans.FeaturesOf(spans.FeatureSet, ""))

	g, _ := mustBuild(t, idx, BuildOptions{DefaultSpaceType: "http://example.org/ns/"})
	var spaces []string
	for n := range g.Nodes() {
		a := n.Annotations()[0]
		spaces = append(spaces, a.SpaceName())
		if _, ok := a.Features.Value(spans.FeatureSet); ok {
			t.Error("graf:set should not be copied into the feature structure")
		}
	}
	if want := []string{"penn", graf.DefaultSpaceName, graf.DefaultSpaceName}; !slices.Equal(spaces, want) {
		t.Errorf("spaces = %v, want %v", spaces, want)
	}

	penn, ok := g.Spaces().Lookup("penn")
	if !ok || penn.Type != "http://example.org/ns/penn" {
		t.Errorf("penn space = %+v", penn)
	}
	if len(g.Header.Spaces) != 2 {
		t.Errorf("header spaces = %d, want 2", len(g.Header.Spaces))
	}
}

func TestBuildCustomDefaultSpace(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 3, "tok", nil)
	g, _ := mustBuild(t, idx, BuildOptions{SpaceName: "masc", SpaceType: "urn:masc"})
	n, _ := g.Node("n1")
	if s := n.Annotations()[0].Space; s.Name != "masc" || s.Type != "urn:masc" {
		t.Errorf("default space = %+v", s)
	}
}

func TestBuildEscapesValues(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 3, "tok", spans.FeaturesOf("string", `a<b & "c"`))
	g, _ := mustBuild(t, idx, BuildOptions{})
	n, _ := g.Node("n1")
	got, _ := n.Annotations()[0].Features.Value("string")
	if want := "a&lt;b &amp; &quot;c&quot;"; got != want {
		t.Errorf("stored value = %q, want %q", got, want)
	}
}

func TestBuildSkipsSentinelAndEmptyKeys(t *testing.T) {
	f := spans.NewFeatures()
	f.Set(spans.FeatureEmptyAndSpan, "true")
	f.Set("", "lost")
	f.Set("kind", "word")
	idx := spans.NewIndex()
	idx.Add(0, 3, "tok", f)

	g, diags := mustBuild(t, idx, BuildOptions{})
	n, _ := g.Node("n1")
	fs := n.Annotations()[0].Features
	if fs.Len() != 1 || fs.Get("kind") == nil {
		t.Errorf("features = %d, want only kind", fs.Len())
	}
	if got := diags.Filter(Invalid); len(got) != 1 {
		t.Errorf("invalid diagnostics = %v", got)
	}
}

func TestBuildInvalidOffsetsAreDiagnosed(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(8, 3, "bad", nil)
	idx.Add(-1, 3, "neg", nil)
	idx.Add(0, 3, "ok", nil)

	g, diags := mustBuild(t, idx, BuildOptions{})
	if g.NodeCount() != 1 {
		t.Errorf("nodes = %d, want 1", g.NodeCount())
	}
	if len(diags.Filter(Invalid)) != 2 {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestBuildTypeSelection(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 3, "tok", nil)
	idx.Add(0, 9, "s", nil)
	g, _ := mustBuild(t, idx, BuildOptions{Types: []string{"tok"}})
	if g.AnnotationCount() != 1 {
		t.Errorf("annotations = %d, want 1", g.AnnotationCount())
	}
}

func TestBuildReusesRecordNodeIDs(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 3, "tok", nil)
	idx.Add(4, 9, "tok", spans.FeaturesOf(spans.FeatureID, "n1"))

	g, _ := mustBuild(t, idx, BuildOptions{})
	if want := []string{"n2", "n1"}; !slices.Equal(nodeIDs(g), want) {
		t.Errorf("node ids = %v, want %v", nodeIDs(g), want)
	}
	n1, _ := g.Node("n1")
	if n1.Region.Start != 4 {
		t.Errorf("n1 region = %v", n1.Region)
	}
}

func TestBuildConflictingIDOnSharedRegion(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 3, "tok", spans.FeaturesOf(spans.FeatureID, "w1"))
	idx.Add(0, 3, "pos", spans.FeaturesOf(spans.FeatureID, "w2"))

	g, diags := mustBuild(t, idx, BuildOptions{})
	if g.NodeCount() != 1 || !g.HasNode("w1") {
		t.Errorf("nodes = %v", nodeIDs(g))
	}
	if len(diags.Filter(Invalid)) != 1 {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestBuildIDCollisionIsStructural(t *testing.T) {
	idx := spans.NewIndex()
	idx.Add(0, 3, "tok", spans.FeaturesOf(spans.FeatureID, "n7"))
	idx.Add(4, 9, "tok", spans.FeaturesOf(spans.FeatureID, "n7"))

	g, _, err := Build(idx, BuildOptions{})
	if g != nil {
		t.Error("no graph expected on collision")
	}
	if !errors.IsStructural(err) || !errors.Is(err, errors.ErrIDCollision) {
		t.Errorf("Build() error = %v, want structural id collision", err)
	}
}
