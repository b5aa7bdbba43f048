package grafxml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/FocuswithJustin/grafstandoff/core/convert"
	"github.com/FocuswithJustin/grafstandoff/core/graf"
	"github.com/FocuswithJustin/grafstandoff/core/spans"
)

func sampleIndex() *spans.Index {
	idx := spans.NewIndex()
	idx.Add(0, 9, "s", spans.FeaturesOf(spans.FeatureEdge, "n2 n3"))
	idx.Add(0, 3, "tok", spans.FeaturesOf("msd", "DT", "string", `"A" & <b>`, spans.FeatureSet, "penn"))
	idx.Add(4, 9, "tok", spans.FeaturesOf("msd", "NN", spans.FeatureSet, "penn"))
	return idx
}

func render(t *testing.T, g *graf.Graph, opts RenderOptions) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, g, opts); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestRenderStructure(t *testing.T) {
	g, _, err := convert.Build(sampleIndex(), convert.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	g.Header.AddRoot("n1")
	g.Header.SetInfo(graf.InfoTextDigest, "d1")
	out := render(t, g, RenderOptions{})

	for _, want := range []string{
		`<graph xmlns="http://www.xces.org/ns/GrAF/1.0/">`,
		`<labelUsage label="s" occurs="1"/><labelUsage label="tok" occurs="2"/>`,
		`<annotationSpace as.id="xces" as.type="http://www.xces.org/schema/2003"/>`,
		`<annotationSpace as.id="penn" as.type="http://www.anc.org/ns/masc/1.0/penn"/>`,
		`<roots><root>n1</root></roots>`,
		`<info name="graf:textDigest" value="d1"/>`,
		`<region xml:id="r1" anchors="0 9"/>`,
		`<node xml:id="n2"><link targets="r2"/></node>`,
		`<f name="string" value="&quot;A&quot; &amp; &lt;b&gt;"/>`,
		`<edge xml:id="e1" from="n1" to="n2"/>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %s\n%s", want, out)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	g, _, _ := convert.Build(sampleIndex(), convert.BuildOptions{})
	a := render(t, g, RenderOptions{Indent: "  "})
	b := render(t, g, RenderOptions{Indent: "  "})
	if a != b {
		t.Error("two renders of the same graph differ")
	}
	if !strings.Contains(a, "\n  <region") {
		t.Errorf("indented output:\n%s", a)
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	g, _, err := convert.Build(sampleIndex(), convert.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for _, indent := range []string{"", "\t"} {
		out := render(t, g, RenderOptions{Indent: indent})
		res := mustParse(t, out, ParseOptions{})
		if res.Diagnostics.Len() != 0 {
			t.Errorf("diagnostics = %v", res.Diagnostics)
		}

		before, _ := convert.Flatten(g, 9, convert.FlattenOptions{})
		after, _ := convert.Flatten(res.Graph, 9, convert.FlattenOptions{})
		if before.Len() != after.Len() {
			t.Fatalf("records = %d, want %d", after.Len(), before.Len())
		}
		for i, want := range before.Records() {
			got := after.Records()[i]
			if got.String() != want.String() || !got.Features.Equal(want.Features) {
				t.Errorf("record %d = %s %v, want %s %v", i, got, got.Features.Keys(), want, want.Features.Keys())
			}
		}
		if v := after.Records()[1].Feature("string"); v != `"A" & <b>` {
			t.Errorf("decoded value = %q", v)
		}
	}
}

func TestRenderVirtualAndLinkedNodes(t *testing.T) {
	g := graf.New()
	n, _ := g.AddNode("v")
	g.AddAnnotation(n, "coref", nil, nil)
	m, _ := g.AddNode("m")
	g.AddLink(m, g.GetOrCreateRegion(0, 2), g.GetOrCreateRegion(5, 7))

	out := render(t, g, RenderOptions{})
	if !strings.Contains(out, `<node xml:id="v"/>`) {
		t.Errorf("virtual node not self-closing:\n%s", out)
	}
	if !strings.Contains(out, `<link targets="r1 r2"/>`) {
		t.Errorf("multi-region link missing:\n%s", out)
	}
	if !strings.Contains(out, `<a xml:id="a1" label="coref" ref="v" as="xces"/>`) {
		t.Errorf("empty annotation:\n%s", out)
	}
}
