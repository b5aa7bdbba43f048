package grafxml

import (
	"slices"
	"strings"
	"testing"

	"github.com/FocuswithJustin/grafstandoff/core/graf"
)

const resourceHeaderSample = `<?xml version="1.0" encoding="UTF-8"?>
<resourceHeader xmlns="http://www.xces.org/ns/GrAF/1.0/">
  <resourceDesc>
    <annotationSpaces>
      <annotationSpace as.id="xces" as.type="http://www.xces.org/schema/2003"/>
      <annotationSpace as.id="penn" as.type="http://www.cis.upenn.edu/~treebank/"/>
      <annotationSpace as.id="fn"/>
    </annotationSpaces>
  </resourceDesc>
</resourceHeader>`

const documentHeaderSample = `<?xml version="1.0" encoding="UTF-8"?>
<documentHeader xmlns="http://www.xces.org/ns/GrAF/1.0/" docID="A1">
  <profileDesc>
    <primaryData loc="A1.txt" f.id="f.text"/>
    <annotations>
      <annotation loc="A1-seg.xml" f.id="f.seg"/>
      <annotation loc="A1-penn.xml.xz" f.id="f.penn"/>
      <annotation f.id="f.broken"/>
    </annotations>
  </profileDesc>
</documentHeader>`

func TestParseResourceHeader(t *testing.T) {
	h, err := ParseResourceHeader(strings.NewReader(resourceHeaderSample), "resource-header.xml")
	if err != nil {
		t.Fatalf("ParseResourceHeader() error = %v", err)
	}
	if len(h.Spaces) != 3 {
		t.Fatalf("spaces = %d, want 3", len(h.Spaces))
	}

	reg := graf.NewSpaceRegistry("", "", "")
	h.Apply(reg, "http://example.org/ns")
	penn, _ := reg.Lookup("penn")
	if penn == nil || penn.Type != "http://www.cis.upenn.edu/~treebank/" {
		t.Errorf("penn = %+v", penn)
	}
	fn, _ := reg.Lookup("fn")
	if fn == nil || fn.Type != "http://example.org/ns/fn" {
		t.Errorf("fn = %+v", fn)
	}
	var nilHeader *ResourceHeader
	nilHeader.Apply(reg, "")

	if _, err := ParseResourceHeader(strings.NewReader("<oops"), "r.xml"); err == nil {
		t.Error("malformed resource header should fail")
	}
}

func TestParseDocumentHeader(t *testing.T) {
	h, err := ParseDocumentHeader(strings.NewReader(documentHeaderSample), "A1.hdr")
	if err != nil {
		t.Fatalf("ParseDocumentHeader() error = %v", err)
	}
	if h.ContentLocation != "A1.txt" {
		t.Errorf("ContentLocation = %q", h.ContentLocation)
	}
	if want := []string{"f.seg", "f.penn"}; !slices.Equal(h.Types(), want) {
		t.Errorf("Types() = %v, want %v", h.Types(), want)
	}
	if loc, ok := h.Location("f.penn"); !ok || loc != "A1-penn.xml.xz" {
		t.Errorf("Location(f.penn) = %q, %v", loc, ok)
	}
	if _, ok := h.Location("f.broken"); ok {
		t.Error("annotation without loc should be dropped")
	}
}

func TestParseDocumentHeaderErrors(t *testing.T) {
	for _, data := range []string{"", "<graph/>", "<documentHeader>"} {
		if _, err := ParseDocumentHeader(strings.NewReader(data), "x.hdr"); err == nil {
			t.Errorf("ParseDocumentHeader(%q) should fail", data)
		}
	}
}

func TestDependencies(t *testing.T) {
	doc := `<graph xmlns="http://www.xces.org/ns/GrAF/1.0/">
  <header>
    <dependencies>
      <dependsOn f.id="f.seg"/>
      <dependsOn f.id="f.penn"/>
      <dependsOn/>
    </dependencies>
  </header>
  <region xml:id="r1" anchors="0 4"/>
</graph>`
	deps, err := Dependencies(strings.NewReader(doc), "A1-np.xml")
	if err != nil {
		t.Fatalf("Dependencies() error = %v", err)
	}
	if want := []string{"f.seg", "f.penn"}; !slices.Equal(deps, want) {
		t.Errorf("Dependencies() = %v, want %v", deps, want)
	}

	none, err := Dependencies(strings.NewReader(`<graph xmlns="http://www.xces.org/ns/GrAF/1.0/"/>`), "x.xml")
	if err != nil || len(none) != 0 {
		t.Errorf("Dependencies() without header = %v, %v", none, err)
	}
	if _, err := Dependencies(strings.NewReader(`<cesAna/>`), "x.xml"); err == nil {
		t.Error("non-graph root should fail")
	}
}
