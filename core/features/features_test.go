package features

import (
	"slices"
	"testing"
)

func TestFlattenNested(t *testing.T) {
	fs := New()
	pos := fs.AddStructure("pos")
	pos.Add("tag", "NN")
	pos.Add("lemma", "dog")

	got := Flatten(fs, "")
	want := []Pair{{"pos/tag", "NN"}, {"pos/lemma", "dog"}}
	if !slices.Equal(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

func TestFlattenMixedDepth(t *testing.T) {
	fs := New()
	fs.Add("msd", "VBZ")
	deep := fs.AddStructure("a").AddStructure("b")
	deep.Add("c", "1")
	fs.Add("base", "be")

	got := Flatten(fs, "")
	want := []Pair{{"msd", "VBZ"}, {"a/b/c", "1"}, {"base", "be"}}
	if !slices.Equal(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}

	withBase := Flatten(fs, "root")
	if withBase[0].Key != "root/msd" || withBase[1].Key != "root/a/b/c" {
		t.Errorf("Flatten(root) keys = %v", withBase)
	}
}

func TestFlattenEmpty(t *testing.T) {
	if got := Flatten(nil, ""); len(got) != 0 {
		t.Errorf("Flatten(nil) = %v", got)
	}
	if got := Flatten(New(), "x"); len(got) != 0 {
		t.Errorf("Flatten(empty) = %v", got)
	}
}

func TestFlattenDoesNotMutate(t *testing.T) {
	fs := New()
	fs.Add("k", "v")
	_ = Flatten(fs, "")
	_ = Flatten(fs, "")
	if fs.Len() != 1 {
		t.Errorf("Flatten mutated the structure: len = %d", fs.Len())
	}
}

func TestUnflattenRoundTrip(t *testing.T) {
	fs := New()
	fs.Add("msd", "NN")
	pos := fs.AddStructure("pos")
	pos.Add("tag", "NN")
	pos.AddStructure("morph").Add("num", "sg")

	back := Unflatten(Flatten(fs, ""))
	if !slices.Equal(Flatten(back, ""), Flatten(fs, "")) {
		t.Errorf("round trip = %v, want %v", Flatten(back, ""), Flatten(fs, ""))
	}
	if f := back.Get("pos"); f == nil || f.IsAtomic() {
		t.Fatal("pos should be a structure")
	}
	if v, ok := back.Get("pos").Child.Get("morph").Child.Value("num"); !ok || v != "sg" {
		t.Errorf("pos/morph/num = %q, %v", v, ok)
	}
}

func TestSeparatorInNameIsAmbiguous(t *testing.T) {
	fs := New()
	fs.Add("a/b", "1")
	got := Flatten(fs, "")
	if got[0].Key != "a/b" {
		t.Fatalf("Flatten() key = %q", got[0].Key)
	}
	// Unflatten reads it back as a nested structure.
	back := Unflatten(got)
	if f := back.Get("a"); f == nil || f.IsAtomic() {
		t.Error("literal separator should come back as nesting")
	}
}

func TestAddReplaces(t *testing.T) {
	fs := New()
	fs.Add("k", "1")
	fs.Add("k", "2")
	if fs.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", fs.Len())
	}
	if v, _ := fs.Value("k"); v != "2" {
		t.Errorf("Value(k) = %q", v)
	}

	child := fs.AddStructure("k")
	child.Add("x", "y")
	if _, ok := fs.Value("k"); ok {
		t.Error("k should no longer be atomic")
	}
	if fs.AddStructure("k") != child {
		t.Error("AddStructure should return the existing child")
	}
	if _, ok := fs.Value("missing"); ok {
		t.Error("Value(missing) should miss")
	}
	if !New().IsEmpty() || fs.IsEmpty() {
		t.Error("IsEmpty mismatch")
	}
}
