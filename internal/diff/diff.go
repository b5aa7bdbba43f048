// Package diff compares annotation sets as text.
// It renders each set as a stable line listing and uses
// github.com/pmezard/go-difflib/difflib to produce unified patches
// (---/+++ headers, @@ hunks, lines prefixed with ' ', '-', '+').
package diff

import (
	"fmt"
	"slices"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"github.com/FocuswithJustin/grafstandoff/core/encoding"
	"github.com/FocuswithJustin/grafstandoff/core/spans"
)

// Options controls patch generation behavior.
type Options struct {
	// MaxBytes is a guardrail on input size (old+new). When exceeded,
	// a placeholder patch is returned and oversize=true.
	// 0 means "no limit".
	MaxBytes int

	// Context controls the number of context lines in unified hunks.
	// If 0, default to 4.
	Context int
}

// Listing renders idx one record per line as "start end type k=v ...",
// in start order. Features are sorted by key so listings of equal sets
// are equal regardless of feature insertion order. Keys named in ignore
// are left out.
func Listing(idx *spans.Index, ignore ...string) string {
	var b strings.Builder
	for _, r := range idx.Sorted(spans.StartOrder) {
		fmt.Fprintf(&b, "%d %d %s", r.Start, r.End, encoding.EscapeManifest(r.Type))
		keys := r.Features.Keys()
		slices.Sort(keys)
		for _, k := range keys {
			if slices.Contains(ignore, k) {
				continue
			}
			fmt.Fprintf(&b, " %s=%s", encoding.EscapeManifest(k), encoding.EscapeManifest(r.Feature(k)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Sets produces a unified patch between the listings of two sets.
// An empty body means the sets are equal.
func Sets(aName, bName string, a, b *spans.Index, opt Options, ignore ...string) (string, bool) {
	return Unified(aName, bName, []byte(Listing(a, ignore...)), []byte(Listing(b, ignore...)), opt)
}

// Unified produces a classic unified patch for a↦b.
// Returns the patch body, empty when a and b are equal, and a flag
// indicating it was omitted due to size.
func Unified(aName, bName string, a, b []byte, opt Options) (body string, oversize bool) {
	if opt.MaxBytes > 0 && (len(a)+len(b)) > opt.MaxBytes {
		return omitted(aName, bName), true
	}

	ctx := opt.Context
	if ctx <= 0 {
		ctx = 4
	}

	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(a)),
		B:        splitLinesKeepNL(string(b)),
		FromFile: aName,
		ToFile:   bName,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return omitted(aName, bName), false
	}
	return s, false
}

// splitLinesKeepNL splits into lines and keeps newline characters,
// which produces better unified hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// omitted returns a compact placeholder when size limits are exceeded.
func omitted(aName, bName string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted (oversize)\n", aName, bName)
}
