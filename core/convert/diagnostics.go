package convert

import (
	"context"
	"fmt"

	"github.com/FocuswithJustin/grafstandoff/internal/logging"
)

// Kind classifies a diagnostic.
type Kind int

const (
	// Skipped means the record or node produced no output.
	Skipped Kind = iota
	// Clamped means offsets were adjusted to fit the text.
	Clamped
	// Invalid means malformed input was ignored.
	Invalid
	// Unresolved means a reference could not be followed.
	Unresolved
)

var kindNames = [...]string{
	Skipped:    "skipped",
	Clamped:    "clamped",
	Invalid:    "invalid",
	Unresolved: "unresolved",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Diagnostic reports a recoverable problem with one record, node or
// element.
type Diagnostic struct {
	Kind    Kind
	Subject string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Subject, d.Message)
}

// Diagnostics collects diagnostics in the order they were raised.
type Diagnostics []Diagnostic

// Add appends a diagnostic with a formatted message.
func (d *Diagnostics) Add(kind Kind, subject, format string, args ...any) {
	*d = append(*d, Diagnostic{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// Append adds all of other.
func (d *Diagnostics) Append(other Diagnostics) {
	*d = append(*d, other...)
}

// Len returns the number of diagnostics.
func (d Diagnostics) Len() int {
	return len(d)
}

// Filter returns the diagnostics of one kind.
func (d Diagnostics) Filter(kind Kind) Diagnostics {
	var out Diagnostics
	for _, diag := range d {
		if diag.Kind == kind {
			out = append(out, diag)
		}
	}
	return out
}

// LogAttrs summarises the diagnostics as slog key/value pairs, one count
// per kind that occurred.
func (d Diagnostics) LogAttrs() []any {
	var counts [len(kindNames)]int
	for _, diag := range d {
		if diag.Kind >= 0 && int(diag.Kind) < len(counts) {
			counts[diag.Kind]++
		}
	}
	attrs := []any{"diagnostics", len(d)}
	for k, n := range counts {
		if n > 0 {
			attrs = append(attrs, Kind(k).String(), n)
		}
	}
	return attrs
}

// Log emits each diagnostic as a warning.
func (d Diagnostics) Log(ctx context.Context) {
	for _, diag := range d {
		logging.Diagnostic(ctx, diag.Subject, diag.Kind.String(), diag.Message)
	}
}
