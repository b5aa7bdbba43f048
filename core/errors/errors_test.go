package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "standoff file", ID: "doc-s.xml"},
			wantMsg:  "standoff file not found: doc-s.xml",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "annotation set"},
			wantMsg:  "annotation set not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "file", ID: "test.txt", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &ValidationError{Field: "start", Message: "must not be negative"},
			wantMsg: "validation failed for start: must not be negative",
		},
		{
			name:    "without field",
			err:     &ValidationError{Message: "invalid offsets"},
			wantMsg: "validation failed: invalid offsets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("errors.Is(%v, ErrInvalidInput) = false", tt.err)
			}
		})
	}
}

func TestValidationErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("strconv.Atoi: parsing \"many\": invalid syntax")
	err := &ValidationError{Field: "GRAF_WORKERS", Message: "not an integer", Err: cause}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("errors.Is(err, ErrInvalidInput) = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIOError(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := NewIO("read", "/tmp/doc.txt", cause)
	want := "failed to read /tmp/doc.txt: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("IOError should unwrap to its cause")
	}

	noPath := NewIO("write", "", cause)
	if got := noPath.Error(); got != "failed to write: permission denied" {
		t.Errorf("Error() = %q", got)
	}
}

func TestParseError(t *testing.T) {
	err := NewParse("GrAF", "doc-s.xml", "root element is not graph")
	want := "failed to parse GrAF at doc-s.xml: root element is not graph"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError without cause should unwrap to ErrInvalidInput")
	}

	noPath := NewParse("anchors", "", "expected two offsets")
	if got := noPath.Error(); got != "failed to parse anchors: expected two offsets" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("compression", ".bz2")
	if got := err.Error(); got != "unsupported compression: .bz2" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should unwrap to ErrUnsupported")
	}
}

func TestStructuralError(t *testing.T) {
	cause := NewParse("GrAF", "a.xml", "bad root")
	err := NewStructural("a.hdr", cause)

	if !IsStructural(err) {
		t.Fatal("IsStructural() = false, want true")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("structural error should still unwrap to the parse sentinel")
	}
	want := "conversion of a.hdr failed: failed to parse GrAF at a.xml: bad root"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	// Re-wrapping keeps the original document.
	again := NewStructural("other.hdr", err)
	var se *StructuralError
	if !errors.As(again, &se) || se.Document != "a.hdr" {
		t.Errorf("re-wrapped document = %v, want a.hdr", se)
	}

	if NewStructural("x", nil) != nil {
		t.Error("NewStructural(nil) should be nil")
	}
	if IsStructural(cause) {
		t.Error("plain parse error should not be structural")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	base := ErrIDCollision
	err := Wrapf(base, "node %s", "n1")
	if got := err.Error(); got != "node n1: id collision" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(err, ErrIDCollision) {
		t.Error("Wrapf should preserve the chain")
	}
	var nf *NotFoundError
	if As(err, &nf) {
		t.Error("As should not match an unrelated type")
	}
}
