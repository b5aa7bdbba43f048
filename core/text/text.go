// Package text holds the primary data of a document: an immutable text whose
// length bounds every annotation offset.
//
// Offsets are character (rune) offsets, matching the character anchors used
// by GrAF regions. Tools that count UTF-16 code units (Java hosts such as
// GATE) disagree with these offsets past the first character outside the
// Basic Multilingual Plane: each such character is one rune here and two
// units there. Standoff files produced by those tools line up only for
// BMP-only texts.
package text

import (
	"encoding/hex"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/grafstandoff/core/errors"
)

// Buffer is an immutable document text.
type Buffer struct {
	content string
	runes   []rune
}

// New wraps s. The rune view is computed once.
func New(s string) *Buffer {
	return &Buffer{content: s, runes: []rune(s)}
}

// Read reads all of r into a Buffer. The content must be valid UTF-8.
func Read(r io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("read", "", err)
	}
	if !utf8.Valid(data) {
		return nil, errors.NewValidation("text", "content is not valid UTF-8")
	}
	return New(string(data)), nil
}

// Len returns the length of the text in characters.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// String returns the text.
func (b *Buffer) String() string {
	return b.content
}

// Slice returns the characters in [start, end).
func (b *Buffer) Slice(start, end int) (string, error) {
	if start < 0 || end < start || end > len(b.runes) {
		return "", errors.NewValidation("offsets",
			fmt.Sprintf("(%d,%d) outside text of length %d", start, end, len(b.runes)))
	}
	return string(b.runes[start:end]), nil
}

// Digest returns the hex BLAKE3-256 digest of the UTF-8 content.
func (b *Buffer) Digest() string {
	return Digest([]byte(b.content))
}

// Digest computes the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// VerifyDigest reports whether the text matches a previously recorded digest.
// An empty digest always verifies.
func (b *Buffer) VerifyDigest(digest string) bool {
	return digest == "" || digest == b.Digest()
}
