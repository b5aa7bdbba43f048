package grafxml

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/grafstandoff/core/errors"
)

// anchorGrammar is the participle grammar for a region's anchors attribute.
//
//nolint:govet // participle grammar tags are not standard struct tags
type anchorGrammar struct {
	Offsets []int64 `parser:"@Int @Int+"`
}

var anchorLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[-+]?[0-9]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var anchorParser = participle.MustBuild[anchorGrammar](
	participle.Lexer(anchorLexer),
	participle.Elide("Whitespace"),
)

// ParseAnchors parses a character anchor list such as "12 40". The first
// anchor is the start and the last is the end.
func ParseAnchors(s string) (start, end int64, err error) {
	g, err := anchorParser.ParseString("", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, &errors.ParseError{Format: "anchors", Message: strconv.Quote(s), Err: err}
	}
	return g.Offsets[0], g.Offsets[len(g.Offsets)-1], nil
}

// FormatAnchors renders a region's anchors.
func FormatAnchors(start, end int64) string {
	return strconv.FormatInt(start, 10) + " " + strconv.FormatInt(end, 10)
}
