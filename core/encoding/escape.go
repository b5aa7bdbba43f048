// Package encoding provides the markup escaping used for graph feature values.
//
// Feature values copied from flat annotations into a graph are stored in
// escaped form, so a value can be written into an XML attribute as is.
// UnescapeXML reverses that pass when a graph is flattened again.
package encoding

import (
	"strconv"
	"strings"
)

// EscapeXMLText escapes only the basic XML entities for text content.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EscapeXMLAttr escapes text for use in XML attributes.
// Escapes: & < > "
func EscapeXMLAttr(s string) string {
	s = EscapeXMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// UnescapeXML decodes the predefined XML entities and numeric character
// references. Unknown or malformed references are kept verbatim.
func UnescapeXML(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 {
			b.WriteString(s[i:])
			break
		}
		ref := s[i+1 : i+semi]
		if r, ok := decodeRef(ref); ok {
			b.WriteString(r)
		} else {
			b.WriteString(s[i : i+semi+1])
		}
		i += semi + 1
	}
	return b.String()
}

func decodeRef(ref string) (string, bool) {
	switch ref {
	case "amp":
		return "&", true
	case "lt":
		return "<", true
	case "gt":
		return ">", true
	case "quot":
		return "\"", true
	case "apos":
		return "'", true
	}
	if len(ref) < 2 || ref[0] != '#' {
		return "", false
	}
	base, digits := 10, ref[1:]
	if digits[0] == 'x' || digits[0] == 'X' {
		base, digits = 16, digits[1:]
	}
	n, err := strconv.ParseInt(digits, base, 32)
	if err != nil || n <= 0 {
		return "", false
	}
	return string(rune(n)), true
}

// EscapeManifest replaces newlines with spaces to ensure single-line values.
// Used for listing lines where a feature value must not break the line.
func EscapeManifest(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
