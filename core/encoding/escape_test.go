package encoding

import "testing"

func TestEscapeXMLText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Hello World", "Hello World"},
		{"ampersand", "Tom & Jerry", "Tom &amp; Jerry"},
		{"less than", "a < b", "a &lt; b"},
		{"greater than", "a > b", "a &gt; b"},
		{"quotes preserved", `He said "hello"`, `He said "hello"`},
		{"all three", "<script>&</script>", "&lt;script&gt;&amp;&lt;/script&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeXMLText(tt.input)
			if got != tt.want {
				t.Errorf("EscapeXMLText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeXMLAttr(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"quotes", `say "hi"`, "say &quot;hi&quot;"},
		{"mixed", `<a href="x&y">`, "&lt;a href=&quot;x&amp;y&quot;&gt;"},
		{"apostrophe untouched", "it's", "it's"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeXMLAttr(tt.input)
			if got != tt.want {
				t.Errorf("EscapeXMLAttr(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnescapeXML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no entities", "plain", "plain"},
		{"named", "&lt;b&gt; &amp; &quot;q&quot; &apos;", `<b> & "q" '`},
		{"decimal", "&#34;x&#34;", `"x"`},
		{"hex", "&#x41;&#X42;", "AB"},
		{"unknown kept", "&nbsp;x", "&nbsp;x"},
		{"unterminated kept", "a & b", "a & b"},
		{"bad number kept", "&#zz;", "&#zz;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnescapeXML(tt.input)
			if got != tt.want {
				t.Errorf("UnescapeXML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"a&b",
		`<x y="1">&amp;</x>`,
		"日本語 & émoji",
		"&&&;;",
	}
	for _, in := range inputs {
		if got := UnescapeXML(EscapeXMLAttr(in)); got != in {
			t.Errorf("round trip of %q = %q", in, got)
		}
	}
}

func TestEscapeManifest(t *testing.T) {
	if got := EscapeManifest("a\nb\r\nc"); got != "a b  c" {
		t.Errorf("EscapeManifest() = %q", got)
	}
}
