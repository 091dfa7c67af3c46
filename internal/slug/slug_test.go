package slug

import "testing"

// TestGenerate exercises the hyphenated slug used for storage keys.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "punctuation", input: "Hello, World! How's it going?", want: "hello-world-hows-it-going"},
		{name: "symbols between words", input: "Rock & Roll @ the Arena", want: "rock-roll-the-arena"},
		{name: "dots removed", input: "Version 2.0.1", want: "version-201"},
		{name: "surrounding spaces", input: "  hello world  ", want: "hello-world"},
		{name: "repeated hyphens", input: "  --hello -- world--  ", want: "hello-world"},
		{name: "date kept", input: "2026-02-25", want: "2026-02-25"},
		{name: "only symbols", input: "!@#$%^&*()", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestCompact covers the archive-name form: everything but ASCII letters
// and digits is stripped, with a fallback for empty results.
func TestCompact(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "spaces and punctuation", input: "10 Tips: Go!", want: "10tipsgo"},
		{name: "mixed case", input: "Growth Hacking 101", want: "growthhacking101"},
		{name: "hyphens and underscores", input: "my-first_carousel", want: "myfirstcarousel"},
		{name: "accents stripped", input: "Café Crème", want: "cafcrme"},
		{name: "emoji stripped", input: "🚀 Launch", want: "launch"},
		{name: "only symbols", input: "!!! ???", want: "carousel"},
		{name: "non-latin only", input: "日本語", want: "carousel"},
		{name: "empty", input: "", want: "carousel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compact(tt.input, "carousel"); got != tt.want {
				t.Errorf("Compact(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
