package notifications

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	cases := map[string]string{
		"plain text":        "plain text",
		"Heat (1995).mkv":   `Heat \(1995\)\.mkv`,
		"a_b*c[d]e":         `a\_b\*c\[d\]e`,
		"back\\slash":       `back\\slash`,
		"dots...and-dashes": `dots\.\.\.and\-dashes`,
	}
	for input, want := range cases {
		if got := escapeMarkdownV2(input); got != want {
			t.Errorf("escapeMarkdownV2(%q) = %q, want %q", input, got, want)
		}
	}
}
