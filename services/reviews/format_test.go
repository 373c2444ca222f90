package reviews

import "testing"

func TestFormatHTML(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "just a review", "just a review"},
		{"bold pair", "a **great** film", "a <strong>great</strong> film"},
		{"italic asterisk", "so *subtle* here", "so <em>subtle</em> here"},
		{"italic underscore", "so _subtle_ here", "so <em>subtle</em> here"},
		{"newlines", "line one\nline two", "line one<br>line two"},
		{"windows newlines", "line one\r\nline two", "line one<br>line two"},
		{"bold and italic mixed", "**bold** and *italic*", "<strong>bold</strong> and <em>italic</em>"},
		{"unpaired bold is literal", "a ** stray", "a ** stray"},
		{"unpaired italic is literal", "5 * 3 equals 15", "5 * 3 equals 15"},
		{"escapes html", "<script>alert(1)</script>", "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"bold spanning break", "**two\nlines**", "<strong>two<br>lines</strong>"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatHTML(tc.input); got != tc.want {
				t.Errorf("FormatHTML(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestFormatHTMLMixedMarkersDoNotCollide(t *testing.T) {
	// A bold pair must not be half-consumed by an italic marker scan.
	got := FormatHTML("*a* **b**")
	want := "<em>a</em> <strong>b</strong>"
	if got != want {
		t.Fatalf("FormatHTML = %q, want %q", got, want)
	}
}

func TestFormatHTMLAlwaysBalanced(t *testing.T) {
	inputs := []string{
		"**a *b** c*",
		"_one **two_ three**",
		"***both***",
	}
	for _, input := range inputs {
		got := FormatHTML(input)
		for _, tag := range []struct{ open, close string }{
			{"<strong>", "</strong>"},
			{"<em>", "</em>"},
		} {
			opens := countOccurrences(got, tag.open)
			closes := countOccurrences(got, tag.close)
			if opens != closes {
				t.Errorf("FormatHTML(%q) = %q: %d %s vs %d %s", input, got, opens, tag.open, closes, tag.close)
			}
		}
	}
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
