// Package reviews renders the markdown-ish markup found in external review
// bodies to HTML. The rendering is a single left-to-right token scan rather
// than chained string substitutions, so bold and italic markers cannot
// collide with each other.
package reviews

import (
	"html"
	"strings"
)

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenBold           // **
	tokenItalic         // * or _
	tokenBreak          // \n
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits the review body into text runs and markup markers.
// Markers are emitted as their own tokens; pairing happens in render.
func tokenize(input string) []token {
	var tokens []token
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			tokens = append(tokens, token{kind: tokenText, text: text.String()})
			text.Reset()
		}
	}

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				flush()
				tokens = append(tokens, token{kind: tokenBold})
				i++
				continue
			}
			flush()
			tokens = append(tokens, token{kind: tokenItalic})
		case '_':
			flush()
			tokens = append(tokens, token{kind: tokenItalic})
		case '\r':
			// swallowed; the following \n emits the break
		case '\n':
			flush()
			tokens = append(tokens, token{kind: tokenBreak})
		default:
			text.WriteRune(runes[i])
		}
	}
	flush()
	return tokens
}

// FormatHTML renders a review body to display HTML. Text content is escaped;
// **bold**, *italic*/_italic_ pairs become <strong>/<em>, newlines become
// <br>. Unpaired markers render literally so a stray asterisk never swallows
// the rest of the review.
func FormatHTML(input string) string {
	tokens := tokenize(input)

	var out strings.Builder
	boldOpen := false
	italicOpen := false

	// A closing marker is only valid if an opening one is pending and there
	// is a matching marker later; otherwise the marker is literal text.
	remaining := func(from int, kind tokenKind) bool {
		for _, t := range tokens[from:] {
			if t.kind == kind {
				return true
			}
		}
		return false
	}

	for i, t := range tokens {
		switch t.kind {
		case tokenText:
			out.WriteString(html.EscapeString(t.text))
		case tokenBreak:
			out.WriteString("<br>")
		case tokenBold:
			switch {
			case boldOpen:
				out.WriteString("</strong>")
				boldOpen = false
			case remaining(i+1, tokenBold):
				out.WriteString("<strong>")
				boldOpen = true
			default:
				out.WriteString("**")
			}
		case tokenItalic:
			switch {
			case italicOpen:
				out.WriteString("</em>")
				italicOpen = false
			case remaining(i+1, tokenItalic):
				out.WriteString("<em>")
				italicOpen = true
			default:
				out.WriteString("*")
			}
		}
	}

	// Close anything left dangling so the output is always balanced.
	if italicOpen {
		out.WriteString("</em>")
	}
	if boldOpen {
		out.WriteString("</strong>")
	}
	return out.String()
}
