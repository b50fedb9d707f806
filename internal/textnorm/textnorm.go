// Package textnorm normalizes raw book text into a 7-bit-safe canonical form.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Quote markers emitted in place of double-quote characters. Downstream
// chunking treats them as dialogue/exchange markers.
const (
	OpenQuote  = "<<"
	CloseQuote = ">>"
)

// doubleQuoteChars covers straight, curly-left, curly-right, and low-double quotes.
var doubleQuoteChars = map[rune]bool{
	'"':      true,
	'“': true, // left double quotation mark
	'”': true, // right double quotation mark
	'„': true, // double low-9 quotation mark
}

// Clean normalizes raw text: line endings unified, double quotes paired into
// directional markers, non-ASCII transliterated away, whitespace collapsed.
// It is total and idempotent.
func Clean(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = PairQuotes(text)
	text = ToASCII(text)
	return strings.Join(strings.Fields(text), " ")
}

// PairQuotes replaces every double-quote-family character with an opening or
// closing marker by toggling parity, starting open. Unbalanced quoting in the
// source is preserved as-is; no semantic matching is attempted.
func PairQuotes(text string) string {
	if text == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	open := true
	for _, ch := range text {
		if doubleQuoteChars[ch] {
			if open {
				b.WriteString(OpenQuote)
			} else {
				b.WriteString(CloseQuote)
			}
			open = !open
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// ToASCII transliterates text to 7-bit ASCII. Em and en dashes become a double
// hyphen; everything else goes through compatibility decomposition with
// non-ASCII remnants (combining accents included) dropped.
func ToASCII(text string) string {
	if text == "" {
		return text
	}
	text = strings.ReplaceAll(text, "—", "--") // em dash
	text = strings.ReplaceAll(text, "–", "--") // en dash
	decomposed := norm.NFKD.String(text)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, ch := range decomposed {
		if ch < 128 {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
