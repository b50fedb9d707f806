// Package element defines the typed content units extracted from chapter HTML.
package element

import (
	"strings"

	"github.com/dgallion1/simplebook/internal/textnorm"
)

// Element types. Every extracted unit is exactly one of these.
const (
	TypeParagraph      = "paragraph"
	TypeHeading        = "heading"
	TypeBlockquote     = "blockquote"
	TypeListItem       = "list_item"
	TypeDefinitionTerm = "definition_term"
	TypeDefinitionDesc = "definition_desc"
	TypeCite           = "cite"
	TypeCaption        = "caption"
	TypeTable          = "table"
)

// Coarse purpose roles. The first heading in a fragment is the title,
// later headings are plain headings, cite/caption annotate neighbors,
// everything else is body text.
const (
	RoleTitle   = "title"
	RoleHeading = "heading"
	RoleBody    = "body"
	RoleComment = "comment"
)

// Exchange markers recognized in element text. << and >> are the paired quote
// markers produced by normalization; /// wraps italic spans when rendering
// from raw markup.
var exchangeMarkers = []string{"<<", ">>", "///"}

// Element is one typed, cleaned content unit. Text and Rows are mutually
// exclusive: Rows is set only for tables. RawHTML and Path are kept for
// traceability and inline re-rendering; they are never serialized.
type Element struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Rows     [][]string     `json:"rows,omitempty"`
	Markdown string         `json:"markdown,omitempty"`
	Role     string         `json:"role,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
	RawHTML  string         `json:"-"`
	Path     []string       `json:"-"`
}

// ContentString flattens the element to plain text. Table rows are joined
// cell-wise with " | " and row-wise with newlines.
func (e *Element) ContentString() string {
	if e.Text != "" {
		return e.Text
	}
	if len(e.Rows) > 0 {
		lines := make([]string, 0, len(e.Rows))
		for _, row := range e.Rows {
			lines = append(lines, strings.Join(row, " | "))
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

// TextLength is the total number of content characters.
func (e *Element) TextLength() int {
	if e.Text != "" {
		return len(e.Text)
	}
	n := 0
	for _, row := range e.Rows {
		for _, cell := range row {
			n += len(cell)
		}
	}
	return n
}

// WordCount counts whitespace-separated words in the flattened content.
func (e *Element) WordCount() int {
	return len(strings.Fields(e.ContentString()))
}

// MarkerText is the string scanned for exchange markers: the markdown
// rendering when present (it carries /// italic markers), otherwise the
// normalized text.
func (e *Element) MarkerText() string {
	if e.Markdown != "" {
		return e.Markdown
	}
	return e.ContentString()
}

// OpensWithQuote reports whether the element text begins with an opening
// quote marker.
func (e *Element) OpensWithQuote() bool {
	return strings.HasPrefix(strings.TrimSpace(e.MarkerText()), "<<")
}

// ContainsMarker reports whether the element text contains any exchange marker.
func (e *Element) ContainsMarker() bool {
	text := e.MarkerText()
	for _, m := range exchangeMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// WordsAfterLastMarker counts the words following the last exchange marker in
// text. If text has no marker, every word counts.
func WordsAfterLastMarker(text string) int {
	start, end := -1, -1
	for _, m := range exchangeMarkers {
		if idx := strings.LastIndex(text, m); idx > start {
			start, end = idx, idx+len(m)
		}
	}
	if start >= 0 {
		return len(strings.Fields(text[end:]))
	}
	return len(strings.Fields(text))
}

// WordsBeforeFirstMarker counts the words preceding the first exchange marker
// in text. If text has no marker, every word counts.
func WordsBeforeFirstMarker(text string) int {
	first := len(text)
	for _, m := range exchangeMarkers {
		if idx := strings.Index(text, m); idx >= 0 && idx < first {
			first = idx
		}
	}
	return len(strings.Fields(text[:first]))
}

// Preview returns a copy stripped to its type, for structural diffing.
func (e *Element) Preview() *Element {
	return &Element{Type: e.Type}
}

// Normalize re-runs text normalization over the element content. Cleaning is
// idempotent, so this is safe on already-extracted elements.
func (e *Element) Normalize() {
	if e.Text != "" {
		e.Text = textnorm.Clean(e.Text)
	}
	for _, row := range e.Rows {
		for i, cell := range row {
			row[i] = textnorm.Clean(cell)
		}
	}
}
