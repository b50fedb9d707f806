// Package extract walks chapter HTML and emits the ordered typed element
// sequence. It is deliberately strict: text found outside the allowed tag set
// fails extraction rather than being dropped silently.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/simplebook/internal/element"
	"github.com/dgallion1/simplebook/internal/textnorm"
)

// elementTagTypes maps emitting tags to their element type.
var elementTagTypes = map[string]string{
	"p":          element.TypeParagraph,
	"blockquote": element.TypeBlockquote,
	"li":         element.TypeListItem,
	"dt":         element.TypeDefinitionTerm,
	"dd":         element.TypeDefinitionDesc,
	"cite":       element.TypeCite,
	"figcaption": element.TypeCaption,
	"caption":    element.TypeCaption,
	"table":      element.TypeTable,
}

// headingLevels maps heading tags to their level.
var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

var tableCellTags = map[string]bool{"td": true, "th": true}

// containerTags are transparent: their children are visited but the tags
// themselves emit nothing.
var containerTags = map[string]bool{
	"div": true, "section": true, "article": true, "header": true,
	"footer": true, "aside": true, "main": true, "figure": true,
	"ul": true, "ol": true, "dl": true,
	"tbody": true, "thead": true, "tfoot": true, "tr": true,
}

// strippedTags are pruned outright, text and all.
var strippedTags = map[string]bool{
	"script": true, "style": true, "nav": true, "noscript": true,
}

// allowedTextTags is the set of tags under which loose text may live.
var allowedTextTags = func() map[string]bool {
	allowed := make(map[string]bool)
	for tag := range elementTagTypes {
		allowed[tag] = true
	}
	for tag := range headingLevels {
		allowed[tag] = true
	}
	for tag := range tableCellTags {
		allowed[tag] = true
	}
	return allowed
}()

// UnsupportedMarkupError reports a non-whitespace text node with no allowed
// ancestor tag.
type UnsupportedMarkupError struct {
	Parent  string
	Snippet string
}

func (e *UnsupportedMarkupError) Error() string {
	return fmt.Sprintf("unsupported text outside allowed tags (parent <%s>): %s", e.Parent, e.Snippet)
}

// ParseFragment parses one chapter HTML fragment and prunes stripped tags
// from the resulting tree.
func ParseFragment(data []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	pruneStripped(doc)
	return doc, nil
}

// Extract parses the fragment and returns its ordered element sequence.
func Extract(data []byte) ([]*element.Element, error) {
	doc, err := ParseFragment(data)
	if err != nil {
		return nil, err
	}
	return Elements(doc)
}

// Elements walks an already-parsed fragment and returns its ordered element
// sequence. The walk starts at <body> when present.
func Elements(doc *html.Node) ([]*element.Element, error) {
	root := Body(doc)
	if root == nil {
		root = doc
	}
	if err := assertSupportedText(root); err != nil {
		return nil, err
	}

	w := &walker{}
	w.walk(root, nil)
	return w.elements, nil
}

type walker struct {
	elements   []*element.Element
	sawHeading bool
}

func (w *walker) emit(el *element.Element, n *html.Node, path []string) {
	el.RawHTML = renderNode(n)
	el.Path = append([]string(nil), path...)
	if md, emphasized := inlineMarkdown(n); emphasized {
		el.Markdown = md
	}
	w.elements = append(w.elements, el)
}

func (w *walker) walk(n *html.Node, path []string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		name := strings.ToLower(c.Data)
		if strippedTags[name] {
			continue
		}
		if containerTags[name] {
			w.walk(c, append(path, name))
			continue
		}
		if level, ok := headingLevels[name]; ok {
			if text := NodeText(c); text != "" {
				role := element.RoleHeading
				if !w.sawHeading {
					role = element.RoleTitle
					w.sawHeading = true
				}
				w.emit(&element.Element{
					Type: element.TypeHeading,
					Text: text,
					Role: role,
					Meta: map[string]any{"level": level},
				}, c, path)
			}
			continue
		}
		switch name {
		case "blockquote":
			if text := blockquoteText(c); text != "" {
				w.emit(&element.Element{
					Type: element.TypeBlockquote,
					Text: text,
					Role: element.RoleBody,
				}, c, path)
			}
			for _, cite := range findAll(c, "cite") {
				if text := NodeText(cite); text != "" {
					w.emit(&element.Element{
						Type: element.TypeCite,
						Text: text,
						Role: element.RoleComment,
					}, cite, append(path, name))
				}
			}
		case "table":
			caption := findFirst(c, "caption")
			if caption == nil {
				caption = findFirst(c, "figcaption")
			}
			if caption != nil {
				if text := NodeText(caption); text != "" {
					w.emit(&element.Element{
						Type: element.TypeCaption,
						Text: text,
						Role: element.RoleComment,
					}, caption, append(path, name))
				}
			}
			if rows := tableRows(c); len(rows) > 0 {
				w.emit(&element.Element{
					Type: element.TypeTable,
					Rows: rows,
					Role: element.RoleBody,
				}, c, path)
			}
		default:
			if typ, ok := elementTagTypes[name]; ok {
				if text := NodeText(c); text != "" {
					role := element.RoleBody
					if typ == element.TypeCite || typ == element.TypeCaption {
						role = element.RoleComment
					}
					w.emit(&element.Element{Type: typ, Text: text, Role: role}, c, path)
				}
				continue
			}
			// Unknown tags are transparent.
			w.walk(c, append(path, name))
		}
	}
}

// assertSupportedText fails if any non-whitespace text node lacks an allowed
// ancestor tag.
func assertSupportedText(root *html.Node) error {
	var check func(n *html.Node, allowed bool, parent string) error
	check = func(n *html.Node, allowed bool, parent string) error {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if allowed || strings.TrimSpace(c.Data) == "" {
					continue
				}
				return &UnsupportedMarkupError{Parent: parent, Snippet: snippet(c.Data)}
			case html.ElementNode:
				name := strings.ToLower(c.Data)
				if strippedTags[name] {
					continue
				}
				if err := check(c, allowed || allowedTextTags[name], name); err != nil {
					return err
				}
			}
		}
		return nil
	}
	parent := "unknown"
	if root.Type == html.ElementNode {
		parent = root.Data
	}
	return check(root, root.Type == html.ElementNode && allowedTextTags[strings.ToLower(root.Data)], parent)
}

func snippet(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}

// NodeText returns the cleaned text content of a node.
func NodeText(n *html.Node) string {
	var parts []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return textnorm.Clean(strings.Join(parts, "\n"))
}

// blockquoteText collects a blockquote's text excluding nested citations.
func blockquoteText(n *html.Node) string {
	var parts []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "cite") {
			return
		}
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return textnorm.Clean(strings.Join(parts, "\n"))
}

// tableRows collects cleaned cell text row by row. Rows without cells are
// dropped; empty cells are kept to preserve column positions.
func tableRows(n *html.Node) [][]string {
	var rows [][]string
	for _, tr := range findAll(n, "tr") {
		var cells []string
		for _, cell := range findAllCells(tr) {
			cells = append(cells, NodeText(cell))
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// Body returns the document's <body> node, or nil.
func Body(n *html.Node) *html.Node {
	return findFirst(n, "body")
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

func findAllCells(tr *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && tableCellTags[strings.ToLower(n.Data)] {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

func pruneStripped(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.ElementNode && strippedTags[strings.ToLower(c.Data)] {
			n.RemoveChild(c)
		} else {
			pruneStripped(c)
		}
		c = next
	}
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}
