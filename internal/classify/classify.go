// Package classify labels a chapter HTML fragment and decides whether it is
// real content or front/back matter.
package classify

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/simplebook/internal/element"
	"github.com/dgallion1/simplebook/internal/extract"
	"github.com/dgallion1/simplebook/internal/textnorm"
)

// Kind is the classification of one spine fragment.
type Kind string

const (
	KindFront   Kind = "front"
	KindBack    Kind = "back"
	KindChapter Kind = "chapter"
	KindOther   Kind = "other"
)

// chapterElementThreshold promotes an unlabeled fragment to chapter when it
// holds at least this many non-empty elements.
const chapterElementThreshold = 10

var frontMatterKeywords = []string{
	"titlepage", "title page", "cover", "copyright", "dedication",
	"preface", "prologue", "foreword", "illustrations", "frontispiece",
	"imprint", "halftitle",
}

var backMatterKeywords = []string{
	"acknowledgment", "acknowledgement", "epilogue", "afterword",
	"appendix", "glossary", "bibliography", "colophon", "about",
}

var chapterPatterns = []string{"chapter", "ch.", "book", "part"}

// headingClassKeywords mark a styled node as heading-like via its class list
// or epub:type.
var headingClassKeywords = []string{"title", "subtitle", "chapter", "heading"}

// romanNumerals is the set of Roman numeral tokens for 1..50.
var romanNumerals = func() map[string]bool {
	set := make(map[string]bool, 50)
	for n := 1; n <= 50; n++ {
		set[toRoman(n)] = true
	}
	return set
}()

func toRoman(n int) string {
	values := []struct {
		value  int
		symbol string
	}{
		{50, "l"}, {40, "xl"}, {10, "x"}, {9, "ix"},
		{5, "v"}, {4, "iv"}, {1, "i"},
	}
	var b strings.Builder
	for _, v := range values {
		for n >= v.value {
			b.WriteString(v.symbol)
			n -= v.value
		}
	}
	return b.String()
}

// Classify derives a label from the fragment's masthead, classifies it, and
// returns the extracted elements. Extraction runs for every fragment no
// matter how the label classifies, so unsupported markup surfaces even in
// front and back matter. The element-count fallback promotes substantial
// unlabeled fragments to chapters.
func Classify(data []byte) (string, Kind, []*element.Element, error) {
	doc, err := extract.ParseFragment(data)
	if err != nil {
		return "", KindOther, nil, err
	}
	label := Label(doc)

	elements, err := extract.Elements(doc)
	if err != nil {
		return label, KindOther, nil, err
	}

	kind := classifyLabel(label)
	if kind == KindOther {
		count := 0
		for _, el := range elements {
			if el.TextLength() > 0 {
				count++
			}
		}
		if count >= chapterElementThreshold {
			kind = KindChapter
		}
	}
	return label, kind, elements, nil
}

// classifyLabel applies the keyword precedence: front matter, back matter,
// table of contents, then the chapter pattern.
func classifyLabel(label string) Kind {
	lowered := strings.ToLower(strings.TrimSpace(label))
	if lowered == "" {
		return KindOther
	}
	for _, key := range frontMatterKeywords {
		if strings.Contains(lowered, key) {
			return KindFront
		}
	}
	for _, key := range backMatterKeywords {
		if strings.Contains(lowered, key) {
			return KindBack
		}
	}
	for _, key := range []string{"toc", "contents"} {
		if strings.Contains(lowered, key) {
			return KindFront
		}
	}
	if matchesChapter(lowered) {
		return KindChapter
	}
	return KindOther
}

// matchesChapter reports whether text looks like a chapter heading: a chapter
// keyword, a Roman numeral token, or any digit.
func matchesChapter(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return false
	}
	for _, pat := range chapterPatterns {
		if strings.Contains(lowered, pat) {
			return true
		}
	}
	tokens := strings.Fields(strings.NewReplacer(".", " ", "-", " ").Replace(lowered))
	for _, tok := range tokens {
		if romanNumerals[tok] {
			return true
		}
	}
	return strings.ContainsAny(lowered, "0123456789")
}

// Label joins the fragment's distinct masthead heading texts with " - ",
// skipping any text already contained in the accumulated label.
func Label(doc *html.Node) string {
	texts := headingTexts(doc)
	label := ""
	for _, text := range texts {
		if label == "" {
			label = text
			continue
		}
		if strings.Contains(strings.ToLower(label), strings.ToLower(text)) {
			continue
		}
		label = label + " - " + text
	}
	return label
}

// headingTexts collects the document title plus every heading-like node,
// walking top-down and stopping at the first body paragraph. This bounds the
// scan to the masthead at the top of the fragment.
func headingTexts(doc *html.Node) []string {
	var texts []string
	seen := make(map[string]bool)
	add := func(text string) {
		cleaned := textnorm.Clean(text)
		if cleaned != "" && !seen[cleaned] {
			texts = append(texts, cleaned)
			seen[cleaned] = true
		}
	}

	if title := findTitle(doc); title != nil {
		add(extract.NodeText(title))
	}

	root := extract.Body(doc)
	if root == nil {
		root = doc
	}

	stop := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil && !stop; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			name := strings.ToLower(c.Data)

			if name == "p" {
				text := extract.NodeText(c)
				if text == "" {
					continue
				}
				if hasHeadingStyle(c) {
					add(text)
					continue
				}
				// First real body paragraph ends the masthead.
				stop = true
				return
			}

			if isHeadingLike(c, name) {
				add(extract.NodeText(c))
			}
			walk(c)
		}
	}
	walk(root)
	return texts
}

func isHeadingLike(n *html.Node, name string) bool {
	switch name {
	case "h1", "h2", "h3", "h4", "h5", "h6", "subtitle":
		return true
	}
	if attrValue(n, "role") == "heading" {
		return true
	}
	return hasHeadingStyle(n)
}

// hasHeadingStyle checks class and epub:type attributes for heading keywords.
func hasHeadingStyle(n *html.Node) bool {
	classes := strings.ToLower(attrValue(n, "class"))
	epubType := strings.ToLower(attrValue(n, "epub:type"))
	for _, key := range headingClassKeywords {
		if strings.Contains(classes, key) || strings.Contains(epubType, key) {
			return true
		}
	}
	return false
}

// attrValue looks up an attribute by key, tolerating namespaced forms like
// epub:type that x/net/html may split into namespace and local name.
func attrValue(n *html.Node, key string) string {
	ns, local := "", key
	if idx := strings.IndexByte(key, ':'); idx >= 0 {
		ns, local = key[:idx], key[idx+1:]
	}
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
		if ns != "" && strings.EqualFold(attr.Namespace, ns) && strings.EqualFold(attr.Key, local) {
			return attr.Val
		}
	}
	return ""
}

func findTitle(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, "title") {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTitle(c); found != nil {
			return found
		}
	}
	return nil
}
