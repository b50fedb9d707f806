package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/simplebook/internal/textnorm"
)

// Italic span marker used when re-rendering inline emphasis from raw markup.
const italicMarker = "///"

// inlineMarkdown re-renders a node's inline content with emphasis markers:
// em/i spans are wrapped in /// markers, strong/b in **. Citations nested in a
// blockquote are excluded, matching the blockquote's plain text. Sibling text
// nodes are separated the same way NodeText separates them, so the rendering
// and the plain text split into the same words. The second return reports
// whether any emphasis tag was encountered.
func inlineMarkdown(n *html.Node) (string, bool) {
	skipCite := n.Type == html.ElementNode && strings.EqualFold(n.Data, "blockquote")
	sawEmphasis := false

	var collect func(*html.Node) []string
	collect = func(n *html.Node) []string {
		var parts []string
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				parts = append(parts, c.Data)
			case html.ElementNode:
				name := strings.ToLower(c.Data)
				if skipCite && name == "cite" {
					continue
				}
				var mark string
				switch name {
				case "em", "i":
					mark = italicMarker
				case "strong", "b":
					mark = "**"
				}
				if mark == "" {
					parts = append(parts, collect(c)...)
					continue
				}
				sawEmphasis = true
				inner := strings.Join(strings.Fields(strings.Join(collect(c), "\n")), " ")
				parts = append(parts, mark+inner+mark)
			}
		}
		return parts
	}

	parts := collect(n)
	return textnorm.Clean(strings.Join(parts, "\n")), sawEmphasis
}
