package book

import (
	"fmt"
	"strings"

	"github.com/dgallion1/simplebook/internal/element"
)

// ExportMarkdown renders the book as a single markdown document. Inline
// emphasis markers from extraction are kept verbatim.
func (b *Book) ExportMarkdown() string {
	var sb strings.Builder
	if b.Metadata.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", b.Metadata.Title)
	}
	if b.Metadata.Author != "" {
		fmt.Fprintf(&sb, "by %s\n\n", b.Metadata.Author)
	}
	for _, ch := range b.Chapters {
		fmt.Fprintf(&sb, "## %s\n\n", ch.Name)
		for _, el := range ch.Elements {
			writeMarkdownElement(&sb, el)
		}
	}
	return sb.String()
}

// headingLevel reads the heading level from element meta. JSON round-trips
// decode numbers as float64, so both numeric forms are accepted.
func headingLevel(v any) (int, bool) {
	switch l := v.(type) {
	case int:
		return l, true
	case float64:
		return int(l), true
	}
	return 0, false
}

func writeMarkdownElement(sb *strings.Builder, el *element.Element) {
	text := el.Text
	if el.Markdown != "" {
		text = el.Markdown
	}
	switch el.Type {
	case element.TypeHeading:
		level := 3
		if l, ok := headingLevel(el.Meta["level"]); ok && l > 1 {
			level = 2 + l
		}
		if level > 6 {
			level = 6
		}
		fmt.Fprintf(sb, "%s %s\n\n", strings.Repeat("#", level), text)
	case element.TypeBlockquote:
		fmt.Fprintf(sb, "> %s\n\n", text)
	case element.TypeCite:
		fmt.Fprintf(sb, "> -- %s\n\n", text)
	case element.TypeListItem:
		fmt.Fprintf(sb, "- %s\n", text)
	case element.TypeDefinitionTerm:
		fmt.Fprintf(sb, "**%s**\n", text)
	case element.TypeDefinitionDesc:
		fmt.Fprintf(sb, ": %s\n\n", text)
	case element.TypeCaption:
		fmt.Fprintf(sb, "*%s*\n\n", text)
	case element.TypeTable:
		for i, row := range el.Rows {
			fmt.Fprintf(sb, "| %s |\n", strings.Join(row, " | "))
			if i == 0 {
				sb.WriteString("|" + strings.Repeat(" --- |", len(row)) + "\n")
			}
		}
		sb.WriteString("\n")
	default:
		fmt.Fprintf(sb, "%s\n\n", text)
	}
}
