// Package book assembles classified chapter fragments into the final
// normalized document tree.
package book

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/simplebook/internal/chunk"
	"github.com/dgallion1/simplebook/internal/classify"
	"github.com/dgallion1/simplebook/internal/element"
	"github.com/dgallion1/simplebook/internal/epub"
	"github.com/dgallion1/simplebook/internal/extract"
)

// Metadata carries the book's bibliographic fields.
type Metadata struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Language string `json:"language"`
	ISBN     string `json:"isbn"`
	UUID     string `json:"uuid"`
}

// Chapter is one classified content fragment: its derived label, ordered
// element sequence, and chunk-start indices.
type Chapter struct {
	Name        string             `json:"name"`
	Elements    []*element.Element `json:"elements"`
	ChunkStarts []int              `json:"chunks"`
}

// Book is the assembled document.
type Book struct {
	Metadata Metadata   `json:"metadata"`
	Chapters []*Chapter `json:"chapters"`
}

// Options controls assembly.
type Options struct {
	// Workers bounds the goroutines planning chunks across chapters.
	// Zero or negative means sequential.
	Workers int
}

// FromSource classifies every spine item and plans chunk boundaries for the
// chapter fragments. Classification extracts each fragment's elements along
// the way, so unsupported markup anywhere, front and back matter included,
// aborts the whole conversion. Front matter, back matter, and uninterpretable
// fragments are excluded from the output.
func FromSource(src *epub.Source, opts Options) (*Book, error) {
	b := &Book{Metadata: metadataFrom(src)}

	for _, item := range src.Items {
		label, kind, elements, err := classify.Classify(item.Data)
		if err != nil {
			var unsupported *extract.UnsupportedMarkupError
			if errors.As(err, &unsupported) {
				return nil, fmt.Errorf("fragment %s: %w", item.Href, err)
			}
			// Uninterpretable fragments are skipped, not fatal.
			continue
		}
		if kind != classify.KindChapter || label == "" {
			continue
		}
		if len(elements) == 0 {
			continue
		}
		b.Chapters = append(b.Chapters, &Chapter{Name: label, Elements: elements})
	}

	planChunks(b.Chapters, opts.Workers)
	return b, nil
}

// metadataFrom maps source metadata, tagging identifiers by substring: the
// first "isbn" identifier keeps only the part after its last colon, the first
// "uuid" identifier is kept whole, and the first identifier of any kind backs
// the UUID when none is tagged.
func metadataFrom(src *epub.Source) Metadata {
	md := Metadata{
		Title:    src.Title,
		Author:   src.Author,
		Language: src.Language,
	}
	for _, ident := range src.Identifiers {
		if ident == "" {
			continue
		}
		lowered := strings.ToLower(ident)
		if strings.Contains(lowered, "isbn") && md.ISBN == "" {
			parts := strings.Split(ident, ":")
			md.ISBN = parts[len(parts)-1]
		}
		if strings.Contains(lowered, "uuid") && md.UUID == "" {
			md.UUID = ident
		}
	}
	if md.UUID == "" && len(src.Identifiers) > 0 {
		md.UUID = src.Identifiers[0]
	}
	return md
}

// planChunks computes chunk boundaries for every chapter. Planning is a pure
// function of one chapter's elements, so chapters fan out across a bounded
// worker pool; results are index-addressed and the output is deterministic.
func planChunks(chapters []*Chapter, workers int) {
	if workers <= 1 || len(chapters) <= 1 {
		for _, ch := range chapters {
			ch.ChunkStarts = chunk.Plan(ch.Elements)
		}
		return
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, ch := range chapters {
		wg.Add(1)
		sem <- struct{}{}
		go func(ch *Chapter) {
			defer wg.Done()
			defer func() { <-sem }()
			ch.ChunkStarts = chunk.Plan(ch.Elements)
		}(ch)
	}
	wg.Wait()
}

// Normalize re-runs text normalization across the tree. Safe to repeat.
func (b *Book) Normalize() {
	for _, ch := range b.Chapters {
		ch.Normalize()
	}
}

// Normalize re-cleans every element in the chapter.
func (c *Chapter) Normalize() {
	for _, el := range c.Elements {
		el.Normalize()
	}
}

// Validate reports structural issues without fixing them.
func (b *Book) Validate() []string {
	var issues []string
	for i, ch := range b.Chapters {
		for _, issue := range ch.validate() {
			issues = append(issues, fmt.Sprintf("chapter %d (%s): %s", i, ch.Name, issue))
		}
	}
	return issues
}

func (c *Chapter) validate() []string {
	var issues []string
	if len(c.Elements) > 0 && (len(c.ChunkStarts) == 0 || c.ChunkStarts[0] != 0) {
		issues = append(issues, "chunk starts must begin with 0")
	}
	if !sort.IntsAreSorted(c.ChunkStarts) {
		issues = append(issues, "chunk starts not sorted")
	}
	for i, s := range c.ChunkStarts {
		if s < 0 || s >= len(c.Elements) {
			issues = append(issues, fmt.Sprintf("chunk start %d out of range", s))
		}
		if i > 0 && s == c.ChunkStarts[i-1] {
			issues = append(issues, fmt.Sprintf("duplicate chunk start %d", s))
		}
	}
	for i, el := range c.Elements {
		if el.Type != element.TypeTable && len(el.Rows) > 0 {
			issues = append(issues, fmt.Sprintf("element %d: rows on non-table element", i))
		}
		if el.Text != "" && len(el.Rows) > 0 {
			issues = append(issues, fmt.Sprintf("element %d: both text and rows set", i))
		}
	}
	return issues
}

// Repair re-cleans text and replans chunk boundaries for chapters whose
// boundary list fails validation.
func (b *Book) Repair() {
	b.Normalize()
	for _, ch := range b.Chapters {
		if len(ch.validate()) > 0 {
			ch.ChunkStarts = chunk.Plan(ch.Elements)
		}
	}
}
