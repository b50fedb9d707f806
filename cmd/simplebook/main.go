// Command simplebook converts EPUB books to normalized chunked JSON from the
// command line, without going through the HTTP service.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/simplebook/internal/book"
	"github.com/dgallion1/simplebook/internal/chunk"
)

const version = "0.1.0"

// CLI defines the command-line interface for simplebook.
var CLI struct {
	Workers int `name:"workers" short:"w" default:"4" help:"Chapter planning concurrency"`

	Convert ConvertCmd `cmd:"" help:"Convert an EPUB to chunked JSON"`
	Stats   StatsCmd   `cmd:"" help:"Report chapter and chunk statistics for an EPUB"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ConvertCmd converts a single EPUB file.
type ConvertCmd struct {
	Path    string `arg:"" help:"Path to EPUB file" type:"existingfile"`
	Out     string `name:"out" short:"o" help:"Output path (default: input with .json extension)"`
	Preview bool   `name:"preview" help:"Emit the structural preview instead of full elements"`
}

func (c *ConvertCmd) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}
	b, err := book.Convert(data, book.Options{Workers: CLI.Workers})
	if err != nil {
		return fmt.Errorf("convert %s: %w", c.Path, err)
	}

	out := c.Out
	if out == "" {
		out = strings.TrimSuffix(c.Path, filepath.Ext(c.Path)) + ".json"
	}
	payload, err := b.Serialize(c.Preview)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, payload, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d chapters)\n", out, len(b.Chapters))
	return nil
}

// StatsCmd prints a chapter/chunk histogram report for an EPUB.
type StatsCmd struct {
	Path string `arg:"" help:"Path to EPUB file" type:"existingfile"`
}

func (c *StatsCmd) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}
	b, err := book.Convert(data, book.Options{Workers: CLI.Workers})
	if err != nil {
		return fmt.Errorf("convert %s: %w", c.Path, err)
	}

	fmt.Printf("%s by %s\n", b.Metadata.Title, b.Metadata.Author)
	fmt.Printf("chapters: %d\n\n", len(b.Chapters))

	typeCounts := map[string]int{}
	totalElements, totalChunks, totalWords := 0, 0, 0

	for _, ch := range b.Chapters {
		ranges := chunk.Ranges(ch.ChunkStarts, len(ch.Elements))
		words := 0
		for _, el := range ch.Elements {
			words += el.WordCount()
			typeCounts[el.Type]++
		}
		totalElements += len(ch.Elements)
		totalChunks += len(ranges)
		totalWords += words

		fmt.Printf("%s: %d elements, %d words, %d chunks\n",
			ch.Name, len(ch.Elements), words, len(ranges))
		for i, rg := range ranges {
			chunkWords := 0
			for _, el := range ch.Elements[rg[0] : rg[1]+1] {
				chunkWords += el.WordCount()
			}
			fmt.Printf("  chunk %2d: elements %3d-%3d  %s %d words\n",
				i, rg[0], rg[1], bar(chunkWords, 10), chunkWords)
		}
	}

	fmt.Printf("\ntotals: %d elements, %d words, %d chunks\n", totalElements, totalWords, totalChunks)

	types := make([]string, 0, len(typeCounts))
	for t := range typeCounts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-12s %d\n", t, typeCounts[t])
	}
	return nil
}

// bar renders a proportional histogram bar, one mark per unit words.
func bar(words, unit int) string {
	n := words / unit
	if n > 40 {
		n = 40
	}
	return strings.Repeat("#", n)
}

// VersionCmd prints the tool version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("simplebook version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("simplebook"),
		kong.Description("EPUB to normalized chunked JSON converter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
