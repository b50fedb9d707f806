package book

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgallion1/simplebook/internal/epub"
)

// Convert runs the whole conversion: parse the container, assemble, then the
// normalize/validate/repair passes. The result is ready to serialize.
func Convert(data []byte, opts Options) (*Book, error) {
	src, err := epub.Parse(data)
	if err != nil {
		return nil, err
	}
	b, err := FromSource(src, opts)
	if err != nil {
		return nil, err
	}
	b.Normalize()
	if issues := b.Validate(); len(issues) > 0 {
		b.Repair()
	}
	return b, nil
}

// Serialize renders the book as indented JSON. In preview mode every element
// is stripped to its type, for lightweight structural diffing.
func (b *Book) Serialize(preview bool) ([]byte, error) {
	out := b
	if preview {
		out = b.preview()
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize book: %w", err)
	}
	return data, nil
}

// Deserialize loads a book from its serialized JSON form.
func Deserialize(data []byte) (*Book, error) {
	var b Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("deserialize book: %w", err)
	}
	return &b, nil
}

// WriteJSON writes the serialized book to a file.
func (b *Book) WriteJSON(filename string) error {
	data, err := b.Serialize(false)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

func (b *Book) preview() *Book {
	out := &Book{Metadata: b.Metadata}
	for _, ch := range b.Chapters {
		pc := &Chapter{
			Name:        ch.Name,
			ChunkStarts: ch.ChunkStarts,
		}
		for _, el := range ch.Elements {
			pc.Elements = append(pc.Elements, el.Preview())
		}
		out.Chapters = append(out.Chapters, pc)
	}
	return out
}
