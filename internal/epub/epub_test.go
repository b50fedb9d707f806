package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
)

// buildZipWithout copies a zip archive, dropping the named file.
func buildZipWithout(t *testing.T, data []byte, skip string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reopen zip: %v", err)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if f.Name == skip {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		w, err := zw.Create(f.Name)
		if err != nil {
			t.Fatalf("create %s: %v", f.Name, err)
		}
		if _, err := io.Copy(w, rc); err != nil {
			t.Fatalf("copy %s: %v", f.Name, err)
		}
		rc.Close()
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func buildTestEPUB(t *testing.T) []byte {
	t.Helper()
	b := &Builder{
		Title:      "The Test Book",
		Author:     "A. Writer",
		Language:   "en",
		Identifier: "urn:isbn:9781234567897",
	}
	b.AddChapter("text/ch1.xhtml", "<h1>Chapter 1</h1><p>First chapter text.</p>")
	b.AddChapter("text/ch2.xhtml", "<h1>Chapter 2</h1><p>Second chapter text.</p>")
	data, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return data
}

func TestParseMetadata(t *testing.T) {
	src, err := Parse(buildTestEPUB(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if src.Title != "The Test Book" {
		t.Errorf("title = %q", src.Title)
	}
	if src.Author != "A. Writer" {
		t.Errorf("author = %q", src.Author)
	}
	if src.Language != "en" {
		t.Errorf("language = %q", src.Language)
	}
	if len(src.Identifiers) != 1 || src.Identifiers[0] != "urn:isbn:9781234567897" {
		t.Errorf("identifiers = %v", src.Identifiers)
	}
}

func TestParseSpineOrder(t *testing.T) {
	src, err := Parse(buildTestEPUB(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(src.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(src.Items))
	}
	if src.Items[0].Href != "OEBPS/text/ch1.xhtml" {
		t.Errorf("first item href = %q", src.Items[0].Href)
	}
	if !strings.Contains(string(src.Items[0].Data), "First chapter text.") {
		t.Errorf("first item content: %q", src.Items[0].Data)
	}
	if !strings.Contains(string(src.Items[1].Data), "Second chapter text.") {
		t.Errorf("second item content: %q", src.Items[1].Data)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not a zip archive")); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

func TestParseRequiresContainer(t *testing.T) {
	// A valid zip without META-INF/container.xml must fail.
	stripped := buildZipWithout(t, buildTestEPUB(t), containerPath)
	if _, err := Parse(stripped); err == nil {
		t.Fatal("expected error when container.xml is missing")
	}
}

func TestResolveHref(t *testing.T) {
	tests := []struct {
		dir, href, want string
	}{
		{"OEBPS", "text/ch1.xhtml", "OEBPS/text/ch1.xhtml"},
		{".", "ch1.xhtml", "ch1.xhtml"},
		{"OEBPS", "ch1.xhtml#part2", "OEBPS/ch1.xhtml"},
		{"a/b", "../c.xhtml", "a/c.xhtml"},
	}
	for _, tt := range tests {
		if got := resolveHref(tt.dir, tt.href); got != tt.want {
			t.Errorf("resolveHref(%q, %q) = %q, want %q", tt.dir, tt.href, got, tt.want)
		}
	}
}
