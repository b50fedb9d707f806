package classify

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/simplebook/internal/extract"
)

func TestClassifyLabelKinds(t *testing.T) {
	tests := []struct {
		label string
		want  Kind
	}{
		{"Chapter IV", KindChapter},
		{"Chapter 12", KindChapter},
		{"Part Two", KindChapter},
		{"XIV", KindChapter},
		{"III. The Journey", KindChapter},
		{"Acknowledgments", KindBack},
		{"Epilogue", KindBack},
		{"About the Author", KindBack},
		{"Titlepage", KindFront},
		{"Copyright", KindFront},
		{"List of Illustrations", KindFront},
		{"Table of Contents", KindFront},
		{"Prologue", KindFront},
		{"", KindOther},
		{"A Quiet Interlude", KindOther},
	}
	for _, tt := range tests {
		if got := classifyLabel(tt.label); got != tt.want {
			t.Errorf("classifyLabel(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestMatchesChapterRomanNumerals(t *testing.T) {
	for _, text := range []string{"iv", "XL.", "x - the return", "chapter", "book one has no digit"} {
		if !matchesChapter(text) {
			t.Errorf("matchesChapter(%q) = false, want true", text)
		}
	}
	for _, text := range []string{"", "interlude", "m", "li"} {
		if matchesChapter(text) {
			t.Errorf("matchesChapter(%q) = true, want false", text)
		}
	}
}

func TestClassifyHeadingLabel(t *testing.T) {
	src := `<html><head><title>Chapter IV</title></head><body>
		<h1>Chapter IV</h1>
		<h2>The Dark Wood</h2>
		<p>It was a cold morning.</p>
	</body></html>`
	label, kind, _, err := Classify([]byte(src))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != "Chapter IV - The Dark Wood" {
		t.Errorf("label = %q", label)
	}
	if kind != KindChapter {
		t.Errorf("kind = %q, want chapter", kind)
	}
}

func TestClassifyLabelSkipsSubstrings(t *testing.T) {
	src := `<html><head><title>The Dark Wood</title></head><body>
		<h1>The Dark Wood</h1>
		<h2>Wood</h2>
	</body></html>`
	label, _, _, err := Classify([]byte(src))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != "The Dark Wood" {
		t.Errorf("label = %q, want substring fragments skipped", label)
	}
}

func TestClassifyMastheadStopsAtBodyParagraph(t *testing.T) {
	src := `<body>
		<h1>Chapter I</h1>
		<p>Plain narration begins here.</p>
		<p class="chapter-title">Should not be picked up</p>
	</body>`
	label, _, _, err := Classify([]byte(src))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != "Chapter I" {
		t.Errorf("label = %q, want %q", label, "Chapter I")
	}
}

func TestClassifyHeadingStyledParagraph(t *testing.T) {
	src := `<body>
		<p class="chapter-title">Chapter XI</p>
		<p>Body text follows.</p>
	</body>`
	label, kind, _, err := Classify([]byte(src))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != "Chapter XI" {
		t.Errorf("label = %q", label)
	}
	if kind != KindChapter {
		t.Errorf("kind = %q, want chapter", kind)
	}
}

func TestClassifyEpubTypeAttribute(t *testing.T) {
	src := `<body><p epub:type="title">The Hidden Valley Part 2</p><p>text</p></body>`
	label, kind, _, err := Classify([]byte(src))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != "The Hidden Valley Part 2" {
		t.Errorf("label = %q", label)
	}
	if kind != KindChapter {
		t.Errorf("kind = %q, want chapter", kind)
	}
}

func TestClassifyElementCountFallback(t *testing.T) {
	var b strings.Builder
	b.WriteString("<body>")
	for range 12 {
		b.WriteString("<p>Some narration without any label at all.</p>")
	}
	b.WriteString("</body>")
	label, kind, _, err := Classify([]byte(b.String()))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != "" {
		t.Errorf("label = %q, want empty", label)
	}
	if kind != KindChapter {
		t.Errorf("kind = %q, want chapter via element-count fallback", kind)
	}
}

func TestClassifySparseFragmentIsOther(t *testing.T) {
	src := `<body><p>one</p><p>two</p><p>three</p></body>`
	_, kind, _, err := Classify([]byte(src))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if kind != KindOther {
		t.Errorf("kind = %q, want other", kind)
	}
}

func TestClassifyReturnsElements(t *testing.T) {
	src := `<body><h1>Chapter I</h1><p>Narration begins.</p></body>`
	_, _, elements, err := Classify([]byte(src))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(elements))
	}
}

func TestClassifyStrictEvenForFrontMatter(t *testing.T) {
	// Stray text is a hard failure even when the label already classifies the
	// fragment as front or back matter.
	src := `<body><h1>Copyright</h1><div>stray text outside allowed tags</div></body>`
	_, _, _, err := Classify([]byte(src))
	var unsupported *extract.UnsupportedMarkupError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedMarkupError", err)
	}
}
