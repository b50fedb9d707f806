package textnorm

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"line endings", "a\r\nb\rc\nd", "a b c d"},
		{"whitespace collapse", "  a \t b\n\n  c  ", "a b c"},
		{"quote alternation", `He said "hi" and "bye"`, "He said <<hi>> and <<bye>>"},
		{"curly quotes", "She said “yes” then “no”", "She said <<yes>> then <<no>>"},
		{"low quote opens", "„Warum?” fragte er", "<<Warum?>> fragte er"},
		{"unbalanced quotes alternate anyway", `"a "b "c`, "<<a >>b <<c"},
		{"em dash", "wait—no", "wait--no"},
		{"en dash", "1999–2004", "1999--2004"},
		{"accents stripped", "café naïve", "cafe naive"},
		{"ligature unfolds", "ﬁre", "fire"},
		{"non-latin dropped", "abc 你好 def", "abc def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"",
		`He said "hi" and "bye"`,
		"mixed “quotes” and—dashes\r\nwith   spaces",
		"café „low” quotes",
		`"unbalanced "nesting "here`,
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestPairQuotesStartsOpen(t *testing.T) {
	got := PairQuotes(`"one" "two" "three"`)
	want := "<<one>> <<two>> <<three>>"
	if got != want {
		t.Errorf("PairQuotes = %q, want %q", got, want)
	}
}
