// Package chunk partitions a chapter's element sequence into semantically
// coherent runs. Boundary decisions come from a fixed-priority rule chain
// evaluated per element; rule order is a load-bearing contract and is covered
// directly by tests.
package chunk

import (
	"sort"
	"strings"

	"github.com/dgallion1/simplebook/internal/element"
)

// Word-count thresholds used by the boundary rules.
const (
	largeChunkWords    = 200 // running chunk considered large
	mediumElementWords = 30  // incoming element considered substantial
	quoteChunkWords    = 100 // running chunk long enough for quote-driven splits
	dialogueGapWords   = 10  // max narration gap inside a dialogue exchange
	largeElementWords  = 120 // element too large to force-merge as dialogue
)

// Size-class breakpoints. A word count is bucketed into class 0-4 by counting
// how many breakpoints it reaches.
var (
	chunkClassBreaks   = []int{50, 100, 200, 300}
	elementClassBreaks = []int{10, 30, 100, 250}
)

// state is the running accumulation since the last boundary.
type state struct {
	words int
	elems []*element.Element
}

// markerText flattens the accumulated chunk for marker-gap scanning.
func (s *state) markerText() string {
	parts := make([]string, 0, len(s.elems))
	for _, el := range s.elems {
		parts = append(parts, el.MarkerText())
	}
	return strings.Join(parts, " ")
}

// gap is the number of words after the last exchange marker in the running
// chunk plus the words before the first marker in the incoming element.
func (s *state) gap(cur *element.Element) int {
	return element.WordsAfterLastMarker(s.markerText()) +
		element.WordsBeforeFirstMarker(cur.MarkerText())
}

type decision int

const (
	decisionNone  decision = iota // rule does not apply, try the next one
	decisionSplit                 // start a new chunk before the current element
	decisionMerge                 // force continuation, no later rule may split
)

// rule is one pure predicate/action pair in the chain.
type rule struct {
	name string
	eval func(s *state, prev, cur *element.Element) decision
}

// rules is the fixed-priority chain, first match wins. dialogue_continue
// deliberately outranks hard_break and quote_gap: a short dialogue exchange
// stays together even when a lower rule would have split.
var rules = []rule{
	{"heading_end", func(s *state, prev, cur *element.Element) decision {
		if prev.Type == element.TypeHeading {
			return decisionSplit
		}
		return decisionNone
	}},
	{"size_class_sum", func(s *state, prev, cur *element.Element) decision {
		if sizeClass(s.words, chunkClassBreaks)+sizeClass(cur.WordCount(), elementClassBreaks) >= 5 {
			return decisionSplit
		}
		return decisionNone
	}},
	{"large_chunk_medium_element", func(s *state, prev, cur *element.Element) decision {
		if s.words >= largeChunkWords && cur.WordCount() >= mediumElementWords {
			return decisionSplit
		}
		return decisionNone
	}},
	{"dialogue_continue", func(s *state, prev, cur *element.Element) decision {
		if !cur.OpensWithQuote() || !prev.ContainsMarker() {
			return decisionNone
		}
		bothLarge := prev.WordCount() >= largeElementWords && cur.WordCount() >= largeElementWords
		if s.gap(cur) <= dialogueGapWords && !bothLarge {
			return decisionMerge
		}
		return decisionNone
	}},
	{"hard_break", func(s *state, prev, cur *element.Element) decision {
		if cur.Type == element.TypeBlockquote || cur.Type == element.TypeTable {
			return decisionSplit
		}
		return decisionNone
	}},
	{"heading", func(s *state, prev, cur *element.Element) decision {
		if cur.Type == element.TypeHeading {
			return decisionSplit
		}
		return decisionNone
	}},
	{"quote_gap", func(s *state, prev, cur *element.Element) decision {
		if prev.ContainsMarker() && s.words >= quoteChunkWords && s.gap(cur) > dialogueGapWords {
			return decisionSplit
		}
		return decisionNone
	}},
	{"question_response", func(s *state, prev, cur *element.Element) decision {
		if strings.Contains(prev.ContentString(), "?") && cur.OpensWithQuote() {
			return decisionMerge
		}
		return decisionNone
	}},
	{"dialogue_start", func(s *state, prev, cur *element.Element) decision {
		if cur.OpensWithQuote() && !prev.OpensWithQuote() && s.words >= quoteChunkWords {
			return decisionSplit
		}
		return decisionNone
	}},
}

// sizeClass buckets a word count into 0..len(breaks) by counting reached
// breakpoints.
func sizeClass(words int, breaks []int) int {
	class := 0
	for _, b := range breaks {
		if words >= b {
			class++
		}
	}
	return class
}

// Plan scans the element sequence left to right and returns the sorted,
// deduplicated chunk-start indices. Non-empty input always yields index 0.
func Plan(elements []*element.Element) []int {
	if len(elements) == 0 {
		return nil
	}
	starts := []int{0}
	s := &state{
		words: elements[0].WordCount(),
		elems: []*element.Element{elements[0]},
	}

	for i := 1; i < len(elements); i++ {
		prev, cur := elements[i-1], elements[i]
		result := decisionNone
		for _, r := range rules {
			if result = r.eval(s, prev, cur); result != decisionNone {
				break
			}
		}
		if result == decisionSplit {
			starts = append(starts, i)
			s.words = cur.WordCount()
			s.elems = append([]*element.Element{}, cur)
			continue
		}
		s.words += cur.WordCount()
		s.elems = append(s.elems, cur)
	}

	return dedupSorted(starts)
}

// Ranges pairs consecutive chunk starts into inclusive [start, end] element
// ranges, the last chunk extending to the end of the sequence.
func Ranges(starts []int, n int) [][2]int {
	if len(starts) == 0 || n == 0 {
		return nil
	}
	out := make([][2]int, 0, len(starts))
	for i, start := range starts {
		end := n - 1
		if i+1 < len(starts) {
			end = starts[i+1] - 1
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

func dedupSorted(starts []int) []int {
	sort.Ints(starts)
	out := starts[:0]
	for i, v := range starts {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
