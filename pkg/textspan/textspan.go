// Package textspan locates a previously extracted clause inside the full
// document text, tolerating whitespace drift introduced by extraction.
package textspan

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is a byte range into the original document text, start inclusive,
// end exclusive.
type Span struct {
	Start int
	End   int
}

const (
	// Clauses shorter than this after normalization are too short to
	// disambiguate with fuzzy matching.
	minFuzzyClauseLen = 20

	maxDriftRatio = 0.20
	maxDriftChars = 50
)

// Locate returns the span of clause inside doc at or after cursor, or
// ok=false when the clause cannot be placed. A miss is a normal outcome,
// not an error. Exact substring search runs first; on failure a
// whitespace-normalized alignment is attempted and re-mapped into original
// offsets. Fuzzy spans whose length drifts too far from the clause length
// are rejected: a wrong-length span is worse than no highlight.
func Locate(doc, clause string, cursor int) (Span, bool) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(doc) {
		cursor = len(doc)
	}
	if clause == "" {
		return Span{}, false
	}

	if i := strings.Index(doc[cursor:], clause); i >= 0 {
		start := cursor + i
		return Span{Start: start, End: start + len(clause)}, true
	}

	normClause := Normalize(clause)
	if len(normClause) < minFuzzyClauseLen {
		return Span{}, false
	}

	window := doc[cursor:]
	normWindow, offsets := normalizeWithOffsets(window)
	j := strings.Index(normWindow, normClause)
	if j < 0 {
		return Span{}, false
	}

	start := offsets[j]
	lastRuneAt := offsets[j+len(normClause)-1]
	_, size := utf8.DecodeRuneInString(window[lastRuneAt:])
	end := lastRuneAt + size

	drift := (end - start) - len(clause)
	if drift < 0 {
		drift = -drift
	}
	if float64(drift) > maxDriftRatio*float64(len(clause)) || drift > maxDriftChars {
		return Span{}, false
	}
	return Span{Start: cursor + start, End: cursor + end}, true
}

// AdvanceCursor computes the next search cursor after a miss, so one
// unplaceable clause cannot block the placement of subsequent clauses.
func AdvanceCursor(cursor, clauseLen, docLen int) int {
	next := cursor + clauseLen
	if next > docLen {
		next = docLen
	}
	return next
}

// Normalize collapses runs of whitespace (including newlines) to single
// spaces and trims the result.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeWithOffsets normalizes s the same way Normalize does, and
// returns, per byte of the normalized string, the byte offset in s of the
// original character it came from. A collapsed whitespace run maps to the
// offset of the run's first character.
func normalizeWithOffsets(s string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, 0, len(s))
	pendingSpaceAt := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if b.Len() > 0 && pendingSpaceAt < 0 {
				pendingSpaceAt = i
			}
			continue
		}
		if pendingSpaceAt >= 0 {
			b.WriteByte(' ')
			offsets = append(offsets, pendingSpaceAt)
			pendingSpaceAt = -1
		}
		b.WriteRune(r)
		for k := 0; k < utf8.RuneLen(r); k++ {
			offsets = append(offsets, i)
		}
	}
	return b.String(), offsets
}
