// Package align pairs source chunks with slices of a parallel target text.
//
// The pairing is a length-proportional heuristic, not a word alignment: each
// source chunk receives the share of the target text that matches its share
// of the source text. A poor pairing only makes the model's job harder; it
// never breaks the structure of the extracted term list.
package align

import "strings"

// snapWindow is how far back, in runes, a slice end may move to land on a
// line break.
const snapWindow = 200

// Pair is one source chunk with the target text assigned to it.
// Target may be empty.
type Pair struct {
	Source string
	Target string
}

// Align returns exactly one Pair per source chunk, in source order.
//
// With no target chunks every pair gets an empty target. With the same number
// of chunks on both sides the chunks are paired by position. Otherwise the
// target chunks are rejoined with blank lines and cut proportionally to the
// source chunk lengths. Shares are rounded down, so the last pair takes
// whatever remains and its target can be longer than its proportional share.
func Align(source, target []string) []Pair {
	pairs := make([]Pair, len(source))
	for i, s := range source {
		pairs[i].Source = s
	}
	if len(target) == 0 {
		return pairs
	}
	if len(source) == len(target) {
		for i := range pairs {
			pairs[i].Target = target[i]
		}
		return pairs
	}

	for i, span := range proportionalSpans(source, []rune(strings.Join(target, "\n\n"))) {
		pairs[i].Target = span
	}
	return pairs
}

// proportionalSpans cuts flat into len(source) consecutive slices whose
// lengths follow the rune lengths of the source chunks.
func proportionalSpans(source []string, flat []rune) []string {
	spans := make([]string, len(source))
	pos := 0
	for i, end := range boundaries(source, flat) {
		spans[i] = strings.TrimSpace(string(flat[pos:end]))
		pos = end
	}
	return spans
}

// boundaries returns the exclusive end offset in flat of every source
// chunk's slice. Offsets never decrease and never exceed len(flat).
func boundaries(source []string, flat []rune) []int {
	ends := make([]int, len(source))
	if len(source) == 0 {
		return ends
	}

	lengths := make([]int, len(source))
	total := 0
	for i, s := range source {
		lengths[i] = len([]rune(s))
		total += lengths[i]
	}

	targetLen := len(flat)
	if total == 0 {
		ends[len(ends)-1] = targetLen
		return ends
	}

	pos := 0
	for i := range source {
		share := int(float64(lengths[i]) / float64(total) * float64(targetLen))
		end := pos + share
		if end > targetLen {
			end = targetLen
		}

		if i == len(source)-1 {
			// Rounding leaves a few runes over; hand them to the last chunk.
			end = targetLen
		} else if end < targetLen {
			end = snapToLineBreak(flat, pos, end)
		}

		ends[i] = end
		pos = end
	}
	return ends
}

// snapToLineBreak moves end back to the nearest '\n' found in the window
// [end-snapWindow, end), never reaching pos. If there is none, end is
// returned unchanged.
func snapToLineBreak(flat []rune, pos, end int) int {
	lo := end - snapWindow
	if lo <= pos {
		lo = pos + 1
	}
	for j := end - 1; j >= lo; j-- {
		if flat[j] == '\n' {
			return j
		}
	}
	return end
}
