package term

import (
	"strings"
	"unicode/utf8"
)

// Dedupe keeps one record per source term, compared case-insensitively after
// trimming. When a source repeats, the record with the strictly longer
// target wins; on a tie the first one stays. Output follows the order in
// which each source was first seen.
func Dedupe(records []Record) []Record {
	index := make(map[string]int, len(records))
	out := make([]Record, 0, len(records))

	for _, r := range records {
		key := strings.ToLower(strings.TrimSpace(r.Source))
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, r)
			continue
		}
		if utf8.RuneCountInString(r.Target) > utf8.RuneCountInString(out[i].Target) {
			out[i] = r
		}
	}
	return out
}
