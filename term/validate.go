package term

import (
	"strings"
	"unicode/utf8"
)

// Validate drops records that look like model garbage rather than terms:
//   - an empty source or target;
//   - identical Latin source and target, unless short (an acronym or code)
//     or written in capitals;
//   - a source containing prompt words such as "extract" or "category";
//   - a source of ten or more Latin letters and spaces, which is a stray
//     English phrase rather than a source-language term.
func Validate(records []Record) []Record {
	valid := make([]Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			valid = append(valid, r)
		}
	}
	return valid
}

func keep(r Record) bool {
	src := strings.TrimSpace(r.Source)
	tgt := strings.TrimSpace(r.Target)
	if src == "" || tgt == "" {
		return false
	}

	if strings.EqualFold(src, tgt) && latinCode.MatchString(src) {
		if utf8.RuneCountInString(src) > maxAcronymLen && strings.ToUpper(src) != src {
			return false
		}
	}

	if hasLeakage(src) {
		return false
	}
	return !latinSentence.MatchString(src)
}
