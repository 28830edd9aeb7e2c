// Package term holds the extracted term record and the stages that turn raw
// model output into a clean term list: Parse, Validate, Dedupe and
// FilterAndRank.
//
// Every stage takes a slice and returns a new one; records are never edited
// in place once created by Parse.
package term

import (
	"regexp"
	"strings"
)

// Record is one extracted terminology candidate.
type Record struct {
	// Source is the term in the source language, trimmed and non-empty.
	Source string `json:"source"`
	// Target is the translation; it may be empty when none was found.
	Target string `json:"target"`
	// Category is a lowercase tag such as "medical" or "place".
	Category string `json:"category"`
}

// Category tags the filter stage knows about. Parse accepts any tag the
// model produces.
const (
	CategoryMedical      = "medical"
	CategoryOrganization = "organization"
	CategoryPlace        = "place"
	CategorySocial       = "social"
	CategoryTechnical    = "technical"
	CategoryChemical     = "chemical"
	CategoryDate         = "date"
	CategoryName         = "name"
	CategoryGeneral      = "general"
)

// MinSourceLen is the shortest source, in runes, that Parse keeps.
const MinSourceLen = 2

// leakageWords appear in sources that are echoes of the prompt rather than
// terms from the text.
var leakageWords = []string{"extract", "priority", "category", "include", "skip", "rules"}

// maxAcronymLen is the longest identical source/target pair kept as a code
// or acronym that reads the same in both languages.
const maxAcronymLen = 6

var (
	latinOnly     = regexp.MustCompile(`^[A-Za-z\s]+$`)
	latinCode     = regexp.MustCompile(`^[A-Za-z0-9\s\-]+$`)
	latinSentence = regexp.MustCompile(`^[A-Za-z\s]{10,}$`)
)

// hasLeakage reports whether source contains one of the prompt words.
func hasLeakage(source string) bool {
	lower := strings.ToLower(source)
	for _, w := range leakageWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// isEchoedPlaceholder reports whether a pair looks like the model copied
// Latin text into both fields.
func isEchoedPlaceholder(source, target string) bool {
	return strings.EqualFold(source, target) && latinOnly.MatchString(source)
}
