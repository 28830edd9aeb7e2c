// Package segment splits long text into model-sized chunks on paragraph
// boundaries.
//
// Sizes are measured in characters (runes), so a chunk bound of 1500 means
// 1500 CJK characters just as it means 1500 ASCII letters.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultSize is the chunk bound used when the caller passes a non-positive size.
const DefaultSize = 1500

// separator is the length of the blank line placed between paragraphs
// inside one chunk.
const separator = "\n\n"

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Split returns text as an ordered list of chunks no longer than maxSize runes.
//
// Text that already fits is returned as a single chunk. Otherwise the text is
// split on blank lines and paragraphs are packed greedily, joined by a blank
// line. A paragraph that alone exceeds maxSize is cut to its first maxSize
// runes; the rest of that paragraph is dropped.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSpace(current.String()))
		current.Reset()
		currentLen = 0
	}

	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paraLen := utf8.RuneCountInString(para)

		if currentLen+paraLen+len(separator) <= maxSize {
			current.WriteString(para)
			current.WriteString(separator)
			currentLen += paraLen + len(separator)
			continue
		}

		flush()
		if paraLen <= maxSize {
			current.WriteString(para)
			current.WriteString(separator)
			currentLen = paraLen + len(separator)
		} else {
			current.WriteString(truncate(para, maxSize))
			currentLen = maxSize
		}
	}
	flush()

	if len(chunks) == 0 {
		return []string{truncate(text, maxSize)}
	}
	return chunks
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
