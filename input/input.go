// Package input reads source and target texts for extraction.
//
// Texts come from files, standard input, or HTML pages. Everything is
// normalized the same way before it reaches the segmenter: LF line endings
// and Unicode NFC, so that paragraph breaks and character counts are stable
// regardless of where the text was copied from.
package input

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Stdin is the path that reads from standard input.
const Stdin = "-"

// Read returns the normalized text of path. Files ending in .html or .htm are
// reduced to their visible text.
func Read(path string) (string, error) {
	var r io.Reader
	if path == Stdin {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	if IsHTML(path) {
		text, err := HTMLText(r)
		if err != nil {
			return "", fmt.Errorf("reading HTML %s: %w", path, err)
		}
		return Normalize(text), nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8", path)
	}
	return Normalize(string(data)), nil
}

// IsHTML reports whether path names an HTML document.
func IsHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// Normalize converts CRLF and CR line endings to LF, drops a leading byte
// order mark and composes the text to Unicode NFC.
func Normalize(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}

// Cap trims s and keeps at most n runes. n <= 0 disables the cap.
func Cap(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
