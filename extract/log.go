package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// previewLen is how much of each model response the log keeps.
const previewLen = 600

// Log returns the diagnostic transcript of the run: the summary header,
// stage counts and a preview of every segment's model response.
func (r *Result) Log() string {
	var sb strings.Builder

	token := "Anonymous"
	if r.TokenProvided {
		token = "Provided"
	}
	focusText := r.Focus
	if focusText == "" {
		focusText = "None"
	}

	sb.WriteString("=== EXTRACTION SUMMARY ===\n")
	fmt.Fprintf(&sb, "Run: %s\n", r.RunID)
	fmt.Fprintf(&sb, "Token: %s\n", token)
	fmt.Fprintf(&sb, "Focus: %s\n", focusText)
	fmt.Fprintf(&sb, "Mode: %s\n", r.Mode)
	fmt.Fprintf(&sb, "Filter: %s\n", r.Filter)
	fmt.Fprintf(&sb, "Segments: %d\n", len(r.Segments))
	fmt.Fprintf(&sb, "Time: %.1fs\n\n", r.Elapsed.Seconds())

	fmt.Fprintf(&sb, "Raw extracted: %d\n", r.Counts.Raw)
	fmt.Fprintf(&sb, "After validation: %d\n", r.Counts.Validated)
	fmt.Fprintf(&sb, "After dedupe: %d\n", r.Counts.Deduplicated)
	fmt.Fprintf(&sb, "After filter: %d\n", r.Counts.Filtered)
	fmt.Fprintf(&sb, "Final: %d\n", r.Counts.Final)

	for _, s := range r.Segments {
		fmt.Fprintf(&sb, "\n=== Segment %d ===\n", s.Index)
		fmt.Fprintf(&sb, "Source: %d chars | Target: %d chars\n", s.SourceChars, s.TargetChars)
		fmt.Fprintf(&sb, "Raw terms: %d\n", len(s.Terms))
		fmt.Fprintf(&sb, "Response preview: %s...\n", preview(s.Response))
	}
	return sb.String()
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLen {
		return s
	}
	return string([]rune(s)[:previewLen])
}
