package extract

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/minios-linux/termex/export"
	"github.com/minios-linux/termex/focus"
	"github.com/minios-linux/termex/i18n"
	"github.com/minios-linux/termex/term"
)

// Counts are the record counts after each pipeline stage.
type Counts struct {
	Raw          int
	Validated    int
	Deduplicated int
	Filtered     int
	Final        int
}

// Segment is the outcome of one model call.
type Segment struct {
	// Index is 1-based.
	Index       int
	SourceChars int
	TargetChars int
	// Terms are the records parsed from Response.
	Terms []term.Record
	// Response is the raw model text, or the error text when Err is set.
	Response string
	Err      error
}

// Result is the outcome of a run.
type Result struct {
	// RunID identifies the run in logs and debug files.
	RunID string
	// Terms is the final ranked list.
	Terms         []term.Record
	Counts        Counts
	Mode          focus.Mode
	Focus         string
	Filter        string
	TokenProvided bool
	Segments      []Segment
	Elapsed       time.Duration
}

// HasResults reports whether any term survived the pipeline.
func (r *Result) HasResults() bool {
	return len(r.Terms) > 0
}

// cellPipe replaces the Markdown column separator inside table cells.
var cellPipe = strings.NewReplacer("|", "∣", "\n", " ")

// Table renders the final terms as a numbered Markdown table.
func (r *Result) Table() string {
	var sb strings.Builder
	sb.WriteString("| # | Source | Target | Category |\n|:---:|:---|:---|:---:|\n")
	for i, t := range r.Terms {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n",
			i+1, cellPipe.Replace(t.Source), cellPipe.Replace(t.Target), cellPipe.Replace(t.Category))
	}
	return sb.String()
}

// CSV returns the final terms in the CSV export format, without a BOM.
func (r *Result) CSV() string {
	var buf bytes.Buffer
	// Writing to a bytes.Buffer cannot fail.
	_ = export.WriteCSV(&buf, r.Terms, false)
	return buf.String()
}

// Summary is a one-line description of the run in the language selected by
// i18n.Init, e.g. "12 terms extracted in 4.2s (filtered from 30)".
func (r *Result) Summary() string {
	s := i18n.Sprintf("%s extracted in %.1fs",
		i18n.Count("%d term", "%d terms", len(r.Terms)), r.Elapsed.Seconds())
	if r.Counts.Filtered < r.Counts.Deduplicated {
		s += i18n.Sprintf(" (filtered from %d)", r.Counts.Deduplicated)
	}
	return s
}

// Warning explains an empty result and suggests a remedy. It is empty when
// the run produced terms.
func (r *Result) Warning() string {
	switch {
	case r.HasResults():
		return ""
	case r.Mode == focus.FreeForm:
		return i18n.Sprintf("No terms matched the command %q. Try rephrasing it or use a keyword focus.", r.Focus)
	case !term.IsAll(r.Filter):
		return i18n.Sprintf("No terms found matching filter '%s'. Try setting Filter to 'all'.", r.Filter)
	default:
		return i18n.T("No terms found.")
	}
}
