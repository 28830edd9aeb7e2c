package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/minios-linux/termex/term"
)

// WritePO writes the records as a gettext glossary: msgid is the source
// term, msgstr the target and the category an extracted comment.
func WritePO(w io.Writer, records []term.Record, sourceLang, targetLang string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# Terminology glossary %s -> %s.\n", sourceLang, targetLang)
	writeQuotedField(bw, "msgid", "")
	writeQuotedField(bw, "msgstr",
		"Language: "+targetLang+"\n"+
			"MIME-Version: 1.0\n"+
			"Content-Type: text/plain; charset=UTF-8\n"+
			"Content-Transfer-Encoding: 8bit\n"+
			"X-Source-Language: "+sourceLang+"\n")

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		// gettext rejects duplicate msgids.
		if r.Source == "" || seen[r.Source] {
			continue
		}
		seen[r.Source] = true

		fmt.Fprintln(bw)
		if r.Category != "" {
			fmt.Fprintf(bw, "#. category: %s\n", r.Category)
		}
		writeQuotedField(bw, "msgid", r.Source)
		writeQuotedField(bw, "msgstr", r.Target)
	}
	return bw.Flush()
}

// writeQuotedField writes a PO field with proper multiline quoting.
func writeQuotedField(w *bufio.Writer, field, value string) {
	if !strings.Contains(value, "\n") {
		fmt.Fprintf(w, "%s %s\n", field, quote(value))
		return
	}

	fmt.Fprintf(w, "%s \"\"\n", field)
	parts := strings.Split(value, "\n")
	for i, part := range parts {
		if i < len(parts)-1 {
			fmt.Fprintf(w, "%s\n", quote(part+"\n"))
		} else if part != "" {
			fmt.Fprintf(w, "%s\n", quote(part))
		}
	}
}

// quote produces a PO-style quoted string.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return `"` + s + `"`
}
