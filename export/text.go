package export

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/minios-linux/termex/term"
)

// csvHeader is the first line of CSV output.
const csvHeader = "Source,Target,Category"

// WriteCSV writes a header row and one row per record with every field
// double-quoted and embedded quotes doubled.
func WriteCSV(w io.Writer, records []term.Record, bom bool) error {
	bw := bufio.NewWriter(w)
	if bom {
		bw.WriteString("\ufeff")
	}
	bw.WriteString(csvHeader + "\n")
	for _, r := range records {
		bw.WriteString(csvField(r.Source) + "," + csvField(r.Target) + "," + csvField(r.Category) + "\n")
	}
	return bw.Flush()
}

func csvField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteJSON writes {"terms": [...]} indented by two spaces, leaving
// non-ASCII and HTML characters unescaped.
func WriteJSON(w io.Writer, records []term.Record) error {
	if records == nil {
		records = []term.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Terms []term.Record `json:"terms"`
	}{records})
}

// tsvSpace replaces characters that would break the two-column layout.
var tsvSpace = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// WriteTSV writes source<TAB>target lines with no header. Category is omitted.
func WriteTSV(w io.Writer, records []term.Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		bw.WriteString(tsvSpace.Replace(r.Source) + "\t" + tsvSpace.Replace(r.Target) + "\n")
	}
	return bw.Flush()
}
