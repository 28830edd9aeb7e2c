package export

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/minios-linux/termex/term"
)

// WriteTBX writes a minimal TBX document with one termEntry per record.
// Term text is XML-escaped.
func WriteTBX(w io.Writer, records []term.Record, sourceLang, targetLang string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("<?xml version=\"1.0\"?>\n<martif type=\"TBX\"><text><body>\n")
	for i, r := range records {
		fmt.Fprintf(bw,
			`<termEntry id="t%d"><langSet xml:lang="%s"><tig><term>%s</term></tig></langSet><langSet xml:lang="%s"><tig><term>%s</term></tig></langSet></termEntry>`+"\n",
			i+1, xmlEscape(sourceLang), xmlEscape(r.Source), xmlEscape(targetLang), xmlEscape(r.Target))
	}
	bw.WriteString("</body></text></martif>\n")
	return bw.Flush()
}

func xmlEscape(s string) string {
	var sb strings.Builder
	// EscapeText only fails when the writer does; strings.Builder never does.
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
