// Package export serializes a final term list to glossary files.
//
// Exporters only format; they never filter, sort or dedupe. Records are
// written in the order given.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/termex/term"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	CSV  Format = "csv"
	JSON Format = "json"
	TSV  Format = "tsv"
	TBX  Format = "tbx"
	PO   Format = "po"
)

// Formats returns every supported format in display order.
func Formats() []Format {
	return []Format{CSV, JSON, TSV, TBX, PO}
}

// ParseFormat returns the format named s (case-insensitive).
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (supported: csv, json, tsv, tbx, po)", s)
}

// DefaultFileName returns the file name used when exporting to a directory.
func (f Format) DefaultFileName() string {
	switch f {
	case CSV:
		return "terms.csv"
	case JSON:
		return "terms.json"
	case TSV:
		return "glossary.tsv"
	case TBX:
		return "terms.tbx"
	case PO:
		return "glossary.po"
	default:
		return "terms." + string(f)
	}
}

// Options carries the language tags some formats embed.
type Options struct {
	// SourceLang is the source language tag (e.g. "zh").
	SourceLang string
	// TargetLang is the target language tag (e.g. "en").
	TargetLang string
	// BOM prefixes CSV output with a UTF-8 byte order mark so that
	// spreadsheet programs detect the encoding.
	BOM bool
}

func (o Options) sourceLang() string {
	if o.SourceLang != "" {
		return o.SourceLang
	}
	return "zh"
}

func (o Options) targetLang() string {
	if o.TargetLang != "" {
		return o.TargetLang
	}
	return "en"
}

// Write serializes records to w in format f.
func Write(w io.Writer, f Format, records []term.Record, opts Options) error {
	switch f {
	case CSV:
		return WriteCSV(w, records, opts.BOM)
	case JSON:
		return WriteJSON(w, records)
	case TSV:
		return WriteTSV(w, records)
	case TBX:
		return WriteTBX(w, records, opts.sourceLang(), opts.targetLang())
	case PO:
		return WritePO(w, records, opts.sourceLang(), opts.targetLang())
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteFile writes records to dir under the format's default file name and
// returns the path written.
func WriteFile(dir string, f Format, records []term.Record, opts Options) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, f.DefaultFileName())

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(out, f, records, opts); err != nil {
		out.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}
