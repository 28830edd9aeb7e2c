package term

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	fenceOpen  = regexp.MustCompile("^```\\w*\\n?")
	fenceClose = regexp.MustCompile("\\n?```$")
	flatObject = regexp.MustCompile(`\{[^{}]+\}`)
)

// Parse extracts term records from a model response that should be a JSON
// array of {"source","target","category"} objects but may be wrapped in a
// code fence, surrounded by prose, or malformed.
//
// The outermost [...] span is decoded first. If that decode succeeds its
// entries are the answer, even when none survive. Only when no array decodes
// does Parse fall back to decoding every flat {...} object on its own.
func Parse(raw string) []Record {
	content := stripFence(strings.TrimSpace(raw))

	if records, ok := parseArray(content); ok {
		return records
	}
	return parseObjects(content)
}

// stripFence removes a leading ```lang line and a trailing ``` line.
func stripFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = fenceOpen.ReplaceAllString(content, "")
	return fenceClose.ReplaceAllString(content, "")
}

func parseArray(content string) ([]Record, bool) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, false
	}

	var items []any
	if err := decode(repairEscapes(content[start:end+1]), &items); err != nil {
		return nil, false
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec, ok := recordFrom(obj)
		if !ok {
			continue
		}
		if isEchoedPlaceholder(rec.Source, rec.Target) || hasLeakage(rec.Source) {
			continue
		}
		records = append(records, rec)
	}
	return records, true
}

func parseObjects(content string) []Record {
	var records []Record
	for _, candidate := range flatObject.FindAllString(content, -1) {
		var obj map[string]any
		if err := decode(candidate, &obj); err != nil {
			continue
		}
		rec, ok := recordFrom(obj)
		if !ok || isEchoedPlaceholder(rec.Source, rec.Target) {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// recordFrom reads one decoded object. It reports false when the object has
// no usable source.
func recordFrom(obj map[string]any) (Record, bool) {
	src, _ := stringField(obj, "source")
	src = strings.TrimSpace(src)
	if utf8.RuneCountInString(src) < MinSourceLen {
		return Record{}, false
	}

	tgt, ok := stringField(obj, "target")
	if !ok {
		tgt, _ = stringField(obj, "translation")
	}

	cat, _ := stringField(obj, "category")
	cat = strings.ToLower(strings.TrimSpace(cat))
	if cat == "" {
		cat = CategoryGeneral
	}

	return Record{Source: src, Target: strings.TrimSpace(tgt), Category: cat}, true
}

// stringField returns obj[key] as text. Numbers and booleans are formatted;
// null, arrays and objects count as absent.
func stringField(obj map[string]any, key string) (string, bool) {
	switch v := obj[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func decode(s string, v any) error {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Anything after the value is a failed decode, as with json.Unmarshal.
	if strings.TrimSpace(s[dec.InputOffset():]) != "" {
		return errTrailingData
	}
	return nil
}

var errTrailingData = errors.New("trailing data after JSON value")

// repairEscapes doubles backslashes that do not start a valid JSON escape
// sequence inside string literals. Models occasionally emit \' or a lone
// backslash from the source text, which would otherwise fail the whole array.
func repairEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var fixed bytes.Buffer
	fixed.Grow(len(s) + 8)
	inQuote := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if c == '"' && !escaped {
			inQuote = !inQuote
			fixed.WriteByte(c)
			continue
		}

		if inQuote && c == '\\' && !escaped {
			if i+1 < len(s) && strings.IndexByte(`"\/bfnrtu`, s[i+1]) >= 0 {
				fixed.WriteByte(c)
				escaped = true
				continue
			}
			fixed.WriteString(`\\`)
			continue
		}

		fixed.WriteByte(c)
		escaped = false
	}
	return fixed.String()
}
