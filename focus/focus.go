// Package focus decides how the user's "focus" text steers extraction.
//
// A focus string is either a short domain keyword ("medical", "date"), which
// becomes a canned instruction appended to the standard prompt, or a
// free-form command ("only list the hospital names"), which replaces the
// standard category template altogether. The boundary is a heuristic:
// misclassifying a keyword as a command still produces a usable prompt.
package focus

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Mode is the instruction mode selected for a focus string.
type Mode int

const (
	// None means no focus was given.
	None Mode = iota
	// Keyword means the focus is a topic hint for the standard prompt.
	Keyword
	// FreeForm means the focus is a command the model should follow verbatim.
	FreeForm
)

// String returns the mode name used in diagnostic logs.
func (m Mode) String() string {
	switch m {
	case Keyword:
		return "keyword"
	case FreeForm:
		return "free-form"
	default:
		return "none"
	}
}

// Result is the outcome of Classify.
type Result struct {
	Mode Mode
	// Instruction is the domain instruction for the standard prompt. It is set
	// for every non-empty focus, including free-form ones, so callers that do
	// not honor free-form mode can fall back to it.
	Instruction string
	// Command is the trimmed focus text.
	Command string
}

// commandWords mark a focus string as a command rather than a topic.
var commandWords = []string{
	// imperative verbs
	"extract", "find", "list", "identify", "get ", "show", "give", "pull out", "collect",
	"提取", "提出", "找出", "列出", "識別", "识别", "抽取", "擷取",
	// scope words
	"only", "just", "all ", "every", "each",
	"只", "僅", "仅", "所有", "全部", "每個", "每个",
	// requests
	"please", "i want", "i need", "can you", "could you",
	"請", "请", "我要", "我想", "幫我", "帮我",
	// plural nouns
	"terms", "names", "entities", "words", "phrases", "keywords",
	"術語", "术语", "名稱", "名称", "名字", "實體", "实体", "詞彙", "词汇",
}

// punctuation in either script marks a sentence or a list.
const punctuation = ".,!?。，！？"

// freeFormMinLen is the length above which a focus containing a space is
// treated as a sentence.
const freeFormMinLen = 20

// domainInstruction is a canned instruction for one focus keyword.
type domainInstruction struct {
	keyword     string
	instruction string
}

// domainInstructions are checked in order; the first contained keyword wins.
var domainInstructions = []domainInstruction{
	{"social media", "Pay special attention to social media platforms, Facebook pages, Instagram accounts, YouTube channels, websites."},
	{"medical", "Pay special attention to diseases, symptoms, medical procedures, health terms."},
	{"organization", "Pay special attention to government departments, agencies, official bodies."},
	{"place", "Pay special attention to locations, districts, trails, parks, countries."},
	{"technical", "Pay special attention to equipment, devices, machinery, technical procedures."},
	{"chemical", "Pay special attention to chemical compounds, pesticides, larvicides, active ingredients."},
	{"date", "Pay special attention to dates, times, years, months, days, periods."},
}

// Classify returns the instruction mode for a focus string.
func Classify(text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Mode: None}
	}

	res := Result{
		Mode:        Keyword,
		Instruction: KeywordInstruction(text),
		Command:     text,
	}
	if isCommand(text) {
		res.Mode = FreeForm
	}
	return res
}

// KeywordInstruction returns the canned instruction for the first domain
// keyword contained in text, or a generic "terms related to" instruction.
func KeywordInstruction(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, d := range domainInstructions {
		if strings.Contains(lower, d.keyword) {
			return d.instruction
		}
	}
	return fmt.Sprintf("Pay special attention to terms related to: %s", text)
}

func isCommand(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range commandWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	if utf8.RuneCountInString(text) > freeFormMinLen && strings.Contains(text, " ") {
		return true
	}
	return strings.ContainsAny(text, punctuation)
}
