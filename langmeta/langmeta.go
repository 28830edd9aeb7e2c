// Package langmeta maps language codes to the names used in extraction
// prompts and CLI output and to the tags written into TBX exports.
package langmeta

import (
	"sort"
	"strings"
)

// Meta describes one language.
type Meta struct {
	// Name is the English name inserted into prompts.
	Name string
	// Native is the name in the language itself, shown in the CLI.
	Native string
}

// Registry contains canonical language metadata.
// Locale variants are resolved in Resolve() via normalization and base fallback.
var Registry = map[string]Meta{
	"ar":    {Name: "Arabic", Native: "العربية"},
	"de":    {Name: "German", Native: "Deutsch"},
	"en":    {Name: "English", Native: "English"},
	"en-GB": {Name: "British English", Native: "English (UK)"},
	"en-US": {Name: "American English", Native: "English (US)"},
	"es":    {Name: "Spanish", Native: "Español"},
	"fr":    {Name: "French", Native: "Français"},
	"hi":    {Name: "Hindi", Native: "हिन्दी"},
	"id":    {Name: "Indonesian", Native: "Bahasa Indonesia"},
	"it":    {Name: "Italian", Native: "Italiano"},
	"ja":    {Name: "Japanese", Native: "日本語"},
	"ko":    {Name: "Korean", Native: "한국어"},
	"ms":    {Name: "Malay", Native: "Bahasa Melayu"},
	"nl":    {Name: "Dutch", Native: "Nederlands"},
	"pl":    {Name: "Polish", Native: "Polski"},
	"pt":    {Name: "Portuguese", Native: "Português"},
	"pt-BR": {Name: "Brazilian Portuguese", Native: "Português (Brasil)"},
	"ru":    {Name: "Russian", Native: "Русский"},
	"th":    {Name: "Thai", Native: "ไทย"},
	"tr":    {Name: "Turkish", Native: "Türkçe"},
	"uk":    {Name: "Ukrainian", Native: "Українська"},
	"vi":    {Name: "Vietnamese", Native: "Tiếng Việt"},
	"yue":   {Name: "Cantonese", Native: "粵語"},
	"zh":    {Name: "Chinese", Native: "中文"},
	"zh-CN": {Name: "Simplified Chinese", Native: "简体中文"},
	"zh-HK": {Name: "Traditional Chinese (Hong Kong)", Native: "繁體中文（香港）"},
	"zh-TW": {Name: "Traditional Chinese", Native: "繁體中文"},
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort language metadata for language codes,
// supporting variants like zh_TW, zh-tw, and locale fallbacks.
func Resolve(lang string) Meta {
	if m, ok := Registry[lang]; ok {
		return m
	}
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if parts := strings.SplitN(normalized, "-", 2); len(parts) == 2 {
		if m, ok := Registry[parts[0]]; ok {
			return m
		}
	}
	return Meta{Name: lang, Native: lang}
}

// PromptName returns the English language name used in prompts.
func PromptName(lang string) string {
	return Resolve(lang).Name
}

// TBXTag returns the xml:lang value for lang: the lowercase primary
// subtag, e.g. "zh" for "zh-TW".
func TBXTag(lang string) string {
	normalized := canonicalize(lang)
	if i := strings.IndexByte(normalized, '-'); i > 0 {
		return normalized[:i]
	}
	return normalized
}

// Codes returns every registered code, sorted.
func Codes() []string {
	codes := make([]string, 0, len(Registry))
	for code := range Registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
