// Package i18n translates the messages termex prints: command help, CLI
// log lines, and the run summary and empty-result advice produced by the
// extract package.
//
// Catalogs are gettext .po files embedded from locales/{lang}/LC_MESSAGES/termex.po
// and read with gotext. Until Init is called every function returns the
// English message, so library code and tests can use it unconditionally.
//
//	i18n.Init("") // LANGUAGE, LC_ALL, LC_MESSAGES, LANG
//	fmt.Println(i18n.Count("%d term", "%d terms", len(terms)))
//	fmt.Println(i18n.Sprintf("Exported %s", path))
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

// domain is the gettext domain of the embedded catalogs.
const domain = "termex"

var (
	po   *gotext.Locale
	lang = "en"
)

// noVars is passed to gotext so that a msgid containing % verbs is looked up
// and returned verbatim instead of being formatted.
var noVars []any

// Init loads the catalog for lang, or for the environment's language when
// lang is empty. A language without a catalog falls back to English.
func Init(l string) {
	if l == "" {
		l = detectLanguage()
	}
	lang = l

	po = gotext.NewLocaleFSWithPath(l, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Lang returns the language selected by Init ("en" before Init).
func Lang() string {
	return lang
}

// T returns the translation of msgid, or msgid itself.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid, noVars...)
}

// N returns the singular or plural translation for n, following the
// catalog's Plural-Forms rule.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n, noVars...)
}

// Sprintf translates format and then formats it with args.
func Sprintf(format string, args ...any) string {
	return fmt.Sprintf(T(format), args...)
}

// Count formats n with the plural form it selects, e.g. "3 terms".
func Count(singular, plural string, n int) string {
	return fmt.Sprintf(N(singular, plural, n), n)
}

// detectLanguage follows GNU gettext: LANGUAGE > LC_ALL > LC_MESSAGES > LANG.
// "ru_RU.UTF-8" and "sr_RS@latin" reduce to "ru_RU" and "sr_RS"; C and POSIX
// mean no translation.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		if i := strings.IndexAny(val, ".@"); i >= 0 {
			val = val[:i]
		}
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
