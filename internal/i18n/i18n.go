package i18n

import (
	"html"
	"strings"
)

// DefaultLang is used for unknown users and missing translations
const DefaultLang = "ru"

// Vars are substituted into {placeholders}. Values are HTML-escaped.
type Vars map[string]string

// T renders key in lang, falling back to DefaultLang and then to the key
func T(lang, key string, vars Vars) string {
	text, ok := catalog[lang][key]
	if !ok {
		text, ok = catalog[DefaultLang][key]
	}
	if !ok {
		return key
	}
	return render(text, vars)
}

// Has reports whether key exists in the default catalog
func Has(key string) bool {
	_, ok := catalog[DefaultLang][key]
	return ok
}

func render(text string, vars Vars) string {
	if len(vars) == 0 {
		return text
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", html.EscapeString(v))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
