// Package i18n holds the console phrase catalogs and picks one for the
// language banshee reports through /api/language.
package i18n

import (
	"log/slog"
	"strings"

	"golang.org/x/text/language"
)

// Catalog maps phrase keys to templates with {{name}} placeholders.
type Catalog struct {
	Tag     language.Tag
	phrases map[string]string
}

var (
	catalogs = []*Catalog{
		{Tag: language.English, phrases: english},
		{Tag: language.SimplifiedChinese, phrases: simplifiedChinese},
	}
	matcher = language.NewMatcher([]language.Tag{language.English, language.SimplifiedChinese})
)

// Lookup returns the catalog best matching lang ("en", "zh", "zh-CN", ...).
// Unknown or malformed languages fall back to English.
func Lookup(lang string) *Catalog {
	if lang == "" {
		return catalogs[0]
	}
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil {
		slog.Debug("unable to parse language, using english", "language", lang, "err", err)
		return catalogs[0]
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return catalogs[0]
	}
	return catalogs[index]
}

// Phrase renders key with vars. Missing keys render as the key itself.
func (c *Catalog) Phrase(key string, vars map[string]string) string {
	tpl, ok := c.phrases[key]
	if !ok {
		tpl, ok = english[key]
	}
	if !ok {
		return key
	}
	if len(vars) == 0 {
		return tpl
	}
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
