package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lemmaFolder = cases.Fold()

// NormalizeLemma reduces a surface form to the normalized lemma key used
// across the engine: NFKC normalization, case folding, and trimming of
// leading/trailing punctuation and whitespace. It performs no linguistic
// lemmatization.
func NormalizeLemma(surface string) string {
	s := norm.NFKC.String(surface)
	s = lemmaFolder.String(s)
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
	})
	return s
}

// NormalizeLanguage canonicalizes a language tag ("EN", "en-US") to its
// base form. Unparseable tags fold to lowercase as-is.
func NormalizeLanguage(tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(tag))
	}
	base, _ := parsed.Base()
	return base.String()
}
