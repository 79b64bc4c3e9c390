package promo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so marker matching survives
// diacritics in campaign names.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and removes diacritics.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// NameMatchesMarker reports whether any marker occurs in name, ignoring case
// and diacritics. Empty markers never match.
func NameMatchesMarker(name string, markers []string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	folded := Fold(name)
	for _, marker := range markers {
		m := Fold(strings.TrimSpace(marker))
		if m == "" {
			continue
		}
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}
