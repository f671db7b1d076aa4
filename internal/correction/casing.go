package correction

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers are stateful, so each call builds its own.

func foldString(s string) string { return cases.Fold().String(s) }

func upper(s string) string { return cases.Upper(language.Und).String(s) }

func lower(s string) string { return cases.Lower(language.Und).String(s) }

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return upper(string(r)) + lower(s[size:])
}

// isAllUpper reports whether s has at least one cased letter and no lowercase ones.
func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// MatchCasing maps the casing pattern of original onto replacement: all
// uppercase, capitalized, or lowercase.
func MatchCasing(original, replacement string) string {
	if isAllUpper(original) {
		return upper(replacement)
	}
	if r, _ := utf8.DecodeRuneInString(original); unicode.IsUpper(r) {
		return capitalize(replacement)
	}
	return lower(replacement)
}
