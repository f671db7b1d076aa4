package recognizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanOptions controls cleanup of raw engine output.
type CleanOptions struct {
	NormalizeForm      string // "NFC" (default), "NFKC", "NFD", "NFKD", "none"
	RemoveControlChars bool   // drop non-printable controls, keep \n \r \t
	RemoveZeroWidth    bool   // drop zero-width spaces/joiners and BOMs
	ASCIIPunctuation   bool   // fold typographic quotes, dashes and odd spaces
	Trim               bool
	DiscardGarbage     bool // empty output that fails LooksLikeText
}

// DefaultCleanOptions returns the cleanup applied to every pass result.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NormalizeForm:      "NFC",
		RemoveControlChars: true,
		RemoveZeroWidth:    true,
		ASCIIPunctuation:   true,
		Trim:               true,
		DiscardGarbage:     true,
	}
}

var punctuationFolder = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'",
	"\u201C", "\"", "\u201D", "\"", "\u201E", "\"",
	"\u2013", "-", "\u2014", "-", "\u2212", "-",
	"\u00A0", " ", "\u2009", " ", "\u202F", " ",
	"\uFB01", "fi", "\uFB02", "fl",
)

// CleanText normalizes engine output. Word boundaries are left alone; the
// consensus tokenizer splits on any whitespace run.
func CleanText(s string, opts CleanOptions) string {
	if s == "" {
		return s
	}

	switch strings.ToUpper(opts.NormalizeForm) {
	case "NFC", "":
		s = norm.NFC.String(s)
	case "NFKC":
		s = norm.NFKC.String(s)
	case "NFD":
		s = norm.NFD.String(s)
	case "NFKD":
		s = norm.NFKD.String(s)
	}

	if opts.RemoveZeroWidth || opts.RemoveControlChars {
		s = strings.Map(func(r rune) rune {
			switch {
			case opts.RemoveZeroWidth && isZeroWidth(r):
				return -1
			case opts.RemoveControlChars && unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t':
				return -1
			}
			return r
		}, s)
	}

	if opts.ASCIIPunctuation {
		s = punctuationFolder.Replace(s)
	}
	if opts.Trim {
		s = strings.TrimSpace(s)
	}
	return s
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u2060', '\uFEFF':
		return true
	}
	return false
}

// LooksLikeText reports whether s is plausible engine output: mostly letters
// and digits with almost no control characters. Empty text passes.
func LooksLikeText(s string) bool {
	var letters, controls, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			letters++
		case unicode.IsControl(r):
			controls++
		}
	}
	if total == 0 {
		return true
	}
	return float64(controls)/float64(total) < 0.05 && float64(letters)/float64(total) > 0.3
}
