package correction

import (
	"slices"
	"strings"
	"unicode"
)

// Dictionary performs whole-token, case-insensitive substitution of known
// misreadings.
type Dictionary struct {
	entries map[string]string
}

// NewDictionary folds the keys of known. When two keys fold together the
// lexically smaller one wins; Conflicts reports the clash.
func NewDictionary(known map[string]string) *Dictionary {
	keys := make([]string, 0, len(known))
	for k := range known {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	d := &Dictionary{entries: make(map[string]string, len(known))}
	for _, k := range keys {
		f := foldString(k)
		if _, taken := d.entries[f]; taken {
			continue
		}
		d.entries[f] = known[k]
	}
	return d
}

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.entries) }

// Lookup returns the correction for token with the token's casing applied.
func (d *Dictionary) Lookup(token string) (string, bool) {
	good, ok := d.entries[foldString(token)]
	if !ok {
		return "", false
	}
	return MatchCasing(token, good), true
}

// Apply replaces every whitespace-delimited token found in the dictionary.
// Whitespace is preserved; a token corrected to "" leaves its neighbors'
// spacing for the whitespace rule to collapse.
func (d *Dictionary) Apply(text string) string {
	if len(d.entries) == 0 || text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := text[start:end]
		if fixed, ok := d.Lookup(tok); ok {
			b.WriteString(fixed)
		} else {
			b.WriteString(tok)
		}
		start = -1
	}

	for i, r := range text {
		if unicode.IsSpace(r) {
			flush(i)
			b.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(text))
	return b.String()
}
