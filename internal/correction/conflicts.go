package correction

import (
	"cmp"
	"fmt"
	"slices"
)

// Conflict describes an overlap between correction tables that can make a
// correction fire on legitimate text. Conflicts are reported, never resolved.
type Conflict struct {
	Table  string `json:"table"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s[%s]: %s", c.Table, c.Key, c.Reason)
}

// Conflicts checks the tables against themselves and, when lexicon is not
// nil, against a set of legitimate words (keys already folded).
func (t *Tables) Conflicts(lexicon map[string]struct{}) []Conflict {
	var out []Conflict

	correct := make(map[string]string)
	addCorrect := func(table, word string) {
		if word == "" {
			return
		}
		if _, seen := correct[foldString(word)]; !seen {
			correct[foldString(word)] = table
		}
	}
	for _, v := range t.KnownErrors {
		addCorrect("known_errors", v)
	}
	for _, v := range t.BadCities {
		addCorrect("bad_cities", v)
	}
	for _, v := range t.Canonical {
		addCorrect("canonical", v)
	}
	for _, sw := range t.SplitWords {
		addCorrect("split_words", sw.Joined)
	}

	folded := make(map[string][]string)
	for k := range t.KnownErrors {
		f := foldString(k)
		folded[f] = append(folded[f], k)
		if table, ok := correct[f]; ok {
			out = append(out, Conflict{
				Table: "known_errors", Key: k,
				Reason: fmt.Sprintf("key is also a correct form in %s", table),
			})
		}
		if _, ok := lexicon[f]; ok {
			out = append(out, Conflict{Table: "known_errors", Key: k, Reason: "key is a legitimate word in the lexicon"})
		}
	}
	for f, keys := range folded {
		if len(keys) < 2 {
			continue
		}
		slices.Sort(keys)
		for _, k := range keys[1:] {
			if foldString(t.KnownErrors[k]) != foldString(t.KnownErrors[keys[0]]) {
				out = append(out, Conflict{
					Table: "known_errors", Key: k,
					Reason: fmt.Sprintf("folds to %q like %q but maps to a different correction", f, keys[0]),
				})
			}
		}
	}

	for k := range t.BadCities {
		if _, ok := lexicon[foldString(k)]; ok {
			out = append(out, Conflict{Table: "bad_cities", Key: k, Reason: "city is a legitimate word in the lexicon"})
		}
	}
	for _, sw := range t.SplitWords {
		if _, ok := folded[foldString(sw.Joined)]; ok {
			out = append(out, Conflict{
				Table: "split_words", Key: sw.Split,
				Reason: fmt.Sprintf("joined form %q is itself a known-error key", sw.Joined),
			})
		}
	}

	slices.SortFunc(out, func(a, b Conflict) int {
		return cmp.Or(cmp.Compare(a.Table, b.Table), cmp.Compare(a.Key, b.Key), cmp.Compare(a.Reason, b.Reason))
	})
	return out
}
