package correction

import (
	"regexp"
	"strings"
)

// locationLine matches "City, ST ZIP" with an optional comma.
var locationLine = regexp.MustCompile(`\b([A-Za-z]+)(,?[ \t]*)([A-Z]{2})([ \t]*)(\d{5})\b`)

// LocationRule repairs the city token of "City, ST ZIP" sequences. A city
// listed in the bad-city table is replaced even when a comma is attached;
// with evidence, a city that disagrees with a trusted reading of the same
// "ST ZIP" is replaced by the trusted city.
type LocationRule struct {
	badCities map[string]string
	dict      *Dictionary
	trusted   map[string]string
}

// NewLocationRule builds the rule from the bad-city table. dict, when not
// nil, also corrects cities read from evidence.
func NewLocationRule(badCities map[string]string, dict *Dictionary) *LocationRule {
	folded := make(map[string]string, len(badCities))
	for k, v := range badCities {
		folded[foldString(k)] = v
	}
	return &LocationRule{badCities: folded, dict: dict}
}

func (r *LocationRule) Name() string     { return "location.city" }
func (r *LocationRule) Category() string { return CategoryLocation }

// WithEvidence returns a copy of the rule that also trusts the locations
// read in evidence. Readings of one "ST ZIP" that disagree are ignored.
func (r *LocationRule) WithEvidence(evidence []string) *LocationRule {
	trusted := make(map[string]string)
	ambiguous := make(map[string]bool)
	for _, text := range evidence {
		for _, m := range locationLine.FindAllStringSubmatch(text, -1) {
			key := m[3] + " " + m[5]
			city := r.fixCity(m[1])
			if prev, ok := trusted[key]; ok && foldString(prev) != foldString(city) {
				ambiguous[key] = true
				continue
			}
			trusted[key] = city
		}
	}
	for key := range ambiguous {
		delete(trusted, key)
	}

	out := *r
	out.trusted = trusted
	return &out
}

func (r *LocationRule) fixCity(city string) string {
	if good, ok := r.badCities[foldString(city)]; ok {
		return MatchCasing(city, good)
	}
	if r.dict != nil {
		if good, ok := r.dict.Lookup(city); ok && good != "" {
			return good
		}
	}
	return city
}

func (r *LocationRule) Apply(text string) string {
	matches := locationLine.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		cityStart, cityEnd := m[2], m[3]
		city := text[cityStart:cityEnd]
		replacement := city

		if good, ok := r.badCities[foldString(city)]; ok {
			replacement = MatchCasing(city, good)
		} else if trusted, ok := r.trusted[text[m[6]:m[7]]+" "+text[m[10]:m[11]]]; ok &&
			foldString(trusted) != foldString(city) {
			replacement = MatchCasing(city, trusted)
		}

		b.WriteString(text[last:cityStart])
		b.WriteString(replacement)
		last = cityEnd
	}
	b.WriteString(text[last:])
	return b.String()
}
