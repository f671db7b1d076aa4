package correction

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Rule categories.
const (
	CategoryDictionary = "dictionary"
	CategoryURL        = "url"
	CategoryEmail      = "email"
	CategoryPhone      = "phone"
	CategorySplit      = "split"
	CategoryLocation   = "location"
	CategoryWhitespace = "whitespace"
)

// Rule is one structural repair. Apply must return its input unchanged
// when the rule does not match.
type Rule interface {
	Name() string
	Category() string
	Apply(text string) string
}

// maxRepeat bounds repeating rules whose replacement keeps matching.
const maxRepeat = 16

// RegexRule replaces every match of a pattern using regexp expansion.
type RegexRule struct {
	name        string
	category    string
	re          *regexp.Regexp
	replacement string
	repeat      bool
}

// NewRegexRule compiles spec.
func NewRegexRule(spec RuleSpec) (*RegexRule, error) {
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", spec.Name, err)
	}
	category := spec.Category
	if category == "" {
		category = "custom"
	}
	return &RegexRule{
		name:        spec.Name,
		category:    category,
		re:          re,
		replacement: spec.Replacement,
		repeat:      spec.Repeat,
	}, nil
}

func (r *RegexRule) Name() string     { return r.name }
func (r *RegexRule) Category() string { return r.category }

func (r *RegexRule) Apply(text string) string {
	out := r.re.ReplaceAllString(text, r.replacement)
	if !r.repeat {
		return out
	}
	for range maxRepeat {
		next := r.re.ReplaceAllString(out, r.replacement)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// FuncRule wraps a plain function.
type FuncRule struct {
	name     string
	category string
	fn       func(string) string
}

// NewFuncRule returns a rule backed by fn.
func NewFuncRule(name, category string, fn func(string) string) *FuncRule {
	return &FuncRule{name: name, category: category, fn: fn}
}

func (r *FuncRule) Name() string            { return r.name }
func (r *FuncRule) Category() string        { return r.category }
func (r *FuncRule) Apply(text string) string { return r.fn(text) }

// phoneNumber matches ddd-ddd-dddd with optional '-', '.' or space separators.
const phoneNumber = `\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`

// DefaultRuleSpecs returns the built-in URL, email and phone rules in
// application order. Phone noise rules are generated from the tables.
func DefaultRuleSpecs() []RuleSpec {
	return []RuleSpec{
		{Name: "url.https_scheme", Category: CategoryURL, Pattern: `(?i)\bhttos://`, Replacement: "https://"},
		{Name: "url.http_scheme", Category: CategoryURL, Pattern: `(?i)\bhftp://`, Replacement: "http://"},
		{Name: "url.www", Category: CategoryURL, Pattern: `(?i)\bwwvv\.`, Replacement: "www."},
		{Name: "url.shortlink_slash", Category: CategoryURL, Pattern: `\bspoti\.fi([0-9A-Za-z]+)`, Replacement: "spoti.fi/$1"},
		{
			Name: "url.tld", Category: CategoryURL,
			Pattern:     `(^|[^@\w.-])([A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*)\.corn\b`,
			Replacement: "${1}${2}.com",
			Repeat:      true,
		},
		{
			Name: "email.tld", Category: CategoryEmail,
			Pattern:     `@([A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*)\.corn\b`,
			Replacement: "@${1}.com",
			Repeat:      true,
		},
		{Name: "email.gmail", Category: CategoryEmail, Pattern: `(?i)@(?:grnail|gmai1)\.`, Replacement: "@gmail."},
		{
			Name: "phone.letter_o", Category: CategoryPhone,
			Pattern:     `\b(\d{3})([-.\s]?)[Oo](\d{2})([-.\s]?)(\d{4})\b`,
			Replacement: "${1}${2}0${3}${4}${5}",
		},
	}
}

// phoneNoiseSpecs builds the rules that strip noise tokens glued to either
// side of a phone number.
func phoneNoiseSpecs(tokens []string) []RuleSpec {
	if len(tokens) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		quoted = append(quoted, regexp.QuoteMeta(strings.TrimSpace(t)))
	}
	// Longest first so JJR is not cut to JJ + R.
	slices.SortFunc(quoted, func(a, b string) int { return cmp.Compare(len(b), len(a)) })
	alt := strings.Join(quoted, "|")
	return []RuleSpec{
		{
			Name: "phone.noise_prefix", Category: CategoryPhone,
			Pattern:     `\b(?:` + alt + `)\s*(` + phoneNumber + `)\b`,
			Replacement: "$1",
		},
		{
			Name: "phone.noise_suffix", Category: CategoryPhone,
			Pattern:     `\b(` + phoneNumber + `)\s+(?:` + alt + `)\b`,
			Replacement: "$1",
		},
	}
}

// splitWordRule rejoins "first second" into joined, keeping the case of the
// first letter and matching the rest exactly.
func splitWordRule(sw SplitWord) (*RegexRule, error) {
	parts := strings.Fields(sw.Split)
	if len(parts) != 2 {
		return nil, fmt.Errorf("split word %q must have exactly two parts", sw.Split)
	}
	first, size := utf8.DecodeRuneInString(parts[0])
	lead := regexp.QuoteMeta(string(first))
	if l, u := lower(string(first)), upper(string(first)); l != u {
		lead = "[" + regexp.QuoteMeta(l) + regexp.QuoteMeta(u) + "]"
	}
	pattern := `\b(` + lead + `)` + regexp.QuoteMeta(parts[0][size:]) + `[ \t]+` + regexp.QuoteMeta(parts[1]) + `\b`

	_, jsize := utf8.DecodeRuneInString(sw.Joined)
	return NewRegexRule(RuleSpec{
		Name:        "split." + strings.ReplaceAll(sw.Joined, " ", "_"),
		Category:    CategorySplit,
		Pattern:     pattern,
		Replacement: "${1}" + strings.ReplaceAll(sw.Joined[jsize:], "$", "$$"),
	})
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// WhitespaceRule collapses whitespace runs to one space and trims.
func WhitespaceRule() Rule {
	return NewFuncRule("whitespace.collapse", CategoryWhitespace, func(s string) string {
		return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	})
}
