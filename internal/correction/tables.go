package correction

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// SplitWord rejoins a word that recognition split in two, e.g.
// "develop ment" -> "development".
type SplitWord struct {
	Split  string `yaml:"split" json:"split"`
	Joined string `yaml:"joined" json:"joined"`
}

// RuleSpec is a data-defined regex rule. Replacement uses Go regexp
// expansion syntax ($1, ${name}).
type RuleSpec struct {
	Name        string `yaml:"name" json:"name"`
	Category    string `yaml:"category" json:"category"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Replacement string `yaml:"replacement" json:"replacement"`
	// Repeat reapplies the rule until the text stops changing, for patterns
	// whose matches can overlap (x.corn.corn).
	Repeat bool `yaml:"repeat,omitempty" json:"repeat,omitempty"`
}

// Tables is the read-only correction configuration shared by every page.
type Tables struct {
	// KnownErrors maps a misread token to its correct form. Lookup is case-insensitive.
	KnownErrors map[string]string `yaml:"known_errors" json:"known_errors"`
	// Canonical forces the emitted casing of known problem words during consensus.
	Canonical map[string]string `yaml:"canonical" json:"canonical"`
	// BadCities maps misread city names found in "City, ST ZIP" lines.
	BadCities  map[string]string `yaml:"bad_cities" json:"bad_cities"`
	SplitWords []SplitWord       `yaml:"split_words" json:"split_words"`
	// PhoneNoise lists uppercase noise tokens stripped next to phone numbers.
	PhoneNoise []string `yaml:"phone_noise" json:"phone_noise"`
	// Rules replaces the built-in URL, email and phone rules when non-empty.
	Rules []RuleSpec `yaml:"rules,omitempty" json:"rules,omitempty"`
	// ExtraRules run after the built-in rules and before word rejoining.
	ExtraRules []RuleSpec `yaml:"extra_rules,omitempty" json:"extra_rules,omitempty"`
}

// DefaultTables returns the built-in tables.
func DefaultTables() *Tables {
	return &Tables{
		KnownErrors: map[string]string{
			"ciplomacy": "diplomacy",
			"villereek": "millcreek",
			"vill":      "mill",
			"httos":     "https",
			"hftp":      "http",
			"wwvv":      "www",
			"JJ":        "",
			"JJR":       "",

			"cornpany":        "company",
			"comrnittee":      "committee",
			"rnanagement":     "management",
			"cornmunication":  "communication",
			"rnanufacturing":  "manufacturing",
			"rnarketing":      "marketing",
			"developrnent":    "development",
			"environrnent":    "environment",
			"requirernents":   "requirements",
			"achievernent":    "achievement",
			"irnplementation": "implementation",
			"implernentation": "implementation",
			"docurnent":       "document",
			"rnonitoring":     "monitoring",
			"prornotion":      "promotion",
			"recomrnendation": "recommendation",
			"departrnent":     "department",
			"rnanager":        "manager",
			"problern":        "problem",
		},
		Canonical: map[string]string{
			"ciplomacy": "Diplomacy",
			"diplomacy": "Diplomacy",
		},
		BadCities: map[string]string{
			"villereek": "millcreek",
		},
		SplitWords: []SplitWord{
			{Split: "corn pany", Joined: "company"},
			{Split: "manage ment", Joined: "management"},
			{Split: "develop ment", Joined: "development"},
			{Split: "environ ment", Joined: "environment"},
			{Split: "imple mentation", Joined: "implementation"},
			{Split: "require ments", Joined: "requirements"},
			{Split: "achieve ment", Joined: "achievement"},
		},
		PhoneNoise: []string{"JJ", "JJR"},
	}
}

// LoadTables reads a YAML tables file. Sections missing from the file keep
// their built-in values; a present section replaces its default entirely.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return nil, errors.New("tables path cannot be empty")
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading user-provided tables file is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open correction tables: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes YAML tables over the defaults.
func ParseTables(data []byte) (*Tables, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse correction tables: %w", err)
	}

	t := DefaultTables()
	var errs []error
	for key, node := range raw {
		var target any
		switch key {
		case "known_errors":
			t.KnownErrors = nil
			target = &t.KnownErrors
		case "canonical":
			t.Canonical = nil
			target = &t.Canonical
		case "bad_cities":
			t.BadCities = nil
			target = &t.BadCities
		case "split_words":
			t.SplitWords = nil
			target = &t.SplitWords
		case "phone_noise":
			t.PhoneNoise = nil
			target = &t.PhoneNoise
		case "rules":
			target = &t.Rules
		case "extra_rules":
			target = &t.ExtraRules
		default:
			errs = append(errs, fmt.Errorf("unknown tables section %q", key))
			continue
		}
		if err := node.Decode(target); err != nil {
			errs = append(errs, fmt.Errorf("section %s: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid correction tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks structural consistency. Semantic overlaps are reported
// by Conflicts instead.
func (t *Tables) Validate() error {
	var errs []error
	for _, sw := range t.SplitWords {
		if len(strings.Fields(sw.Split)) != 2 {
			errs = append(errs, fmt.Errorf("split word %q must have exactly two parts", sw.Split))
		}
		if sw.Joined == "" {
			errs = append(errs, fmt.Errorf("split word %q has no joined form", sw.Split))
		} else if !strings.EqualFold(firstRune(sw.Split), firstRune(sw.Joined)) {
			errs = append(errs, fmt.Errorf("split word %q and %q must start with the same letter", sw.Split, sw.Joined))
		}
	}
	for _, specs := range [][]RuleSpec{t.Rules, t.ExtraRules} {
		for _, r := range specs {
			if r.Name == "" || r.Pattern == "" {
				errs = append(errs, fmt.Errorf("rule %q needs a name and a pattern", r.Name))
			}
		}
	}
	for _, tok := range t.PhoneNoise {
		if strings.TrimSpace(tok) == "" {
			errs = append(errs, errors.New("phone noise tokens cannot be blank"))
		}
	}
	return errors.Join(errs...)
}

func firstRune(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(r)
}

// Marshal renders the tables as YAML.
func (t *Tables) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("failed to encode correction tables: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadLexicon reads a word list (one entry per line, '#' comments allowed)
// of legitimate words. It feeds conflict detection only.
func LoadLexicon(path string) (map[string]struct{}, error) {
	if path == "" {
		return nil, errors.New("lexicon path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: Opening user-provided lexicon file is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon: %w", err)
	}
	defer func() { _ = f.Close() }()

	words := make(map[string]struct{}, 1024)
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words[foldString(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading lexicon: %w", err)
	}
	return words, nil
}
