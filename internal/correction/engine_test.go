package correction

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tallyocr/internal/metrics"
)

func newDefaultEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultTables(), opts...)
	require.NoError(t, err)
	return e
}

func TestCorrect_KnownExamples(t *testing.T) {
	e := newDefaultEngine(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"phone noise token", "Contact: JJ 385-394-9046", "Contact: 385-394-9046"},
		{"city with comma", "villereek, UT 84106", "millcreek, UT 84106"},
		{"capitalized dictionary hit", "Ciplomacy", "Diplomacy"},
		{"upper dictionary hit", "CIPLOMACY SKILLS", "DIPLOMACY SKILLS"},
		{"rn confusion", "The cornpany rnanager", "The company manager"},
		{"split word", "Our develop ment team", "Our development team"},
		{"split word capitalized", "Develop ment plan", "Development plan"},
		{"url scheme host and tld", "Visit httos://wwvv.example.corn today", "Visit https://www.example.com today"},
		{"bare domain", "see example.corn", "see example.com"},
		{"email", "mail john@grnail.corn", "mail john@gmail.com"},
		{"adjacent tld labels", "see x.corn.corn", "see x.com.com"},
		{"adjacent email tld labels", "a@b.corn.corn", "a@b.com.com"},
		{"phone letter o", "Call 385-O39-9046", "Call 385-039-9046"},
		{"shortlink", "spoti.fiABC123", "spoti.fi/ABC123"},
		{"noise after phone", "385-394-9046 JJR", "385-394-9046"},
		{"whitespace", "  a \t b\n\nc  ", "a b c"},
		{"clean text untouched", "Mill Creek is lovely", "Mill Creek is lovely"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Correct(tt.in))
		})
	}
}

func TestCorrect_DictionaryIsWholeToken(t *testing.T) {
	e := newDefaultEngine(t)
	// "vill" is a known error, "village" must survive.
	assert.Equal(t, "mill village", e.Correct("vill village"))
	// A token with punctuation attached is not a dictionary hit.
	assert.Equal(t, "ciplomacy,", e.ApplyDictionary("ciplomacy,"))
}

func TestCorrect_DictionaryCasing(t *testing.T) {
	e := newDefaultEngine(t)
	for k, v := range DefaultTables().KnownErrors {
		if v == "" {
			continue
		}
		assert.Equal(t, upper(v), e.ApplyDictionary(upper(k)), k)
		assert.Equal(t, capitalize(v), e.ApplyDictionary(capitalize(k)), k)
		assert.Equal(t, lower(v), e.ApplyDictionary(lower(k)), k)
	}
}

func TestCorrectWithEvidence_TrustedCity(t *testing.T) {
	e := newDefaultEngine(t)

	got := e.CorrectWithEvidence("Milcreek, UT 84106", []string{"Millcreek, UT 84106"})
	assert.Equal(t, "Millcreek, UT 84106", got)

	// Evidence is corrected before it is trusted.
	got = e.CorrectWithEvidence("Mlllcreek UT 84106", []string{"villereek, UT 84106"})
	assert.Equal(t, "Millcreek UT 84106", got)

	// Evidence for another ZIP is ignored.
	got = e.CorrectWithEvidence("Sandy, UT 84070", []string{"Millcreek, UT 84106"})
	assert.Equal(t, "Sandy, UT 84070", got)
}

func TestCorrectWithEvidence_AmbiguousEvidenceIgnored(t *testing.T) {
	e := newDefaultEngine(t)
	got := e.CorrectWithEvidence("Holladay, UT 84117", []string{
		"Murray, UT 84117",
		"Holladay, UT 84117",
	})
	assert.Equal(t, "Holladay, UT 84117", got)
}

func TestCorrect_PanickingRuleIsSkipped(t *testing.T) {
	boom := NewFuncRule("test.boom", "custom", func(string) string { panic("boom") })
	e := newDefaultEngine(t, WithRules(boom))

	before := testutil.ToFloat64(metrics.RuleFailures.WithLabelValues("test.boom"))
	assert.Equal(t, "the company", e.Correct("the  cornpany"))
	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.RuleFailures.WithLabelValues("test.boom")), 0)
}

func TestCorrect_CountsRuleHits(t *testing.T) {
	e := newDefaultEngine(t)
	hits := metrics.RuleHits.WithLabelValues("dictionary", CategoryDictionary)

	before := testutil.ToFloat64(hits)
	e.Correct("nothing to fix here")
	assert.InDelta(t, before, testutil.ToFloat64(hits), 0)

	e.Correct("ciplomacy")
	assert.InDelta(t, before+1, testutil.ToFloat64(hits), 0)
}

func TestCorrect_TLDIsIdempotent(t *testing.T) {
	e := newDefaultEngine(t)
	for _, in := range []string{"see x.corn.corn", "a@b.corn.corn", "x.corn.corn.corn y@z.corn.corn"} {
		once := e.Correct(in)
		assert.Equal(t, once, e.Correct(once), in)
	}
}

func TestRegexRule_Repeat(t *testing.T) {
	spec := RuleSpec{Name: "squeeze", Pattern: `aa`, Replacement: "a"}
	plain, err := NewRegexRule(spec)
	require.NoError(t, err)

	spec.Repeat = true
	repeating, err := NewRegexRule(spec)
	require.NoError(t, err)

	assert.Equal(t, "aa", plain.Apply("aaaa"))
	assert.Equal(t, "a", repeating.Apply("aaaa"))
	assert.Equal(t, "b", repeating.Apply("b"))
}

func TestEngine_RuleOrder(t *testing.T) {
	e := newDefaultEngine(t)
	rules := e.Rules()
	require.NotEmpty(t, rules)

	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name()
	}
	assert.Equal(t, "url.https_scheme", names[0])
	assert.Equal(t, "location.city", names[len(names)-2])
	assert.Equal(t, "whitespace.collapse", names[len(names)-1])
	assert.Contains(t, names, "phone.noise_prefix")
	assert.Contains(t, names, "split.development")

	// Split rules run after URL, email and phone rules.
	var lastStructural, firstSplit int
	for i, r := range rules {
		switch r.Category() {
		case CategoryURL, CategoryEmail, CategoryPhone:
			lastStructural = i
		case CategorySplit:
			if firstSplit == 0 {
				firstSplit = i
			}
		}
	}
	assert.Less(t, lastStructural, firstSplit)
}

func TestEngine_CustomRulesReplaceDefaults(t *testing.T) {
	tables := DefaultTables()
	tables.Rules = []RuleSpec{{Name: "custom.colour", Pattern: `\bcolour\b`, Replacement: "color"}}
	tables.ExtraRules = []RuleSpec{{Name: "custom.grey", Category: "spelling", Pattern: `\bgrey\b`, Replacement: "gray"}}

	e, err := NewEngine(tables)
	require.NoError(t, err)
	assert.Equal(t, "color gray httos://x", e.Correct("colour grey httos://x"))
}

func TestNewEngine_InvalidRule(t *testing.T) {
	tables := DefaultTables()
	tables.ExtraRules = []RuleSpec{{Name: "broken", Pattern: `(`}}

	_, err := NewEngine(tables)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestNewEngine_NilTablesUsesDefaults(t *testing.T) {
	e, err := NewEngine(nil)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultTables().KnownErrors), e.Dictionary().Len())
}

func TestMatchCasing(t *testing.T) {
	assert.Equal(t, "DIPLOMACY", MatchCasing("CIPLOMACY", "diplomacy"))
	assert.Equal(t, "Diplomacy", MatchCasing("Ciplomacy", "diplomacy"))
	assert.Equal(t, "diplomacy", MatchCasing("ciplomacy", "Diplomacy"))
	// Mixed case that is neither upper nor capitalized lowers.
	assert.Equal(t, "diplomacy", MatchCasing("cIPLOMACY", "diplomacy"))
	// Capitalization lowers the tail of the replacement.
	assert.Equal(t, "Mill creek", MatchCasing("Villereek", "MILL CREEK"))
	// No letters at all.
	assert.Equal(t, "x", MatchCasing("123", "X"))
}

func TestLocationRule_KeepsSeparators(t *testing.T) {
	r := NewLocationRule(map[string]string{"villereek": "millcreek"}, nil)
	assert.Equal(t, "MILLCREEK,UT 84106", r.Apply("VILLEREEK,UT 84106"))
	assert.Equal(t, "x Millcreek UT  84106 y", r.Apply("x Villereek UT  84106 y"))
	assert.Equal(t, "Villereek is a typo", r.Apply("Villereek is a typo"))
}
