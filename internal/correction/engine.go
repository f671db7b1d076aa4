// Package correction repairs merged page text in two ordered layers:
// whole-token dictionary substitution of known misreadings, then structural
// rules for URLs, emails, phone numbers, split words, locations and
// whitespace. Every rule is a pure string function; a rule that panics is
// skipped and the text passes through unchanged.
package correction

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/tallyocr/internal/metrics"
)

// Engine applies the correction layers. It is immutable after construction
// and safe for concurrent use.
type Engine struct {
	dict     *Dictionary
	rules    []Rule
	location *LocationRule
	tail     []Rule
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for skipped rules.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRules appends rules after the table-driven regex rules.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) { e.rules = append(e.rules, rules...) }
}

// NewEngine compiles t into an Engine.
func NewEngine(t *Tables, opts ...Option) (*Engine, error) {
	if t == nil {
		t = DefaultTables()
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid correction tables: %w", err)
	}

	e := &Engine{
		dict:   NewDictionary(t.KnownErrors),
		logger: slog.Default(),
	}

	specs := t.Rules
	if len(specs) == 0 {
		specs = DefaultRuleSpecs()
	}
	specs = append(append(append([]RuleSpec{}, specs...), phoneNoiseSpecs(t.PhoneNoise)...), t.ExtraRules...)
	for _, spec := range specs {
		r, err := NewRegexRule(spec)
		if err != nil {
			return nil, err
		}
		e.rules = append(e.rules, r)
	}

	for _, opt := range opts {
		opt(e)
	}

	for _, sw := range t.SplitWords {
		r, err := splitWordRule(sw)
		if err != nil {
			return nil, err
		}
		e.tail = append(e.tail, r)
	}
	e.location = NewLocationRule(t.BadCities, e.dict)
	return e, nil
}

// Dictionary returns the Layer A dictionary.
func (e *Engine) Dictionary() *Dictionary { return e.dict }

// Rules returns the Layer B rules in application order, without evidence.
func (e *Engine) Rules() []Rule {
	return e.layerB(e.location)
}

func (e *Engine) layerB(location Rule) []Rule {
	out := make([]Rule, 0, len(e.rules)+len(e.tail)+2)
	out = append(out, e.rules...)
	out = append(out, e.tail...)
	out = append(out, location, WhitespaceRule())
	return out
}

// Correct applies both layers.
func (e *Engine) Correct(text string) string {
	return e.CorrectWithEvidence(text, nil)
}

// CorrectWithEvidence applies both layers, letting the location rule trust
// the "City, ST ZIP" readings found in evidence (region pass output).
func (e *Engine) CorrectWithEvidence(text string, evidence []string) string {
	text = e.ApplyDictionary(text)

	location := e.location
	if len(evidence) > 0 {
		location = e.location.WithEvidence(evidence)
	}
	return e.applyRules(e.layerB(location), text)
}

// ApplyDictionary runs Layer A only.
func (e *Engine) ApplyDictionary(text string) string {
	return e.safeApply(NewFuncRule("dictionary", CategoryDictionary, e.dict.Apply), text)
}

// ApplyRules runs Layer B only.
func (e *Engine) ApplyRules(text string) string {
	return e.applyRules(e.Rules(), text)
}

func (e *Engine) applyRules(rules []Rule, text string) string {
	for _, r := range rules {
		text = e.safeApply(r, text)
	}
	return text
}

func (e *Engine) safeApply(r Rule, text string) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("correction rule skipped", "rule", r.Name(), "category", r.Category(), "error", rec)
			metrics.RuleFailures.WithLabelValues(r.Name()).Inc()
			out = text
		}
	}()

	out = r.Apply(text)
	if out != text {
		metrics.RuleHits.WithLabelValues(r.Name(), r.Category()).Inc()
	}
	return out
}
