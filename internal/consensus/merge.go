// Package consensus merges the word sequences of several recognition passes
// by per-position, case-insensitive majority vote.
//
// Positions are aligned naively: word i of every pass competes with word i
// of every other pass. A pass that drops or adds a word shifts everything
// after it; this is accepted rather than corrected by sequence alignment.
package consensus

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Token is one recognized word at its position within a pass.
type Token struct {
	Text     string
	Position int
	Pass     int
}

// Word is the winning token at one position.
type Word struct {
	Text     string
	Position int
	// Votes is the size of the winning group; Voters counts passes that had
	// a word at this position.
	Votes  int
	Voters int
}

// Tokenize splits text on whitespace runs.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Merger votes across passes. It holds only read-only data and is safe for
// concurrent use.
type Merger struct {
	canonical map[string]string
}

// Option configures a Merger.
type Option func(*Merger)

// WithCanonical sets known problem words: spellings (any case) mapped to the
// canonical form emitted when that spelling wins a position.
func WithCanonical(words map[string]string) Option {
	return func(m *Merger) {
		fold := cases.Fold()
		for k, v := range words {
			if k == "" || v == "" {
				continue
			}
			m.canonical[fold.String(k)] = v
		}
	}
}

// NewMerger returns a Merger.
func NewMerger(opts ...Option) *Merger {
	m := &Merger{canonical: make(map[string]string)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge returns the winning words joined by single spaces.
func (m *Merger) Merge(texts []string) string {
	words := m.MergeWords(texts)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return strings.Join(out, " ")
}

type variant struct {
	text  string
	count int
}

type group struct {
	key      string
	members  int
	variants []variant
}

// MergeWords returns the winning word for every position that at least one
// pass reached. Ties between groups, and between casing variants within the
// winning group, go to whichever was seen first in pass order.
func (m *Merger) MergeWords(texts []string) []Word {
	passes := make([][]string, len(texts))
	maxLen := 0
	for i, t := range texts {
		passes[i] = Tokenize(t)
		maxLen = max(maxLen, len(passes[i]))
	}

	fold := cases.Fold()
	words := make([]Word, 0, maxLen)
	for pos := range maxLen {
		var tokens []Token
		for p, seq := range passes {
			if pos < len(seq) {
				tokens = append(tokens, Token{Text: seq[pos], Position: pos, Pass: p})
			}
		}
		if len(tokens) == 0 {
			continue
		}

		winner := vote(tokens, fold)
		words = append(words, Word{
			Text:     m.casing(winner),
			Position: pos,
			Votes:    winner.members,
			Voters:   len(tokens),
		})
	}
	return words
}

func vote(tokens []Token, fold cases.Caser) *group {
	var groups []*group
	byKey := make(map[string]*group)
	for _, tok := range tokens {
		key := fold.String(tok.Text)
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.members++
		g.add(tok.Text)
	}

	winner := groups[0]
	for _, g := range groups[1:] {
		if g.members > winner.members {
			winner = g
		}
	}
	return winner
}

func (g *group) add(text string) {
	for i := range g.variants {
		if g.variants[i].text == text {
			g.variants[i].count++
			return
		}
	}
	g.variants = append(g.variants, variant{text: text, count: 1})
}

func (m *Merger) casing(g *group) string {
	if canon, ok := m.canonical[g.key]; ok {
		lead, _ := utf8.DecodeRuneInString(canon)
		for _, v := range g.variants {
			if r, _ := utf8.DecodeRuneInString(v.text); r == lead {
				return v.text
			}
		}
		return canon
	}

	best := g.variants[0]
	for _, v := range g.variants[1:] {
		if v.count > best.count {
			best = v
		}
	}
	return best.text
}

// Agreement returns the mean share of voters backing each winning word,
// 1 when every pass agreed everywhere and 0 for no words.
func Agreement(words []Word) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += float64(w.Votes) / float64(w.Voters)
	}
	return sum / float64(len(words))
}
