package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText_Defaults(t *testing.T) {
	in := "\uFEFF  Hello\tWorld\u200B!  "
	assert.Equal(t, "Hello\tWorld!", CleanText(in, DefaultCleanOptions()))
}

func TestCleanText_FoldsPunctuation(t *testing.T) {
	in := "\u201CQuoted\u201D and \u2013 dash \u2014 and nbsp\u00A0here \uFB01le"
	assert.Equal(t, `"Quoted" and - dash - and nbsp here file`, CleanText(in, DefaultCleanOptions()))
}

func TestCleanText_KeepsLineBreaks(t *testing.T) {
	in := "line one\nline\x00 two\n"
	assert.Equal(t, "line one\nline two", CleanText(in, DefaultCleanOptions()))
}

func TestCleanText_NormalizesNFC(t *testing.T) {
	decomposed := "Cafe\u0301"
	assert.Equal(t, "Caf\u00E9", CleanText(decomposed, DefaultCleanOptions()))
}

func TestLooksLikeText(t *testing.T) {
	assert.True(t, LooksLikeText("Hello 123"))
	assert.True(t, LooksLikeText(""))
	assert.True(t, LooksLikeText("   \n"))
	assert.False(t, LooksLikeText("\x00\x01\x02"))
	assert.False(t, LooksLikeText("~~~ ||| ___ ..."))
}
