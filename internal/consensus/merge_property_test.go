package consensus

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genWords() gopter.Gen {
	return gen.SliceOf(gen.AlphaString().SuchThat(func(s string) bool { return s != "" }))
}

func TestMerge_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	m := NewMerger()

	properties.Property("single pass is a no-op", prop.ForAll(
		func(words []string) bool {
			text := strings.Join(words, " ")
			return m.Merge([]string{text}) == text
		},
		genWords(),
	))

	properties.Property("empty passes contribute nothing", prop.ForAll(
		func(words []string, empties int) bool {
			text := strings.Join(words, " ")
			passes := make([]string, 0, empties+1)
			for range empties {
				passes = append(passes, "")
			}
			passes = append(passes, text)
			return m.Merge(passes) == text
		},
		genWords(),
		gen.IntRange(0, 5),
	))

	properties.Property("identical passes agree with themselves", prop.ForAll(
		func(words []string, n int) bool {
			text := strings.Join(words, " ")
			passes := make([]string, n)
			for i := range passes {
				passes[i] = text
			}
			return m.Merge(passes) == text
		},
		genWords(),
		gen.IntRange(1, 6),
	))

	properties.Property("two-of-three majority wins every position", prop.ForAll(
		func(words []string) bool {
			text := strings.Join(words, " ")
			noisy := make([]string, len(words))
			for i, w := range words {
				noisy[i] = w + "x"
			}
			return m.Merge([]string{strings.Join(noisy, " "), text, text}) == text
		},
		genWords(),
	))

	properties.Property("merge is deterministic", prop.ForAll(
		func(a, b, c []string) bool {
			passes := []string{strings.Join(a, " "), strings.Join(b, " "), strings.Join(c, " ")}
			return m.Merge(passes) == m.Merge(passes)
		},
		genWords(), genWords(), genWords(),
	))

	properties.TestingRun(t)
}
