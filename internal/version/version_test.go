package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "1.2.3"

	v, commit, date := Info()
	assert.Equal(t, "1.2.3", v)
	assert.NotEmpty(t, commit)
	assert.Equal(t, BuildDate, date)
}

func TestString(t *testing.T) {
	s := String()
	assert.Contains(t, s, "tallyocr ")
	assert.Contains(t, s, runtime.Version())
}
