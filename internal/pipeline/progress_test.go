package pipeline

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpProgressCallback(t *testing.T) {
	callback := NoOpProgressCallback{}
	callback.OnStart(10)
	callback.OnPage(5, 10, nil)
	callback.OnComplete(DocumentStats{})
	callback.OnError(assert.AnError)
}

func TestConsoleProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	callback := NewConsoleProgressCallback(&buf, "Test: ").WithWidth(10)

	callback.OnStart(4)
	assert.Contains(t, buf.String(), "Test: 0/4 pages")

	buf.Reset()
	callback.OnPage(2, 4, &PageResult{Index: 3, Agreement: 0.75})
	output := buf.String()
	assert.Contains(t, output, "[#####-----] 2/4 pages")
	assert.Contains(t, output, "page 4 agreement 0.75")

	buf.Reset()
	callback.OnComplete(DocumentStats{Pages: 4, FailedPasses: 1, Duration: 1500 * time.Millisecond})
	assert.Contains(t, buf.String(), "Test: Completed 4 pages in 1.5s (1 failed passes)")

	buf.Reset()
	callback.OnError(assert.AnError)
	assert.Contains(t, buf.String(), "Test: Aborted")
}

func TestConsoleProgressCallback_NoETA(t *testing.T) {
	var buf bytes.Buffer
	callback := NewConsoleProgressCallback(&buf, "").WithETA(false)
	callback.OnStart(3)
	time.Sleep(5 * time.Millisecond)

	buf.Reset()
	callback.OnPage(1, 3, nil)
	assert.NotContains(t, buf.String(), "ETA")

	// Zero totals are ignored.
	buf.Reset()
	callback.OnPage(0, 0, nil)
	assert.Empty(t, buf.String())
}

func TestLogProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	callback := NewLogProgressCallback(logger, slog.LevelInfo)

	callback.OnStart(2)
	callback.OnPage(1, 2, &PageResult{Index: 0, Agreement: 1})
	callback.OnComplete(DocumentStats{Pages: 2})
	callback.OnError(assert.AnError)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)

	var page map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &page))
	assert.Equal(t, "page completed", page["msg"])
	assert.InDelta(t, 1, page["done"], 0)
	assert.Equal(t, "1.00", page["agreement"])

	var failure map[string]any
	require.NoError(t, json.Unmarshal(lines[3], &failure))
	assert.Equal(t, "ERROR", failure["level"])
}

func TestMultiProgressCallback(t *testing.T) {
	a, b := &recordingProgress{}, &recordingProgress{}
	multi := NewMultiProgressCallback(a)
	multi.Add(b)

	multi.OnStart(2)
	multi.OnPage(1, 2, nil)
	multi.OnComplete(DocumentStats{})
	multi.OnError(assert.AnError)

	for _, r := range []*recordingProgress{a, b} {
		assert.Equal(t, 2, r.total)
		assert.Equal(t, []int{1}, r.done)
		assert.True(t, r.completed)
		assert.ErrorIs(t, r.err, assert.AnError)
	}
}
