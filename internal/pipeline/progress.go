package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback reports page completion while a document is processed.
// Calls are serialized by the processor.
type ProgressCallback interface {
	// OnStart is called once with the number of pages.
	OnStart(total int)

	// OnPage is called after each page; done counts finished pages, which
	// may complete out of order.
	OnPage(done, total int, page *PageResult)

	// OnComplete is called when every page is done.
	OnComplete(stats DocumentStats)

	// OnError is called when the document is abandoned.
	OnError(err error)
}

// NoOpProgressCallback implements ProgressCallback but does nothing.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)                  {}
func (NoOpProgressCallback) OnPage(int, int, *PageResult) {}
func (NoOpProgressCallback) OnComplete(DocumentStats)     {}
func (NoOpProgressCallback) OnError(error)                {}

// ConsoleProgressCallback draws a page progress bar.
type ConsoleProgressCallback struct {
	writer    io.Writer
	prefix    string
	width     int
	mutex     sync.Mutex
	startTime time.Time
	showETA   bool
}

// NewConsoleProgressCallback creates a console reporter writing to writer
// (os.Stderr when nil).
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:  writer,
		prefix:  prefix,
		width:   30,
		showETA: true,
	}
}

// WithWidth sets the progress bar width.
func (c *ConsoleProgressCallback) WithWidth(width int) *ConsoleProgressCallback {
	if width > 0 {
		c.width = width
	}
	return c
}

// WithETA toggles the remaining-time estimate.
func (c *ConsoleProgressCallback) WithETA(show bool) *ConsoleProgressCallback {
	c.showETA = show
	return c
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.startTime = time.Now()
	_, _ = fmt.Fprintf(c.writer, "%s0/%d pages\n", c.prefix, total)
}

func (c *ConsoleProgressCallback) OnPage(done, total int, page *PageResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if total <= 0 {
		return
	}
	filled := c.width * done / total
	bar := strings.Repeat("#", filled) + strings.Repeat("-", c.width-filled)
	status := fmt.Sprintf("\r%s[%s] %d/%d pages", c.prefix, bar, done, total)
	if page != nil {
		status += fmt.Sprintf(" (page %d agreement %.2f)", page.Index+1, page.Agreement)
	}

	elapsed := time.Since(c.startTime)
	if c.showETA && done > 0 && done < total && elapsed > 0 {
		eta := time.Duration(float64(elapsed) * float64(total-done) / float64(done))
		status += fmt.Sprintf(" ETA: %v", eta.Round(time.Second))
	}
	_, _ = fmt.Fprint(c.writer, status)
}

func (c *ConsoleProgressCallback) OnComplete(stats DocumentStats) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, _ = fmt.Fprintf(c.writer, "\n%sCompleted %d pages in %v (%d failed passes)\n",
		c.prefix, stats.Pages, stats.Duration.Round(time.Millisecond), stats.FailedPasses)
}

func (c *ConsoleProgressCallback) OnError(err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, _ = fmt.Fprintf(c.writer, "\n%sAborted: %v\n", c.prefix, err)
}

// LogProgressCallback logs progress with slog.
type LogProgressCallback struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogProgressCallback creates a log-based reporter.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.logger.Log(context.Background(), l.level, "starting document", "pages", total)
}

func (l *LogProgressCallback) OnPage(done, total int, page *PageResult) {
	attrs := []any{"done", done, "total", total}
	if page != nil {
		attrs = append(attrs, "page", page.Index, "agreement", fmt.Sprintf("%.2f", page.Agreement))
	}
	l.logger.Log(context.Background(), l.level, "page completed", attrs...)
}

func (l *LogProgressCallback) OnComplete(stats DocumentStats) {
	l.logger.Log(context.Background(), l.level, "document completed",
		"pages", stats.Pages,
		"elapsed", stats.Duration.Round(time.Millisecond),
	)
}

func (l *LogProgressCallback) OnError(err error) {
	l.logger.Log(context.Background(), slog.LevelError, "document aborted", "error", err)
}

// MultiProgressCallback fans out to several callbacks.
type MultiProgressCallback struct {
	callbacks []ProgressCallback
}

// NewMultiProgressCallback creates a progress callback that reports to multiple callbacks.
func NewMultiProgressCallback(callbacks ...ProgressCallback) *MultiProgressCallback {
	return &MultiProgressCallback{callbacks: callbacks}
}

// Add adds another progress callback.
func (m *MultiProgressCallback) Add(callback ProgressCallback) {
	m.callbacks = append(m.callbacks, callback)
}

func (m *MultiProgressCallback) OnStart(total int) {
	for _, cb := range m.callbacks {
		cb.OnStart(total)
	}
}

func (m *MultiProgressCallback) OnPage(done, total int, page *PageResult) {
	for _, cb := range m.callbacks {
		cb.OnPage(done, total, page)
	}
}

func (m *MultiProgressCallback) OnComplete(stats DocumentStats) {
	for _, cb := range m.callbacks {
		cb.OnComplete(stats)
	}
}

func (m *MultiProgressCallback) OnError(err error) {
	for _, cb := range m.callbacks {
		cb.OnError(err)
	}
}
