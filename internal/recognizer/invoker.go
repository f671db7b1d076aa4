package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"
)

// Outcome classifies a single recognition call.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeEmpty   Outcome = "empty"
	OutcomeFailed  Outcome = "failed"
	OutcomeTimeout Outcome = "timeout"
)

// DefaultTimeout bounds one engine call at very high DPI.
const DefaultTimeout = 2 * time.Minute

// Result is the detailed outcome of one call. Err is informational only.
type Result struct {
	Text     string
	Outcome  Outcome
	Duration time.Duration
	Err      error
}

// Invoker wraps an Engine so that failures, panics and timeouts turn into
// empty text instead of errors.
type Invoker struct {
	engine  Engine
	timeout time.Duration
	clean   CleanOptions
	logger  *slog.Logger
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithTimeout sets the per-call timeout; zero or negative disables it.
func WithTimeout(d time.Duration) InvokerOption {
	return func(i *Invoker) { i.timeout = d }
}

// WithCleanOptions overrides output cleanup.
func WithCleanOptions(opts CleanOptions) InvokerOption {
	return func(i *Invoker) { i.clean = opts }
}

// WithLogger sets the logger for absorbed failures.
func WithLogger(l *slog.Logger) InvokerOption {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewInvoker wraps engine.
func NewInvoker(engine Engine, opts ...InvokerOption) *Invoker {
	i := &Invoker{
		engine:  engine,
		timeout: DefaultTimeout,
		clean:   DefaultCleanOptions(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Recognize returns the cleaned text for (img, profile), or "" on any failure.
func (i *Invoker) Recognize(ctx context.Context, img image.Image, profile Profile) string {
	return i.Invoke(ctx, img, profile).Text
}

// Invoke performs one call and classifies it. It never blocks past the
// timeout even if the engine ignores its context.
func (i *Invoker) Invoke(ctx context.Context, img image.Image, profile Profile) Result {
	start := time.Now()
	callCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- reply{err: fmt.Errorf("engine panic: %v", rec)}
			}
		}()
		text, err := i.engine.Recognize(callCtx, img, profile)
		done <- reply{text: text, err: err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-callCtx.Done():
		r = reply{err: callCtx.Err()}
	}

	res := Result{Duration: time.Since(start)}
	switch {
	case r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil:
		res.Outcome, res.Err = OutcomeTimeout, r.err
		i.logger.Warn("recognition timed out", "profile", profile.ID, "timeout", i.timeout)
	case r.err != nil:
		res.Outcome, res.Err = OutcomeFailed, r.err
		if ctx.Err() == nil {
			i.logger.Warn("recognition failed", "profile", profile.ID, "error", r.err)
		}
	default:
		text := CleanText(r.text, i.clean)
		if i.clean.DiscardGarbage && !LooksLikeText(text) {
			i.logger.Debug("discarding garbage recognition output", "profile", profile.ID, "length", len(text))
			text = ""
		}
		res.Text = text
		res.Outcome = OutcomeOK
		if text == "" {
			res.Outcome = OutcomeEmpty
		}
	}
	return res
}
