package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
)

// Engine is the external recognition engine. Implementations must be safe
// for concurrent use.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, profile Profile) (string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, img image.Image, profile Profile) (string, error)

// Recognize calls f.
func (f EngineFunc) Recognize(ctx context.Context, img image.Image, profile Profile) (string, error) {
	return f(ctx, img, profile)
}

// ErrEngineUnavailable reports an engine kind that is not compiled in or not installed.
var ErrEngineUnavailable = errors.New("recognition engine unavailable")

// Engine kinds.
const (
	EngineExec      = "exec"
	EngineGosseract = "gosseract"
)

// EngineConfig selects and configures an engine.
type EngineConfig struct {
	Kind     string
	Binary   string
	Language string
	OEM      int
	// Clients bounds concurrent in-process engine instances (gosseract only).
	Clients int
}

// DefaultEngineConfig returns the Tesseract CLI engine defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Kind:     EngineExec,
		Binary:   "tesseract",
		Language: "eng",
		OEM:      3,
		Clients:  runtime.NumCPU(),
	}
}

// NewEngine builds the engine named by cfg.Kind. The returned cleanup
// releases engine resources and is never nil.
func NewEngine(cfg EngineConfig) (Engine, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Kind {
	case EngineExec, "":
		e, err := NewExecEngine(cfg)
		if err != nil {
			return nil, noop, err
		}
		return e, noop, nil
	case EngineGosseract:
		e, err := newGosseractEngine(cfg)
		if err != nil {
			return nil, noop, err
		}
		return e, e.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown engine kind %q", cfg.Kind)
	}
}
