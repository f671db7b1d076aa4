// Package pipeline runs the multi-pass recognition pipeline: every page is
// conditioned by several image transforms, recognized once per pass,
// merged by consensus vote and corrected. Pages are independent; a document
// is the ordered concatenation of its pages.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/MeKo-Tech/tallyocr/internal/consensus"
	"github.com/MeKo-Tech/tallyocr/internal/correction"
	"github.com/MeKo-Tech/tallyocr/internal/recognizer"
	"github.com/MeKo-Tech/tallyocr/internal/transform"
)

// DefaultDPI is the resolution hint handed to the recognition engine.
const DefaultDPI = 1500

// DefaultMaxPages bounds the pages held in memory at once.
const DefaultMaxPages = 2

// Config holds the settings of a Processor.
type Config struct {
	Passes     []PassSpec
	DPI        int
	Timeout    time.Duration // per recognition call; <= 0 disables
	MaxWorkers int           // pass workers shared by all pages (0 = runtime.NumCPU())
	MaxPages   int           // pages processed concurrently
	Tables     *correction.Tables
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Passes:     DefaultPasses(),
		DPI:        DefaultDPI,
		Timeout:    recognizer.DefaultTimeout,
		MaxWorkers: runtime.NumCPU(),
		MaxPages:   DefaultMaxPages,
		Tables:     correction.DefaultTables(),
	}
}

// Builder constructs a Processor with fluent configuration.
type Builder struct {
	cfg       Config
	engine    recognizer.Engine
	registry  *transform.Registry
	progress  ProgressCallback
	logger    *slog.Logger
	canonical bool
}

// NewBuilder creates a new builder with defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig(), canonical: true}
}

// WithEngine sets the recognition engine. Required.
func (b *Builder) WithEngine(engine recognizer.Engine) *Builder {
	b.engine = engine
	return b
}

// WithPasses replaces the pass list.
func (b *Builder) WithPasses(passes []PassSpec) *Builder {
	if len(passes) > 0 {
		b.cfg.Passes = append([]PassSpec(nil), passes...)
	}
	return b
}

// WithDPI sets the resolution hint.
func (b *Builder) WithDPI(dpi int) *Builder {
	if dpi > 0 {
		b.cfg.DPI = dpi
	}
	return b
}

// WithTimeout sets the per-call recognition timeout.
func (b *Builder) WithTimeout(d time.Duration) *Builder {
	b.cfg.Timeout = d
	return b
}

// WithMaxWorkers sets the size of the pass worker pool.
func (b *Builder) WithMaxWorkers(workers int) *Builder {
	if workers > 0 {
		b.cfg.MaxWorkers = workers
	}
	return b
}

// WithMaxPages bounds the pages in flight.
func (b *Builder) WithMaxPages(pages int) *Builder {
	if pages > 0 {
		b.cfg.MaxPages = pages
	}
	return b
}

// WithTables sets the correction tables.
func (b *Builder) WithTables(t *correction.Tables) *Builder {
	if t != nil {
		b.cfg.Tables = t
	}
	return b
}

// WithCanonicalWords toggles canonical casing of known problem words
// during consensus.
func (b *Builder) WithCanonicalWords(enabled bool) *Builder {
	b.canonical = enabled
	return b
}

// WithTransforms replaces the transform registry.
func (b *Builder) WithTransforms(r *transform.Registry) *Builder {
	b.registry = r
	return b
}

// WithProgressCallback sets the page progress reporter.
func (b *Builder) WithProgressCallback(cb ProgressCallback) *Builder {
	b.progress = cb
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks the configuration without building anything.
func (b *Builder) Validate() error {
	if b.engine == nil {
		return errors.New("recognition engine is required")
	}
	if b.cfg.DPI <= 0 {
		return errors.New("dpi must be > 0")
	}
	if b.cfg.MaxPages <= 0 {
		return errors.New("max pages must be > 0")
	}
	if b.cfg.Tables == nil {
		return errors.New("correction tables are required")
	}
	return nil
}

// Processor wires the orchestrator, the consensus merger and the
// correction engine together. It is safe for concurrent use.
type Processor struct {
	cfg          Config
	orchestrator *Orchestrator
	merger       *consensus.Merger
	corrector    *correction.Engine
	progress     ProgressCallback
	logger       *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Build initializes the processor and starts its worker pool.
func (b *Builder) Build() (*Processor, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := b.registry
	if registry == nil {
		registry = transform.DefaultRegistry()
	}

	profiles, err := recognizer.NewProfileSet(recognizer.DefaultProfiles(b.cfg.DPI))
	if err != nil {
		return nil, fmt.Errorf("init profiles: %w", err)
	}

	corrector, err := correction.NewEngine(b.cfg.Tables, correction.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("init correction engine: %w", err)
	}
	for _, c := range b.cfg.Tables.Conflicts(nil) {
		logger.Warn("correction table conflict", "table", c.Table, "key", c.Key, "reason", c.Reason)
	}

	var mergeOpts []consensus.Option
	if b.canonical {
		mergeOpts = append(mergeOpts, consensus.WithCanonical(b.cfg.Tables.Canonical))
	}

	invoker := recognizer.NewInvoker(b.engine,
		recognizer.WithTimeout(b.cfg.Timeout),
		recognizer.WithLogger(logger),
	)
	orch, err := NewOrchestrator(b.cfg.Passes, profiles, registry, invoker, b.cfg.MaxWorkers, logger)
	if err != nil {
		return nil, err
	}

	progress := b.progress
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	return &Processor{
		cfg:          b.cfg,
		orchestrator: orch,
		merger:       consensus.NewMerger(mergeOpts...),
		corrector:    corrector,
		progress:     progress,
		logger:       logger,
	}, nil
}

// Close releases the worker pool. It is safe to call more than once and
// concurrently; pages processed afterwards get only failed passes.
func (p *Processor) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.orchestrator.Close()
	})
	return p.closeErr
}

// Config returns the processor configuration.
func (p *Processor) Config() Config { return p.cfg }

// Corrector returns the correction engine.
func (p *Processor) Corrector() *correction.Engine { return p.corrector }

// Info returns key processor properties for logging.
func (p *Processor) Info() map[string]any {
	passes := make([]string, len(p.cfg.Passes))
	for i, s := range p.cfg.Passes {
		passes[i] = s.ID()
	}
	return map[string]any{
		"passes":      passes,
		"dpi":         p.cfg.DPI,
		"timeout":     p.cfg.Timeout.String(),
		"max_workers": p.orchestrator.Workers(),
		"max_pages":   p.cfg.MaxPages,
		"known_words": p.corrector.Dictionary().Len(),
		"rules":       len(p.corrector.Rules()),
	}
}
