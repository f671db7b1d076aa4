// Package batch runs many documents through one pipeline. Each file is its
// own document with its own output; files never share pages.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/MeKo-Tech/tallyocr/internal/pipeline"
	"github.com/MeKo-Tech/tallyocr/internal/source"
)

// ErrNoFiles is returned when discovery finds nothing to process.
var ErrNoFiles = errors.New("no PDF or image files found")

// Config holds all configuration for batch processing.
type Config struct {
	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Output settings. An empty OutputDir keeps results in memory only.
	OutputDir     string
	Format        string
	IncludePasses bool

	// ContinueOnError records a failed document and moves on instead of
	// aborting the batch.
	ContinueOnError bool

	Source source.Options
}

// DocumentProcessor is the part of pipeline.Processor a batch needs.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, pages []image.Image) (*pipeline.DocumentResult, error)
}

// Outcome is the result of one file.
type Outcome struct {
	Path   string
	Output string // written file, empty when not written
	Result *pipeline.DocumentResult
	Err    error
}

// Result holds the result of batch processing.
type Result struct {
	Outcomes []Outcome
	Duration time.Duration
}

// Succeeded counts documents processed without error.
func (r *Result) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts documents that failed.
func (r *Result) Failed() int { return len(r.Outcomes) - r.Succeeded() }

// Run discovers the files named by args and processes them one by one.
func Run(ctx context.Context, proc DocumentProcessor, args []string, cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	files, err := DiscoverFiles(args, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	start := time.Now()
	res := &Result{Outcomes: make([]Outcome, 0, len(files))}
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Info("processing file", "file", path, "index", i+1, "total", len(files))

		outcome := processFile(ctx, proc, path, cfg, logger)
		res.Outcomes = append(res.Outcomes, outcome)
		if outcome.Err != nil {
			if errors.Is(outcome.Err, context.Canceled) {
				return nil, outcome.Err
			}
			logger.Warn("file failed", "file", path, "error", outcome.Err)
			if !cfg.ContinueOnError {
				return nil, fmt.Errorf("%s: %w", path, outcome.Err)
			}
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

func processFile(ctx context.Context, proc DocumentProcessor, path string, cfg Config, logger *slog.Logger) Outcome {
	out := Outcome{Path: path}

	opts := cfg.Source
	opts.Logger = logger
	pages, err := source.Load(ctx, []string{path}, opts)
	if err != nil {
		out.Err = err
		return out
	}

	doc, err := proc.ProcessDocument(ctx, pages)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = doc

	if cfg.OutputDir == "" {
		return out
	}
	content, err := FormatDocument(doc, cfg.Format, cfg.IncludePasses)
	if err != nil {
		out.Err = err
		return out
	}
	out.Output = OutputPath(cfg.OutputDir, path, cfg.Format)
	if err := os.WriteFile(out.Output, []byte(content), 0o600); err != nil {
		out.Err = fmt.Errorf("failed to write output file: %w", err)
	}
	return out
}
