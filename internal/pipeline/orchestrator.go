package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/MeKo-Tech/tallyocr/internal/metrics"
	"github.com/MeKo-Tech/tallyocr/internal/recognizer"
	"github.com/MeKo-Tech/tallyocr/internal/transform"
)

// PassResult is the outcome of one pass over one page.
type PassResult struct {
	ID       string             `json:"id"`
	Pass     PassSpec           `json:"pass"`
	Text     string             `json:"text"`
	Outcome  recognizer.Outcome `json:"outcome"`
	Duration time.Duration      `json:"duration_ns"`
	Error    string             `json:"error,omitempty"`
}

// Orchestrator runs the pass list over page images on a fixed-size worker
// pool shared by every page in flight.
type Orchestrator struct {
	passes   []PassSpec
	profiles recognizer.ProfileSet
	registry *transform.Registry
	invoker  *recognizer.Invoker
	pool     *ants.PoolWithFunc
	logger   *slog.Logger
	closed   atomic.Bool
}

// errPoolClosed marks passes submitted after Close.
var errPoolClosed = errors.New("pass pool closed")

type passTask struct {
	ctx     context.Context
	page    int
	index   int
	img     image.Image
	results []PassResult
	wg      *sync.WaitGroup
}

// NewOrchestrator validates passes and starts a pool of workers goroutines
// (runtime.NumCPU when workers <= 0). Close releases the pool.
func NewOrchestrator(
	passes []PassSpec,
	profiles recognizer.ProfileSet,
	registry *transform.Registry,
	invoker *recognizer.Invoker,
	workers int,
	logger *slog.Logger,
) (*Orchestrator, error) {
	if invoker == nil {
		return nil, errors.New("recognition invoker is required")
	}
	if registry == nil {
		registry = transform.DefaultRegistry()
	}
	if err := ValidatePasses(passes, registry, profiles); err != nil {
		return nil, fmt.Errorf("invalid pass list: %w", err)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{
		passes:   append([]PassSpec(nil), passes...),
		profiles: profiles,
		registry: registry,
		invoker:  invoker,
		logger:   logger,
	}
	pool, err := ants.NewPoolWithFunc(workers, func(args any) {
		task, ok := args.(*passTask)
		if !ok {
			panic("pass pool args type error")
		}
		defer task.wg.Done()
		task.results[task.index] = o.runPass(task.ctx, task.page, o.passes[task.index], task.img)
	}, ants.WithPanicHandler(func(p any) {
		logger.Error("pass worker panicked", "error", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create pass pool: %w", err)
	}
	o.pool = pool
	return o, nil
}

// Passes returns a copy of the pass list.
func (o *Orchestrator) Passes() []PassSpec {
	return append([]PassSpec(nil), o.passes...)
}

// Workers returns the pool capacity.
func (o *Orchestrator) Workers() int { return o.pool.Cap() }

// RunPasses executes every pass over img and returns the results indexed
// like the pass list, regardless of completion order. It never fails: a
// pass that cannot run yields empty text.
func (o *Orchestrator) RunPasses(ctx context.Context, page int, img image.Image) []PassResult {
	results := make([]PassResult, len(o.passes))
	var wg sync.WaitGroup
	for i, spec := range o.passes {
		results[i] = PassResult{ID: spec.ID(), Pass: spec, Outcome: recognizer.OutcomeFailed}
		if o.closed.Load() {
			results[i].Error = errPoolClosed.Error()
			continue
		}
		wg.Add(1)
		task := &passTask{ctx: ctx, page: page, index: i, img: img, results: results, wg: &wg}
		if err := o.pool.Invoke(task); err != nil {
			wg.Done()
			results[i].Error = fmt.Sprintf("submit pass: %v", err)
			o.logger.Warn("pass not scheduled", "page", page, "pass", spec.ID(), "error", err)
		}
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) runPass(ctx context.Context, page int, spec PassSpec, img image.Image) (res PassResult) {
	res = PassResult{ID: spec.ID(), Pass: spec, Outcome: recognizer.OutcomeFailed}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if ctx.Err() == nil {
			metrics.PassesTotal.WithLabelValues(res.ID, string(res.Outcome)).Inc()
			metrics.PassDuration.WithLabelValues(res.ID).Observe(res.Duration.Seconds())
		}
	}()

	prepared, err := o.registry.Apply(spec.Transform, img)
	if err != nil {
		o.logger.Warn("transform failed, pass skipped", "page", page, "pass", res.ID, "error", err)
		res.Error = err.Error()
		return res
	}

	out := o.invoker.Invoke(ctx, prepared, o.profiles[spec.Profile])
	res.Text, res.Outcome = out.Text, out.Outcome
	if out.Err != nil {
		res.Error = out.Err.Error()
	}
	return res
}

// Close releases the worker pool. Passes already running finish; later
// RunPasses calls fail every pass.
func (o *Orchestrator) Close() error {
	if o.closed.CompareAndSwap(false, true) {
		o.pool.Release()
	}
	return nil
}
