package pipeline

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DocumentResult is the outcome of a whole document.
type DocumentResult struct {
	RunID string        `json:"run_id"`
	Text  string        `json:"text"`
	Pages []*PageResult `json:"pages"`
	Stats DocumentStats `json:"stats"`
}

// PageTexts returns the corrected text of every page in order.
func (d *DocumentResult) PageTexts() []string {
	out := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Text
	}
	return out
}

// ProcessDocument processes pages concurrently, at most Config.MaxPages at a
// time, and assembles the result in page order. Cancelling ctx cancels the
// in-flight recognition calls of every page and returns ctx.Err() without
// partial results.
func (p *Processor) ProcessDocument(ctx context.Context, pages []image.Image) (*DocumentResult, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("processing document", "pages", len(pages), "passes", len(p.cfg.Passes), "max_pages", p.cfg.MaxPages)

	start := time.Now()
	p.progress.OnStart(len(pages))

	results := make([]*PageResult, len(pages))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.MaxPages, 1))
	for i, img := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := p.processPage(gctx, logger, i, img)
			if err := gctx.Err(); err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			results[i] = res
			done++
			p.progress.OnPage(done, len(pages), res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Warn("document abandoned", "error", err)
		p.progress.OnError(err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &DocumentResult{RunID: runID, Pages: results}
	doc.Text = Assemble(doc.PageTexts())
	doc.Stats = CalculateDocumentStats(results, time.Since(start))
	p.progress.OnComplete(doc.Stats)

	logger.Info("document processed",
		"pages", doc.Stats.Pages,
		"empty_pages", doc.Stats.EmptyPages,
		"failed_passes", doc.Stats.FailedPasses,
		"duration", doc.Stats.Duration.Round(time.Millisecond),
	)
	return doc, nil
}

// DocumentStats summarizes a processed document.
type DocumentStats struct {
	Pages         int           `json:"pages"`
	EmptyPages    int           `json:"empty_pages"`
	Passes        int           `json:"passes"`
	FailedPasses  int           `json:"failed_passes"`
	EmptyPasses   int           `json:"empty_passes"`
	MeanAgreement float64       `json:"mean_agreement"`
	Duration      time.Duration `json:"duration_ns"`
	PagesPerMin   float64       `json:"pages_per_minute"`
}

// CalculateDocumentStats aggregates page results.
func CalculateDocumentStats(pages []*PageResult, duration time.Duration) DocumentStats {
	stats := DocumentStats{Duration: duration}
	var agreement float64
	for _, page := range pages {
		if page == nil {
			continue
		}
		stats.Pages++
		if page.Text == "" {
			stats.EmptyPages++
		}
		stats.Passes += len(page.Passes)
		stats.FailedPasses += page.FailedPasses
		stats.EmptyPasses += page.EmptyPasses
		agreement += page.Agreement
	}
	if stats.Pages > 0 {
		stats.MeanAgreement = agreement / float64(stats.Pages)
	}
	if stats.Pages > 0 && duration > 0 {
		stats.PagesPerMin = float64(stats.Pages) / duration.Minutes()
	}
	return stats
}
