package pipeline

import (
	"context"
	"image"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/tallyocr/internal/consensus"
	"github.com/MeKo-Tech/tallyocr/internal/metrics"
	"github.com/MeKo-Tech/tallyocr/internal/recognizer"
)

// PageResult is the outcome of one page.
type PageResult struct {
	Index int `json:"index"`
	// Text is the corrected page text.
	Text string `json:"text"`
	// Merged is the consensus before correction.
	Merged    string  `json:"merged"`
	Agreement float64 `json:"agreement"`
	// FailedPasses counts passes that produced no text because of an error
	// or timeout; EmptyPasses counts passes that ran but read nothing.
	FailedPasses int          `json:"failed_passes"`
	EmptyPasses  int          `json:"empty_passes"`
	Passes       []PassResult `json:"passes,omitempty"`
}

// ProcessPage runs every pass over img, merges the voting passes and
// corrects the result using the evidence passes. It never fails; a page
// with no successful pass yields empty text.
func (p *Processor) ProcessPage(ctx context.Context, index int, img image.Image) *PageResult {
	return p.processPage(ctx, p.logger, index, img)
}

func (p *Processor) processPage(ctx context.Context, logger *slog.Logger, index int, img image.Image) *PageResult {
	passes := p.orchestrator.RunPasses(ctx, index, img)
	res := p.MergePasses(passes)
	res.Index = index

	if ctx.Err() == nil {
		status := "text"
		if res.Text == "" {
			status = "empty"
		}
		metrics.PagesTotal.WithLabelValues(status).Inc()
		metrics.PageAgreement.Observe(res.Agreement)
		logger.Debug("page processed",
			"page", index,
			"words", len(strings.Fields(res.Text)),
			"agreement", res.Agreement,
			"failed_passes", res.FailedPasses,
			"empty_passes", res.EmptyPasses,
		)
	}
	return res
}

// MergePasses merges and corrects already recognized passes. Evidence
// passes do not vote.
func (p *Processor) MergePasses(passes []PassResult) *PageResult {
	res := &PageResult{Passes: passes}

	var votes, evidence []string
	for _, pr := range passes {
		switch pr.Outcome {
		case recognizer.OutcomeFailed, recognizer.OutcomeTimeout:
			res.FailedPasses++
		case recognizer.OutcomeEmpty:
			res.EmptyPasses++
		}
		if pr.Pass.Evidence {
			if pr.Text != "" {
				evidence = append(evidence, pr.Text)
			}
			continue
		}
		votes = append(votes, pr.Text)
	}

	words := p.merger.MergeWords(votes)
	merged := make([]string, len(words))
	for i, w := range words {
		merged[i] = w.Text
	}
	res.Merged = strings.Join(merged, " ")
	res.Agreement = consensus.Agreement(words)
	res.Text = p.corrector.CorrectWithEvidence(res.Merged, evidence)
	return res
}

// Assemble joins page texts in order with a blank line between pages.
// Empty pages keep their slot so page positions are preserved.
func Assemble(pages []string) string {
	return strings.Join(pages, "\n\n")
}
