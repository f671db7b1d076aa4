package support

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/tallyocr/internal/consensus"
	"github.com/MeKo-Tech/tallyocr/internal/correction"
)

// RegisterEngineSteps registers the steps that script the fake engine.
func (tc *TestContext) RegisterEngineSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the passes "([^"]*)"$`, tc.thePasses)
	sc.Step(`^the engine reads "([^"]*)" with profile "([^"]*)"$`, tc.theEngineReadsWithProfile)
	sc.Step(`^the engine reads:$`, tc.theEngineReads)
	sc.Step(`^the engine fails with profile "([^"]*)"$`, tc.theEngineFailsWithProfile)
	sc.Step(`^the engine hangs with profile "([^"]*)"$`, tc.theEngineHangsWithProfile)
	sc.Step(`^the engine crashes with profile "([^"]*)"$`, tc.theEngineCrashesWithProfile)
	sc.Step(`^a recognition timeout of (\d+)ms$`, tc.aRecognitionTimeoutOf)
	sc.Step(`^canonical word casing is disabled$`, tc.canonicalWordCasingIsDisabled)
	sc.Step(`^page (\d+) reads "([^"]*)"$`, tc.pageReads)
}

// RegisterProcessingSteps registers page and document steps.
func (tc *TestContext) RegisterProcessingSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a page is processed$`, tc.aPageIsProcessed)
	sc.Step(`^a document of (\d+) pages is processed$`, tc.aDocumentOfPagesIsProcessed)
	sc.Step(`^the document is cancelled while processing$`, tc.theDocumentIsCancelled)
	sc.Step(`^the page text is "([^"]*)"$`, tc.thePageTextIs)
	sc.Step(`^the page text is empty$`, tc.thePageTextIsEmpty)
	sc.Step(`^the merged text is "([^"]*)"$`, tc.theMergedTextIs)
	sc.Step(`^(\d+) pass(?:es)? failed$`, tc.passesFailed)
	sc.Step(`^the engine was called (\d+) times$`, tc.theEngineWasCalled)
	sc.Step(`^the document text is:$`, tc.theDocumentTextIs)
	sc.Step(`^the document has (\d+) pages$`, tc.theDocumentHasPages)
	sc.Step(`^processing fails with "([^"]*)"$`, tc.processingFailsWith)
}

// RegisterCorrectionSteps registers consensus and correction steps.
func (tc *TestContext) RegisterCorrectionSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the default correction tables$`, tc.theDefaultCorrectionTables)
	sc.Step(`^the text "([^"]*)" is corrected$`, tc.theTextIsCorrected)
	sc.Step(`^the text "([^"]*)" is corrected with evidence "([^"]*)"$`, tc.theTextIsCorrectedWithEvidence)
	sc.Step(`^the corrected text is "([^"]*)"$`, tc.theCorrectedTextIs)
	sc.Step(`^the pass texts are merged:$`, tc.thePassTextsAreMerged)
	sc.Step(`^the pass texts are merged without canonical words:$`, tc.thePassTextsAreMergedPlain)
	sc.Step(`^the consensus is "([^"]*)"$`, tc.theConsensusIs)
}

func (tc *TestContext) thePasses(list string) error {
	passes, err := parsePasses(list)
	if err != nil {
		return err
	}
	tc.passes = passes
	return nil
}

func (tc *TestContext) theEngineReadsWithProfile(text, profile string) error {
	tc.texts[profile] = text
	return nil
}

func (tc *TestContext) theEngineReads(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		if len(row.Cells) != 2 {
			return fmt.Errorf("row %d: want profile and text", i)
		}
		tc.texts[row.Cells[0].Value] = row.Cells[1].Value
	}
	return nil
}

func (tc *TestContext) theEngineFailsWithProfile(profile string) error {
	tc.failing[profile] = true
	return nil
}

func (tc *TestContext) theEngineHangsWithProfile(profile string) error {
	tc.hanging[profile] = true
	return nil
}

func (tc *TestContext) theEngineCrashesWithProfile(profile string) error {
	tc.panicking[profile] = true
	return nil
}

func (tc *TestContext) aRecognitionTimeoutOf(ms int) error {
	tc.timeout = time.Duration(ms) * time.Millisecond
	return nil
}

func (tc *TestContext) canonicalWordCasingIsDisabled() error {
	tc.canonical = false
	return nil
}

func (tc *TestContext) pageReads(n int, text string) error {
	if n < 1 {
		return fmt.Errorf("pages are numbered from 1, got %d", n)
	}
	tc.pageTexts[n-1] = text
	return nil
}

func (tc *TestContext) aPageIsProcessed() error {
	p, err := tc.build()
	if err != nil {
		return err
	}
	tc.page = p.ProcessPage(context.Background(), 0, newPage(0))
	return nil
}

func (tc *TestContext) aDocumentOfPagesIsProcessed(n int) error {
	p, err := tc.build()
	if err != nil {
		return err
	}
	tc.pages = make([]image.Image, 0, n)
	for i := range n {
		tc.pages = append(tc.pages, newPage(i))
	}
	tc.document, tc.lastErr = p.ProcessDocument(context.Background(), tc.pages)
	return nil
}

func (tc *TestContext) theDocumentIsCancelled() error {
	p, err := tc.build()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	tc.document, tc.lastErr = p.ProcessDocument(ctx, []image.Image{newPage(0), newPage(1)})
	return nil
}

func (tc *TestContext) thePageTextIs(want string) error {
	if tc.page == nil {
		return fmt.Errorf("no page was processed")
	}
	if tc.page.Text != want {
		return fmt.Errorf("page text: want %q, got %q", want, tc.page.Text)
	}
	return nil
}

func (tc *TestContext) thePageTextIsEmpty() error {
	return tc.thePageTextIs("")
}

func (tc *TestContext) theMergedTextIs(want string) error {
	if tc.page == nil {
		return fmt.Errorf("no page was processed")
	}
	if tc.page.Merged != want {
		return fmt.Errorf("merged text: want %q, got %q", want, tc.page.Merged)
	}
	return nil
}

func (tc *TestContext) passesFailed(n int) error {
	if tc.page == nil {
		return fmt.Errorf("no page was processed")
	}
	if tc.page.FailedPasses != n {
		return fmt.Errorf("failed passes: want %d, got %d", n, tc.page.FailedPasses)
	}
	return nil
}

func (tc *TestContext) theEngineWasCalled(n int) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.calls != n {
		return fmt.Errorf("engine calls: want %d, got %d", n, tc.calls)
	}
	return nil
}

func (tc *TestContext) theDocumentTextIs(doc *godog.DocString) error {
	if tc.lastErr != nil {
		return fmt.Errorf("document failed: %w", tc.lastErr)
	}
	if tc.document.Text != doc.Content {
		return fmt.Errorf("document text: want %q, got %q", doc.Content, tc.document.Text)
	}
	return nil
}

func (tc *TestContext) theDocumentHasPages(n int) error {
	if tc.lastErr != nil {
		return fmt.Errorf("document failed: %w", tc.lastErr)
	}
	if len(tc.document.Pages) != n {
		return fmt.Errorf("pages: want %d, got %d", n, len(tc.document.Pages))
	}
	return nil
}

func (tc *TestContext) processingFailsWith(part string) error {
	if tc.lastErr == nil {
		return fmt.Errorf("expected an error containing %q", part)
	}
	if !strings.Contains(tc.lastErr.Error(), part) {
		return fmt.Errorf("error %q does not contain %q", tc.lastErr, part)
	}
	if tc.document != nil {
		return fmt.Errorf("expected no partial document")
	}
	return nil
}

func (tc *TestContext) theDefaultCorrectionTables() error {
	engine, err := correction.NewEngine(correction.DefaultTables())
	if err != nil {
		return err
	}
	tc.corrector = engine
	return nil
}

func (tc *TestContext) theTextIsCorrected(text string) error {
	return tc.theTextIsCorrectedWithEvidence(text, "")
}

func (tc *TestContext) theTextIsCorrectedWithEvidence(text, evidence string) error {
	if tc.corrector == nil {
		if err := tc.theDefaultCorrectionTables(); err != nil {
			return err
		}
	}
	var ev []string
	if evidence != "" {
		ev = []string{evidence}
	}
	tc.corrected = tc.corrector.CorrectWithEvidence(text, ev)
	return nil
}

func (tc *TestContext) theCorrectedTextIs(want string) error {
	if tc.corrected != want {
		return fmt.Errorf("corrected text: want %q, got %q", want, tc.corrected)
	}
	return nil
}

func (tc *TestContext) thePassTextsAreMerged(table *godog.Table) error {
	tc.merged = consensus.NewMerger(consensus.WithCanonical(correction.DefaultTables().Canonical)).Merge(tableTexts(table))
	return nil
}

func (tc *TestContext) thePassTextsAreMergedPlain(table *godog.Table) error {
	tc.merged = consensus.NewMerger().Merge(tableTexts(table))
	return nil
}

func (tc *TestContext) theConsensusIs(want string) error {
	if tc.merged != want {
		return fmt.Errorf("consensus: want %q, got %q", want, tc.merged)
	}
	return nil
}

// tableTexts returns the first column of every row, header excluded.
func tableTexts(table *godog.Table) []string {
	var texts []string
	for i, row := range table.Rows {
		if i == 0 || len(row.Cells) == 0 {
			continue
		}
		texts = append(texts, row.Cells[0].Value)
	}
	return texts
}
