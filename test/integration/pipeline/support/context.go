// Package support holds the step definitions of the pipeline feature suite.
package support

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/tallyocr/internal/correction"
	"github.com/MeKo-Tech/tallyocr/internal/pipeline"
	"github.com/MeKo-Tech/tallyocr/internal/recognizer"
	"github.com/MeKo-Tech/tallyocr/internal/testutil"
	"github.com/MeKo-Tech/tallyocr/internal/transform"
)

// basePageWidth is the width of the first page image; page i is i pixels
// wider so the engine can tell pages apart.
const basePageWidth = 100

// TestContext holds the state of one scenario.
type TestContext struct {
	passes    []pipeline.PassSpec
	timeout   time.Duration
	canonical bool

	mu        sync.Mutex
	texts     map[string]string // by profile
	pageTexts map[int]string    // by page index, wins over texts
	failing   map[string]bool
	hanging   map[string]bool
	panicking map[string]bool
	calls     int

	pages    []image.Image
	page     *pipeline.PageResult
	document *pipeline.DocumentResult
	lastErr  error

	corrector *correction.Engine
	corrected string
	merged    string

	processor *pipeline.Processor
}

// NewTestContext creates a scenario context with three voting passes.
func NewTestContext() *TestContext {
	return &TestContext{
		passes: []pipeline.PassSpec{
			{Transform: transform.Enhance, Profile: recognizer.ProfileAuto},
			{Transform: transform.Enhance, Profile: recognizer.ProfileColumns},
			{Transform: transform.Enhance, Profile: recognizer.ProfileBlock},
		},
		timeout:   5 * time.Second,
		canonical: true,
		texts:     map[string]string{},
		pageTexts: map[int]string{},
		failing:   map[string]bool{},
		hanging:   map[string]bool{},
		panicking: map[string]bool{},
	}
}

// Cleanup releases the processor.
func (tc *TestContext) Cleanup() {
	if tc.processor != nil {
		_ = tc.processor.Close()
		tc.processor = nil
	}
}

// recognize is the scenario's recognition engine.
func (tc *TestContext) recognize(ctx context.Context, img image.Image, profile recognizer.Profile) (string, error) {
	tc.mu.Lock()
	tc.calls++
	text, byPage := tc.pageTexts[img.Bounds().Dx()-basePageWidth]
	if !byPage {
		text = tc.texts[profile.ID]
	}
	fail, hang, panics := tc.failing[profile.ID], tc.hanging[profile.ID], tc.panicking[profile.ID]
	tc.mu.Unlock()

	switch {
	case panics:
		panic("engine crashed on " + profile.ID)
	case hang:
		<-ctx.Done()
		return "", ctx.Err()
	case fail:
		return "", errors.New("engine failure on " + profile.ID)
	}
	return text, nil
}

func (tc *TestContext) build() (*pipeline.Processor, error) {
	if tc.processor != nil {
		return tc.processor, nil
	}
	p, err := pipeline.NewBuilder().
		WithEngine(recognizer.EngineFunc(tc.recognize)).
		WithPasses(tc.passes).
		WithTimeout(tc.timeout).
		WithMaxWorkers(4).
		WithCanonicalWords(tc.canonical).
		Build()
	if err != nil {
		return nil, err
	}
	tc.processor = p
	return p, nil
}

// newPage returns the image for page index i.
func newPage(i int) image.Image {
	return testutil.CreateTestImage(basePageWidth+i, 60, color.White)
}

func parsePasses(list string) ([]pipeline.PassSpec, error) {
	var passes []pipeline.PassSpec
	for _, item := range strings.Split(list, ",") {
		transformID, profile, ok := strings.Cut(strings.TrimSpace(item), "/")
		if !ok {
			return nil, fmt.Errorf("pass %q is not transform/profile", item)
		}
		spec := pipeline.PassSpec{Transform: transform.ID(transformID), Profile: profile}
		if strings.HasSuffix(profile, " evidence") {
			spec.Profile = strings.TrimSuffix(profile, " evidence")
			spec.Evidence = true
		}
		passes = append(passes, spec)
	}
	return passes, nil
}
