package testutil

import (
	"context"
	"image"
	"sync"

	"github.com/MeKo-Tech/tallyocr/internal/recognizer"
)

// FakeEngine returns scripted text per profile ID.
type FakeEngine struct {
	// Texts maps a profile ID to the text returned for it.
	Texts map[string]string
	// Default is returned for profiles missing from Texts.
	Default string
	// Errors makes the named profiles fail.
	Errors map[string]error
	// Hang makes the named profiles block until their context ends.
	Hang map[string]bool
	// Panics makes the named profiles panic.
	Panics map[string]bool

	mu    sync.Mutex
	calls []string
}

var _ recognizer.Engine = (*FakeEngine)(nil)

// NewFakeEngine returns an engine answering texts by profile ID.
func NewFakeEngine(texts map[string]string) *FakeEngine {
	return &FakeEngine{Texts: texts}
}

func (f *FakeEngine) Recognize(ctx context.Context, _ image.Image, profile recognizer.Profile) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, profile.ID)
	f.mu.Unlock()

	switch {
	case f.Panics[profile.ID]:
		panic("fake engine panic for " + profile.ID)
	case f.Hang[profile.ID]:
		<-ctx.Done()
		return "", ctx.Err()
	case f.Errors[profile.ID] != nil:
		return "", f.Errors[profile.ID]
	}
	if text, ok := f.Texts[profile.ID]; ok {
		return text, nil
	}
	return f.Default, nil
}

// Calls returns the profile IDs seen so far, in call order.
func (f *FakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
