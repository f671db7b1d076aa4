//go:build !gosseract

package recognizer

import (
	"context"
	"fmt"
	"image"
)

// FeatureGosseractEnabled reports whether the in-process engine is compiled in.
const FeatureGosseractEnabled = false

// GosseractEngine is a stub; build with -tags gosseract for libtesseract support.
type GosseractEngine struct{}

func newGosseractEngine(EngineConfig) (*GosseractEngine, error) {
	return nil, fmt.Errorf("%w: binary was built without the gosseract tag", ErrEngineUnavailable)
}

// Recognize implements Engine.
func (*GosseractEngine) Recognize(context.Context, image.Image, Profile) (string, error) {
	return "", ErrEngineUnavailable
}

// Close is a no-op.
func (*GosseractEngine) Close() error { return nil }
