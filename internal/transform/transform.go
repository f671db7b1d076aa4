// Package transform holds the pure image-to-image conditioning steps that feed
// the recognition passes. Every transform returns a new image and leaves its
// input untouched, so a single page image can be shared by concurrent passes.
package transform

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/MeKo-Tech/tallyocr/internal/utils"
)

// ID names a registered transform.
type ID string

// Built-in transform identifiers.
const (
	Enhance            ID = "enhance"
	HighContrast       ID = "high_contrast"
	Scale100           ID = "scale_100"
	Scale120           ID = "scale_120"
	Scale080           ID = "scale_080"
	CharFocus          ID = "char_focus"
	Adaptive           ID = "adaptive"
	MorphRepair        ID = "morph_repair"
	EnhancedPreprocess ID = "enhanced_preprocess"
	RegionTop          ID = "region_top"
)

// Func is a pure image transform.
type Func func(image.Image) image.Image

// ErrUnknownTransform is returned by Apply for an unregistered ID.
var ErrUnknownTransform = errors.New("unknown transform")

// Registry maps transform IDs to implementations. It is populated once and
// only read afterwards; concurrent Apply calls need no locking.
type Registry struct {
	funcs map[ID]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[ID]Func)}
}

// DefaultRegistry returns a registry with every built-in preset.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Enhance, EnhanceWith(EnhanceOptions{Contrast: 1.7, Sharpness: 1.7, Brightness: 1.1}))
	r.Register(HighContrast, EnhanceWith(EnhanceOptions{Contrast: 2.5, Sharpness: 2.0, Brightness: 1.0}))
	r.Register(Scale100, Scale(1.0))
	r.Register(Scale120, Scale(1.2))
	r.Register(Scale080, Scale(0.8))
	r.Register(CharFocus, CharacterFocus)
	r.Register(Adaptive, AdaptiveBinarize)
	r.Register(MorphRepair, MorphologicalRepair)
	r.Register(EnhancedPreprocess, EnhancedPreprocessing)
	r.Register(RegionTop, RegionFocus(DefaultRegionFraction))
	return r
}

// Register adds or replaces a transform. Call only during setup.
func (r *Registry) Register(id ID, fn Func) {
	r.funcs[id] = fn
}

// Lookup returns the transform registered under id.
func (r *Registry) Lookup(id ID) (Func, bool) {
	fn, ok := r.funcs[id]
	return fn, ok
}

// IDs returns the registered identifiers in lexical order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.funcs))
	for id := range r.funcs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Apply runs the transform registered under id. A panicking transform is
// reported as an error instead of taking down the caller.
func (r *Registry) Apply(id ID, img image.Image) (out image.Image, err error) {
	if img == nil {
		return nil, &utils.ImageProcessingError{Operation: string(id), Err: errors.New("input image is nil")}
	}
	fn, ok := r.funcs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransform, id)
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = &utils.ImageProcessingError{Operation: string(id), Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	out = fn(img)
	if out == nil || out.Bounds().Empty() {
		return nil, &utils.ImageProcessingError{Operation: string(id), Err: errors.New("transform produced an empty image")}
	}
	return out, nil
}
