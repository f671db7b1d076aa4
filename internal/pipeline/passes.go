package pipeline

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/tallyocr/internal/recognizer"
	"github.com/MeKo-Tech/tallyocr/internal/transform"
)

// PassSpec pairs an image transform with a recognition profile.
type PassSpec struct {
	Transform transform.ID `json:"transform" yaml:"transform"`
	Profile   string       `json:"profile" yaml:"profile"`
	// Evidence passes do not vote; their text is handed to location repair.
	Evidence bool `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// ID is the stable pass identifier used in logs, metrics and output.
func (s PassSpec) ID() string {
	return string(s.Transform) + "/" + s.Profile
}

// DefaultPasses returns the built-in pass list. Order is significant: it
// breaks ties during consensus.
func DefaultPasses() []PassSpec {
	return []PassSpec{
		{Transform: transform.Enhance, Profile: recognizer.ProfileAuto},
		{Transform: transform.Enhance, Profile: recognizer.ProfileColumns},
		{Transform: transform.Enhance, Profile: recognizer.ProfileBlock},
		{Transform: transform.HighContrast, Profile: recognizer.ProfileBlockTight},
		{Transform: transform.Scale100, Profile: recognizer.ProfileBlock},
		{Transform: transform.Scale120, Profile: recognizer.ProfileBlock},
		{Transform: transform.Scale080, Profile: recognizer.ProfileBlock},
		{Transform: transform.CharFocus, Profile: recognizer.ProfileSparse},
		{Transform: transform.Adaptive, Profile: recognizer.ProfileBlock},
		{Transform: transform.MorphRepair, Profile: recognizer.ProfileBlockTightWhitelist},
		{Transform: transform.EnhancedPreprocess, Profile: recognizer.ProfileBlock},
		{Transform: transform.RegionTop, Profile: recognizer.ProfileBlockWhitelist, Evidence: true},
	}
}

// ValidatePasses checks that passes is non-empty, that every pass resolves
// to a registered transform and a known profile, and that IDs are unique.
func ValidatePasses(passes []PassSpec, registry *transform.Registry, profiles recognizer.ProfileSet) error {
	if len(passes) == 0 {
		return errors.New("at least one pass is required")
	}

	var errs []error
	voters := 0
	seen := make(map[string]bool, len(passes))
	for _, p := range passes {
		id := p.ID()
		if seen[id] {
			errs = append(errs, fmt.Errorf("duplicate pass %s", id))
		}
		seen[id] = true
		if _, ok := registry.Lookup(p.Transform); !ok {
			errs = append(errs, fmt.Errorf("pass %s: %w: %s", id, transform.ErrUnknownTransform, p.Transform))
		}
		if _, ok := profiles[p.Profile]; !ok {
			errs = append(errs, fmt.Errorf("pass %s: unknown profile %q", id, p.Profile))
		}
		if !p.Evidence {
			voters++
		}
	}
	if voters == 0 {
		errs = append(errs, errors.New("every pass is an evidence pass; at least one must vote"))
	}
	return errors.Join(errs...)
}
