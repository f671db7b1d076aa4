package transform

import (
	"image"

	"github.com/disintegration/imaging"
)

// EnhanceOptions are PIL-style enhancement factors where 1.0 means unchanged.
type EnhanceOptions struct {
	Contrast   float64
	Sharpness  float64
	Brightness float64
}

// EnhanceWith converts to grayscale and applies fixed contrast, sharpness
// and brightness factors in that order.
func EnhanceWith(opts EnhanceOptions) Func {
	return func(img image.Image) image.Image {
		out := imaging.Grayscale(img)
		if p := factorPercent(opts.Contrast); p != 0 {
			out = imaging.AdjustContrast(out, p)
		}
		if s := sharpenSigma(opts.Sharpness); s > 0 {
			out = imaging.Sharpen(out, s)
		}
		if p := factorPercent(opts.Brightness); p != 0 {
			out = imaging.AdjustBrightness(out, p)
		}
		return out
	}
}

// factorPercent maps an enhancement factor onto imaging's [-100, 100] range.
func factorPercent(factor float64) float64 {
	if factor == 0 {
		return 0
	}
	p := (factor - 1) * 100
	return max(-100, min(100, p))
}

// sharpenSigma maps a sharpness factor onto an unsharp-mask sigma. Factors at
// or below 1 disable sharpening.
func sharpenSigma(factor float64) float64 {
	if factor <= 1 {
		return 0
	}
	return factor * 0.5
}

// Scale resamples by factor with Lanczos filtering. A factor of 1 yields a
// grayscale copy so every scale variant shares the same color handling.
func Scale(factor float64) Func {
	return func(img image.Image) image.Image {
		gray := imaging.Grayscale(img)
		if factor == 1 || factor <= 0 {
			return gray
		}
		b := gray.Bounds()
		w := max(1, int(float64(b.Dx())*factor+0.5))
		h := max(1, int(float64(b.Dy())*factor+0.5))
		return imaging.Resize(gray, w, h, imaging.Lanczos)
	}
}

// MultiScale returns one resampled variant per factor, in order.
func MultiScale(img image.Image, factors ...float64) []image.Image {
	out := make([]image.Image, 0, len(factors))
	for _, f := range factors {
		out = append(out, Scale(f)(img))
	}
	return out
}
