package transform

import (
	"image"

	"github.com/disintegration/imaging"
)

// DefaultRegionFraction is the share of page height kept by the region pass.
const DefaultRegionFraction = 0.25

// CharacterFocus targets single-glyph confusions: median denoise, sharpen,
// strong contrast, a fixed threshold and a short vertical dilation.
func CharacterFocus(img image.Image) image.Image {
	g := Median(Gray(img), 3)
	n := imaging.Sharpen(g, sharpenSigma(2.0))
	n = imaging.AdjustContrast(n, factorPercent(2.5))
	bin := Binarize(Gray(n), 127)
	return ApplyMorphology(bin, MorphConfig{Operation: MorphDilate, Kernel: Vertical(2), Iterations: 1})
}

// AdaptiveBinarize applies a Gaussian adaptive threshold followed by sharpening.
func AdaptiveBinarize(img image.Image) image.Image {
	bin := AdaptiveThreshold(Gray(img), 11, 2, ThresholdGaussian)
	return imaging.Sharpen(bin, sharpenSigma(1.7))
}

// MorphologicalRepair binarizes with Otsu and dilates horizontally so that
// strokes broken by a thin scan reconnect ("m" read as "v" or "rn").
func MorphologicalRepair(img image.Image) image.Image {
	g := Equalize(Gray(img))
	g = Gray(imaging.Blur(g, 0.8))
	bin := Binarize(g, OtsuLevel(g))
	return ApplyMorphology(bin, MorphConfig{Operation: MorphDilate, Kernel: Horizontal(2), Iterations: 1})
}

// EnhancedPreprocessing denoises, equalizes, cleans specks and gaps, then
// binarizes adaptively.
func EnhancedPreprocessing(img image.Image) image.Image {
	g := Equalize(Median(Gray(img), 3))
	g = ApplyMorphology(g, MorphConfig{Operation: MorphOpening, Kernel: Kernel{Width: 2, Height: 2}, Iterations: 1})
	g = ApplyMorphology(g, MorphConfig{Operation: MorphClosing, Kernel: Kernel{Width: 2, Height: 2}, Iterations: 1})
	return AdaptiveThreshold(g, 11, 2, ThresholdGaussian)
}

// CropTop keeps the top fraction of the image. Fractions outside (0, 1]
// keep the whole image.
func CropTop(img image.Image, fraction float64) image.Image {
	b := img.Bounds()
	if fraction <= 0 || fraction > 1 {
		fraction = 1
	}
	h := max(1, int(float64(b.Dy())*fraction))
	return imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+h))
}

// RegionFocus crops to the top fraction of the page, where header and
// contact lines live, then binarizes and dilates horizontally.
func RegionFocus(fraction float64) Func {
	return func(img image.Image) image.Image {
		g := Gray(CropTop(img, fraction))
		bin := Binarize(g, OtsuLevel(g))
		return ApplyMorphology(bin, MorphConfig{Operation: MorphDilate, Kernel: Horizontal(2), Iterations: 1})
	}
}
