package transform

import (
	"image"
	"slices"

	"github.com/disintegration/imaging"
)

// ThresholdMethod selects how AdaptiveThreshold computes the local level.
type ThresholdMethod int

const (
	ThresholdMean ThresholdMethod = iota
	ThresholdGaussian
)

// Gray returns a grayscale copy of img anchored at the origin.
func Gray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) && g.Stride == g.Rect.Dx() {
		out := image.NewGray(g.Rect)
		copy(out.Pix, g.Pix)
		return out
	}
	n := imaging.Grayscale(img)
	b := n.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for i := range out.Pix {
		out.Pix[i] = n.Pix[i*4]
	}
	return out
}

// Histogram counts pixel intensities.
func Histogram(g *image.Gray) [256]int {
	var hist [256]int
	for _, v := range g.Pix {
		hist[v]++
	}
	return hist
}

// OtsuLevel returns the threshold maximizing between-class variance.
func OtsuLevel(g *image.Gray) uint8 {
	hist := Histogram(g)
	total := len(g.Pix)
	if total == 0 {
		return 127
	}

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i) * float64(c)
	}

	var maxVariance, sumB float64
	best, wB := 0, 0
	for t, c := range hist {
		wB += c
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(c)
		meanB := sumB / float64(wB)
		meanF := (sumAll - sumB) / float64(wF)
		variance := float64(wB) * float64(wF) * (meanB - meanF) * (meanB - meanF)
		if variance > maxVariance {
			maxVariance = variance
			best = t
		}
	}
	return uint8(best)
}

// Binarize maps pixels above level to white and the rest to black.
func Binarize(g *image.Gray, level uint8) *image.Gray {
	out := image.NewGray(g.Rect)
	for i, v := range g.Pix {
		if v > level {
			out.Pix[i] = 255
		}
	}
	return out
}

// AdaptiveThreshold binarizes against a local mean over a block x block
// window, offset by c. Pixels brighter than (local - c) become white.
func AdaptiveThreshold(g *image.Gray, block int, c float64, method ThresholdMethod) *image.Gray {
	if block < 3 {
		block = 3
	}
	if block%2 == 0 {
		block++
	}

	var local []float64
	switch method {
	case ThresholdGaussian:
		local = gaussianLocal(g, block)
	default:
		local = meanLocal(g, block)
	}

	out := image.NewGray(g.Rect)
	for i, v := range g.Pix {
		if float64(v) > local[i]-c {
			out.Pix[i] = 255
		}
	}
	return out
}

func gaussianLocal(g *image.Gray, block int) []float64 {
	sigma := 0.3*(float64(block-1)*0.5-1) + 0.8
	blurred := imaging.Blur(g, sigma)
	local := make([]float64, len(g.Pix))
	for i := range local {
		local[i] = float64(blurred.Pix[i*4])
	}
	return local
}

// meanLocal computes box means through a summed-area table.
func meanLocal(g *image.Gray, block int) []float64 {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	integral := make([]int64, (w+1)*(h+1))
	for y := range h {
		var row int64
		for x := range w {
			row += int64(g.Pix[y*g.Stride+x])
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + row
		}
	}

	half := block / 2
	local := make([]float64, w*h)
	for y := range h {
		y0, y1 := max(0, y-half), min(h, y+half+1)
		for x := range w {
			x0, x1 := max(0, x-half), min(w, x+half+1)
			sum := integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] - integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
			local[y*w+x] = float64(sum) / float64((y1-y0)*(x1-x0))
		}
	}
	return local
}

// Equalize spreads the intensity histogram over the full range.
func Equalize(g *image.Gray) *image.Gray {
	hist := Histogram(g)
	total := len(g.Pix)
	out := image.NewGray(g.Rect)
	if total == 0 {
		return out
	}

	var cdf [256]int
	running := 0
	for i, c := range hist {
		running += c
		cdf[i] = running
	}
	cdfMin := 0
	for _, v := range cdf {
		if v > 0 {
			cdfMin = v
			break
		}
	}
	if total == cdfMin {
		copy(out.Pix, g.Pix)
		return out
	}

	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(float64(cdf[i]-cdfMin) / float64(total-cdfMin) * 255)
	}
	for i, v := range g.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

// Median applies a size x size median filter; edges reuse the nearest pixels.
func Median(g *image.Gray, size int) *image.Gray {
	if size < 3 {
		out := image.NewGray(g.Rect)
		copy(out.Pix, g.Pix)
		return out
	}
	w, h := g.Rect.Dx(), g.Rect.Dy()
	half := size / 2
	window := make([]uint8, 0, size*size)
	out := image.NewGray(g.Rect)
	for y := range h {
		for x := range w {
			window = window[:0]
			for ky := -half; ky <= half; ky++ {
				ny := min(h-1, max(0, y+ky))
				for kx := -half; kx <= half; kx++ {
					nx := min(w-1, max(0, x+kx))
					window = append(window, g.Pix[ny*g.Stride+nx])
				}
			}
			slices.Sort(window)
			out.Pix[y*out.Stride+x] = window[len(window)/2]
		}
	}
	return out
}
