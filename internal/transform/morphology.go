package transform

import "image"

// MorphologicalOp represents the type of morphological operation to perform.
// Operations act on ink: dark pixels on a light background.
type MorphologicalOp int

const (
	MorphNone MorphologicalOp = iota
	MorphDilate
	MorphErode
	MorphOpening // Erode then Dilate - removes small specks
	MorphClosing // Dilate then Erode - fills gaps in strokes
)

// Kernel is a rectangular structuring element anchored at its center.
type Kernel struct {
	Width  int
	Height int
}

// Horizontal returns a 1-pixel-high kernel of the given width.
func Horizontal(width int) Kernel { return Kernel{Width: width, Height: 1} }

// Vertical returns a 1-pixel-wide kernel of the given height.
func Vertical(height int) Kernel { return Kernel{Width: 1, Height: height} }

// MorphConfig holds configuration for morphological operations.
type MorphConfig struct {
	Operation  MorphologicalOp
	Kernel     Kernel
	Iterations int
}

// ApplyMorphology runs the configured operation and returns a new image.
func ApplyMorphology(g *image.Gray, config MorphConfig) *image.Gray {
	result := image.NewGray(g.Rect)
	copy(result.Pix, g.Pix)
	if config.Operation == MorphNone || config.Iterations <= 0 {
		return result
	}
	if config.Kernel.Width <= 1 && config.Kernel.Height <= 1 {
		return result
	}

	for range config.Iterations {
		switch config.Operation {
		case MorphDilate:
			result = dilateInk(result, config.Kernel)
		case MorphErode:
			result = erodeInk(result, config.Kernel)
		case MorphOpening:
			result = dilateInk(erodeInk(result, config.Kernel), config.Kernel)
		case MorphClosing:
			result = erodeInk(dilateInk(result, config.Kernel), config.Kernel)
		}
	}
	return result
}

// dilateInk grows dark regions: each pixel takes the darkest value under the kernel.
func dilateInk(g *image.Gray, k Kernel) *image.Gray {
	return rankFilter(g, k, func(cur, v uint8) uint8 { return min(cur, v) }, 255)
}

// erodeInk shrinks dark regions: each pixel takes the brightest value under the kernel.
func erodeInk(g *image.Gray, k Kernel) *image.Gray {
	return rankFilter(g, k, func(cur, v uint8) uint8 { return max(cur, v) }, 0)
}

func rankFilter(g *image.Gray, k Kernel, pick func(cur, v uint8) uint8, init uint8) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	kw, kh := max(1, k.Width), max(1, k.Height)
	x0, y0 := -(kw-1)/2, -(kh-1)/2
	out := image.NewGray(g.Rect)

	for y := range h {
		for x := range w {
			acc := init
			for ky := y0; ky < y0+kh; ky++ {
				ny := y + ky
				if ny < 0 || ny >= h {
					continue
				}
				for kx := x0; kx < x0+kw; kx++ {
					nx := x + kx
					if nx < 0 || nx >= w {
						continue
					}
					acc = pick(acc, g.Pix[ny*g.Stride+nx])
				}
			}
			out.Pix[y*out.Stride+x] = acc
		}
	}
	return out
}
