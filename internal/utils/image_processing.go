package utils

import (
	"errors"
	"fmt"
	"image"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ImageConstraints bounds the page images accepted by the pipeline.
type ImageConstraints struct {
	MinWidth  int
	MinHeight int
	// MaxPixels caps width*height; 0 disables the check.
	MaxPixels int
}

// DefaultImageConstraints returns limits suited to high-DPI page scans.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MinWidth:  16,
		MinHeight: 16,
		MaxPixels: 400_000_000,
	}
}

// ValidateImageConstraints checks dimensions against the provided constraints.
func ValidateImageConstraints(img image.Image, constraints ImageConstraints) error {
	if img == nil {
		return &ImageProcessingError{Operation: "validate", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < constraints.MinWidth || h < constraints.MinHeight {
		return &ImageProcessingError{
			Operation: "validate",
			Err: fmt.Errorf(
				"image too small: %dx%d < %dx%d",
				w, h, constraints.MinWidth, constraints.MinHeight,
			),
		}
	}
	if constraints.MaxPixels > 0 && w*h > constraints.MaxPixels {
		return &ImageProcessingError{
			Operation: "validate",
			Err:       fmt.Errorf("image too large: %dx%d exceeds %d pixels", w, h, constraints.MaxPixels),
		}
	}
	return nil
}

// LargestImage returns the image with the biggest pixel area, or nil for an empty slice.
// Scanned PDFs usually carry one full-page bitmap per page next to small logos or stamps.
func LargestImage(imgs []image.Image) image.Image {
	var best image.Image
	bestArea := -1
	for _, img := range imgs {
		if img == nil {
			continue
		}
		b := img.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = img, area
		}
	}
	return best
}
