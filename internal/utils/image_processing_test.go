package utils

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImageConstraints(t *testing.T) {
	c := ImageConstraints{MinWidth: 10, MinHeight: 10, MaxPixels: 10_000}

	require.NoError(t, ValidateImageConstraints(image.NewGray(image.Rect(0, 0, 50, 50)), c))

	err := ValidateImageConstraints(image.NewGray(image.Rect(0, 0, 5, 50)), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")

	err = ValidateImageConstraints(image.NewGray(image.Rect(0, 0, 200, 200)), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")

	err = ValidateImageConstraints(nil, c)
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "validate", ipe.Operation)
}

func TestImageProcessingError_Unwrap(t *testing.T) {
	base := errors.New("boom")
	err := &ImageProcessingError{Operation: "decode", Err: base}
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "image processing error in decode: boom", err.Error())
}

func TestLargestImage(t *testing.T) {
	small := image.NewGray(image.Rect(0, 0, 10, 10))
	big := image.NewGray(image.Rect(0, 0, 100, 80))
	assert.Same(t, big, LargestImage([]image.Image{small, nil, big}))
	assert.Nil(t, LargestImage(nil))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")

	img := image.NewRGBA(image.Rect(0, 0, 30, 20))
	for y := range 20 {
		for x := range 30 {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	got, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Bounds().Dx())
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 20, meta.Height)
	assert.Positive(t, meta.SizeBytes)

	_, _, err = LoadImage(filepath.Join(dir, "missing.png"))
	require.Error(t, err)

	_, _, err = LoadImage("")
	require.Error(t, err)
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("scan.TIFF"))
	assert.True(t, IsSupportedImage("a/b/c.webp"))
	assert.False(t, IsSupportedImage("doc.pdf"))
}
