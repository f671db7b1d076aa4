package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PageConfig describes a synthetic page.
type PageConfig struct {
	Lines      []string
	Width      int
	Height     int
	Margin     int
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
}

// DefaultPageConfig returns a small white page with black 7x13 text.
func DefaultPageConfig(lines ...string) PageConfig {
	return PageConfig{
		Lines:      lines,
		Width:      320,
		Height:     240,
		Margin:     10,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// GeneratePage renders the configured lines top-down from the margin.
func GeneratePage(cfg PageConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cfg.Foreground},
		Face: cfg.FontFace,
	}
	lineHeight := cfg.FontFace.Metrics().Height.Ceil()
	for i, line := range cfg.Lines {
		drawer.Dot = fixed.P(cfg.Margin, cfg.Margin+(i+1)*lineHeight)
		drawer.DrawString(line)
	}
	return img
}

// CreatePage renders lines on a default page.
func CreatePage(lines ...string) image.Image {
	return GeneratePage(DefaultPageConfig(lines...))
}

// CreateTestImage creates a uniformly colored image.
func CreateTestImage(width, height int, backgroundColor color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}

// SavePage encodes img into dir/name, choosing the format from the
// extension, and returns the path.
func SavePage(t *testing.T, img image.Image, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path), "Failed to save image %s", path)
	return path
}
