// Package source turns input files into the ordered page images a document
// is made of.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/MeKo-Tech/tallyocr/internal/pdf"
	"github.com/MeKo-Tech/tallyocr/internal/pipeline"
	"github.com/MeKo-Tech/tallyocr/internal/utils"
)

// ErrUnsupportedType is wrapped when a file is neither a PDF nor an image.
var ErrUnsupportedType = errors.New("unsupported file type")

// Options controls rasterization.
type Options struct {
	// Pages selects PDF pages, e.g. "1-2". Ignored for images.
	Pages    string
	Password string
	// Constraints bound every page image; the zero value accepts any size.
	Constraints utils.ImageConstraints
	Logger      *slog.Logger
}

// Load reads every path in order and returns the page images. PDFs contribute
// one image per selected page, image files exactly one. Any failure is
// returned as a *pipeline.RasterizeError.
func Load(ctx context.Context, paths []string, opts Options) ([]image.Image, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var pages []image.Image
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		imgs, err := loadOne(path, opts, logger)
		if err != nil {
			return nil, &pipeline.RasterizeError{Source: path, Err: err}
		}
		for _, img := range imgs {
			if err := utils.ValidateImageConstraints(img, opts.Constraints); err != nil {
				return nil, &pipeline.RasterizeError{Source: path, Err: err}
			}
		}
		logger.Debug("source loaded", "file", path, "pages", len(imgs))
		pages = append(pages, imgs...)
	}
	if len(pages) == 0 {
		return nil, pipeline.ErrNoPages
	}
	return pages, nil
}

func loadOne(path string, opts Options, logger *slog.Logger) ([]image.Image, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect type: %w", err)
	}

	switch {
	case mtype.Is("application/pdf"):
		extracted, err := pdf.ExtractPages(path, pdf.Options{
			Pages:    opts.Pages,
			Password: opts.Password,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		out := make([]image.Image, len(extracted))
		for i, p := range extracted {
			out[i] = p.Image
		}
		return out, nil
	case strings.HasPrefix(mtype.String(), "image/"):
		img, _, err := utils.LoadImage(path)
		if err != nil {
			return nil, err
		}
		return []image.Image{img}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}
}
