package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoPages is returned for a document without pages.
var ErrNoPages = errors.New("no pages to process")

// RasterizeError reports a page source that could not be turned into page
// images. It is fatal for the whole document.
type RasterizeError struct {
	Source string
	Err    error
}

func (e *RasterizeError) Error() string {
	return fmt.Sprintf("rasterize %s: %v", e.Source, e.Err)
}

func (e *RasterizeError) Unwrap() error { return e.Err }
