// Package pdf turns scanned PDFs into ordered page images by extracting the
// embedded page bitmaps with pdfcpu.
package pdf

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/MeKo-Tech/tallyocr/internal/utils"
)

// ErrNoPageImages is returned when none of the selected pages carries an
// embedded image.
var ErrNoPageImages = errors.New("no page images found")

// Page is one page image with its 1-based page number.
type Page struct {
	Number int
	Image  image.Image
}

// Options selects pages and supplies credentials for encrypted files.
type Options struct {
	// Pages is a range like "1-3,5"; empty selects every page.
	Pages    string
	Password string
	Logger   *slog.Logger
}

func (o Options) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if o.Password != "" {
		conf.UserPW = o.Password
		conf.OwnerPW = o.Password
	}
	return conf
}

// PageCount returns the number of pages in path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read page count: %w", err)
	}
	return n, nil
}

// ExtractPages returns one image per selected page in page order. Pages
// that embed several images yield the largest one; pages without an image
// are skipped with a warning.
func ExtractPages(path string, opts Options) ([]Page, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pageNumbers, err := parsePageRange(opts.Pages)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", opts.Pages, err)
	}

	tempDir, err := os.MkdirTemp("", "tallyocr-pages-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var selected []string
	for _, n := range pageNumbers {
		selected = append(selected, strconv.Itoa(n))
	}
	if err := api.ExtractImagesFile(path, tempDir, selected, opts.configuration()); err != nil {
		if IsPasswordError(err) {
			return nil, fmt.Errorf("PDF is encrypted, supply a password: %w", err)
		}
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	byPage, err := collectExtractedImages(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}

	numbers := pageNumbers
	if len(numbers) == 0 {
		numbers = allPages(path, opts, byPage)
	}

	pages := make([]Page, 0, len(numbers))
	for _, n := range numbers {
		img := utils.LargestImage(byPage[n])
		if img == nil {
			logger.Warn("page has no embedded image, skipped", "file", path, "page", n)
			continue
		}
		pages = append(pages, Page{Number: n, Image: img})
	}
	if len(pages) == 0 {
		return nil, ErrNoPageImages
	}
	return pages, nil
}

// allPages lists every page of an unencrypted file so that pages without an
// image are reported. Encrypted files fall back to the pages that yielded
// images.
func allPages(path string, opts Options, byPage map[int][]image.Image) []int {
	if opts.Password == "" {
		if total, err := PageCount(path); err == nil {
			numbers := make([]int, total)
			for i := range numbers {
				numbers[i] = i + 1
			}
			return numbers
		}
	}
	numbers := make([]int, 0, len(byPage))
	for n := range byPage {
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)
	return numbers
}

// collectExtractedImages walks dir and groups decodable images by page.
func collectExtractedImages(dir string) (map[int][]image.Image, error) {
	result := make(map[int][]image.Image)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		pageNum, err := parsePageFromFilename(d.Name())
		if err != nil {
			return nil
		}
		img, _, err := utils.LoadImage(path)
		if err != nil {
			return nil
		}
		result[pageNum] = append(result[pageNum], img)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// parsePageFromFilename extracts the page number from an extracted image
// name. pdfcpu writes <base>_<page>_<id>.<ext>; page_<page>_image_<n>.<ext>
// is accepted too.
func parsePageFromFilename(filename string) (int, error) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return 0, errors.New("invalid filename format")
	}

	field := parts[len(parts)-2]
	if parts[0] == "page" && len(parts) == 4 && parts[2] == "image" {
		field = parts[1]
	}
	pageNum, err := strconv.Atoi(field)
	if err != nil || pageNum < 1 {
		return 0, errors.New("invalid page number")
	}
	return pageNum, nil
}

// parsePageRange parses a page range string like "1-5" or "1,3,5".
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		for _, p := range tokenPages {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}
	slices.Sort(pages)
	return pages, nil
}

// parseRangeToken parses either "3" or "1-5".
func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start < 1 {
			return nil, fmt.Errorf("page numbers start at 1: %d", start)
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	if page < 1 {
		return nil, fmt.Errorf("page numbers start at 1: %d", page)
	}
	return []int{page}, nil
}

// IsPasswordError reports whether err looks like an encryption failure.
func IsPasswordError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, keyword := range []string{"password", "encrypted", "decrypt"} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}
