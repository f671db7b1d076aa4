package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/MeKo-Tech/tallyocr/internal/utils"
)

// DiscoverFiles expands args into document files. Directories contribute the
// PDFs and images they contain (recursively when asked); explicit file
// arguments are kept unless excluded. The result is sorted within each
// directory and keeps argument order otherwise.
func DiscoverFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else if !matchesAnyPattern(arg, excludePatterns) {
			files = append(files, arg)
		}
	}

	return files, nil
}

func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if shouldIncludeFile(rel, includePatterns, excludePatterns) {
			files = append(files, path)
		}
		return nil
	}

	if err := filepath.WalkDir(dir, walkFn); err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// shouldIncludeFile applies exclude patterns first. Without include patterns
// only PDFs and supported images qualify. path is relative to the walked
// directory.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return isDocument(path)
	}
	return matchesAnyPattern(path, includePatterns)
}

func isDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf") || utils.IsSupportedImage(path)
}

// matchesAnyPattern matches doublestar patterns. Patterns without a slash
// see only the base name; others see the whole slash-separated path, so
// "scans/**/*.pdf" works below a walked directory.
func matchesAnyPattern(path string, patterns []string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range patterns {
		name := base
		if strings.Contains(pattern, "/") {
			name = slashed
		}
		if matched, _ := doublestar.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
