package batch

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/tallyocr/internal/pipeline"
)

// FormatDocument renders a document as text or JSON.
func FormatDocument(doc *pipeline.DocumentResult, format string, includePasses bool) (string, error) {
	switch format {
	case "json":
		return pipeline.ToJSONDocument(doc, includePasses)
	case "text", "":
		return pipeline.ToPlainTextDocument(doc)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// OutputPath names the output file of src inside dir.
func OutputPath(dir, src, format string) string {
	ext := ".txt"
	if format == "json" {
		ext = ".json"
	}
	base := filepath.Base(src)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+ext)
}

// WriteSummary prints one line per file followed by totals.
func (r *Result) WriteSummary(w io.Writer) {
	for _, o := range r.Outcomes {
		switch {
		case o.Err != nil:
			_, _ = fmt.Fprintf(w, "FAIL  %s: %v\n", o.Path, o.Err)
		case o.Output != "":
			_, _ = fmt.Fprintf(w, "OK    %s -> %s (%d pages)\n", o.Path, o.Output, len(o.Result.Pages))
		default:
			_, _ = fmt.Fprintf(w, "OK    %s (%d pages)\n", o.Path, len(o.Result.Pages))
		}
	}
	_, _ = fmt.Fprintf(w, "\nProcessed %d files (%d failed) in %v\n",
		len(r.Outcomes), r.Failed(), r.Duration.Round(time.Millisecond))
}
