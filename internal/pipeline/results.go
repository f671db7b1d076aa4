package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ToJSONDocument serializes a document result to pretty JSON. Per-pass
// detail is dropped unless includePasses is set.
func ToJSONDocument(res *DocumentResult, includePasses bool) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	out := *res
	if !includePasses {
		out.Pages = make([]*PageResult, len(res.Pages))
		for i, p := range res.Pages {
			if p == nil {
				continue
			}
			page := *p
			page.Passes = nil
			out.Pages[i] = &page
		}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToPlainTextDocument returns the assembled document text with a trailing
// newline.
func ToPlainTextDocument(res *DocumentResult) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	if res.Text == "" {
		return "", nil
	}
	return res.Text + "\n", nil
}

// ValidateDocumentResult checks internal consistency of a result.
func ValidateDocumentResult(res *DocumentResult) error {
	if res == nil {
		return errors.New("nil result")
	}
	var errs []error
	for i, p := range res.Pages {
		if p == nil {
			errs = append(errs, fmt.Errorf("page %d: missing result", i))
			continue
		}
		if p.Index != i {
			errs = append(errs, fmt.Errorf("page %d: index %d out of order", i, p.Index))
		}
		if p.Agreement < 0 || p.Agreement > 1 {
			errs = append(errs, fmt.Errorf("page %d: agreement %.3f outside [0,1]", i, p.Agreement))
		}
		if len(p.Passes) > 0 && p.FailedPasses+p.EmptyPasses > len(p.Passes) {
			errs = append(errs, fmt.Errorf("page %d: more failed and empty passes than passes", i))
		}
	}
	return errors.Join(errs...)
}
