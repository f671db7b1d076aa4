package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"
)

// ExecEngine runs the Tesseract command-line tool once per call, feeding
// a PNG on stdin and reading text from stdout.
type ExecEngine struct {
	binary   string
	language string
	oem      int
}

// NewExecEngine resolves the engine binary on PATH.
func NewExecEngine(cfg EngineConfig) (*ExecEngine, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = "tesseract"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEngineUnavailable, binary, err)
	}
	return &ExecEngine{binary: resolved, language: cfg.Language, oem: cfg.OEM}, nil
}

// Command returns the argument vector used for profile, without the binary.
func (e *ExecEngine) Command(profile Profile) []string {
	return append([]string{"stdin", "stdout"}, profile.Args(e.oem, e.language)...)
}

// Recognize implements Engine.
func (e *ExecEngine) Recognize(ctx context.Context, img image.Image, profile Profile) (string, error) {
	var in bytes.Buffer
	if err := imaging.Encode(&in, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.binary, e.Command(profile)...) //nolint:gosec // G204: binary resolved from configuration
	cmd.Stdin = &in
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("tesseract %s failed: %w: %s", profile.ID, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
