//go:build gosseract

package recognizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// FeatureGosseractEnabled reports whether the in-process engine is compiled in.
const FeatureGosseractEnabled = true

// GosseractEngine recognizes through libtesseract. A gosseract client is not
// safe for concurrent use, so calls borrow clients from a fixed pool.
type GosseractEngine struct {
	pool *clientPool[*gosseract.Client]
}

func newGosseractEngine(cfg EngineConfig) (*GosseractEngine, error) {
	n := max(1, cfg.Clients)
	clients := make([]*gosseract.Client, 0, n)
	closeAll := func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}
	for range n {
		c := gosseract.NewClient()
		clients = append(clients, c)
		if cfg.Language != "" {
			if err := c.SetLanguage(cfg.Language); err != nil {
				closeAll()
				return nil, errors.Join(errors.New("failed to set language"), err)
			}
		}
		if err := c.DisableOutput(); err != nil {
			closeAll()
			return nil, errors.Join(errors.New("failed to disable logs"), err)
		}
	}
	return &GosseractEngine{pool: newClientPool(clients)}, nil
}

// Recognize implements Engine. The engine call itself cannot be interrupted;
// on cancellation the client returns to the pool once it finishes.
func (e *GosseractEngine) Recognize(ctx context.Context, img image.Image, profile Profile) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	client, err := e.pool.acquire(ctx)
	if err != nil {
		return "", err
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer e.pool.release(client)
		text, err := recognizeWith(client, buf.Bytes(), profile)
		done <- outcome{text: text, err: err}
	}()

	select {
	case o := <-done:
		return o.text, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func recognizeWith(client *gosseract.Client, png []byte, profile Profile) (string, error) {
	client.Variables = map[gosseract.SettableVariable]string{}
	if err := client.SetPageSegMode(gosseract.PageSegMode(profile.SegMode)); err != nil {
		return "", errors.Join(errors.New("failed to set page segmentation mode"), err)
	}
	if profile.DPI > 0 {
		if err := client.SetVariable("user_defined_dpi", strconv.Itoa(profile.DPI)); err != nil {
			return "", errors.Join(errors.New("failed to set dpi"), err)
		}
	}
	for _, v := range profile.variables() {
		if err := client.SetVariable(gosseract.SettableVariable(v.Key), v.Value); err != nil {
			return "", errors.Join(fmt.Errorf("failed to set variable [%s]", v.Key), err)
		}
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", errors.Join(errors.New("failed to prepare image for OCR"), err)
	}
	text, err := client.Text()
	if err != nil {
		return "", errors.Join(errors.New("OCR process failed"), err)
	}
	return text, nil
}

// Close waits for running calls, including ones whose caller already gave
// up, and releases every client.
func (e *GosseractEngine) Close() error {
	return e.pool.Close()
}
