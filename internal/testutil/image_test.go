package testutil

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tallyocr/internal/recognizer"
	"github.com/MeKo-Tech/tallyocr/internal/utils"
)

func TestGeneratePage_DrawsInk(t *testing.T) {
	img := GeneratePage(DefaultPageConfig("Contact: 385-394-9046"))
	assert.Equal(t, 320, img.Bounds().Dx())

	dark := 0
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				dark++
			}
		}
	}
	assert.Positive(t, dark)
}

func TestSavePage_RoundTripsThroughLoader(t *testing.T) {
	path := SavePage(t, CreateTestImage(40, 30, color.White), t.TempDir(), "page.png")
	assert.True(t, FileExists(path))

	img, meta, err := utils.LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, "png", meta.Format)
}

func TestFakeEngine(t *testing.T) {
	boom := errors.New("boom")
	f := NewFakeEngine(map[string]string{"block": "hello"})
	f.Default = "fallback"
	f.Errors = map[string]error{"sparse": boom}
	f.Hang = map[string]bool{"auto": true}

	ctx := context.Background()
	img := CreateTestImage(10, 10, color.White)

	text, err := f.Recognize(ctx, img, recognizer.Profile{ID: "block"})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	text, err = f.Recognize(ctx, img, recognizer.Profile{ID: "columns"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", text)

	_, err = f.Recognize(ctx, img, recognizer.Profile{ID: "sparse"})
	require.ErrorIs(t, err, boom)

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = f.Recognize(short, img, recognizer.Profile{ID: "auto"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, []string{"block", "columns", "sparse", "auto"}, f.Calls())
}
