package recognizer

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProfile = Profile{ID: ProfileBlock, SegMode: SegSingleBlock, DPI: 300}

func testImage() image.Image { return image.NewGray(image.Rect(0, 0, 8, 8)) }

func TestInvoker_ReturnsCleanedText(t *testing.T) {
	var got Profile
	engine := EngineFunc(func(_ context.Context, _ image.Image, p Profile) (string, error) {
		got = p
		return "  Hello\u200B world \n", nil
	})
	inv := NewInvoker(engine)

	res := inv.Invoke(context.Background(), testImage(), testProfile)
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, ProfileBlock, got.ID)
}

func TestInvoker_FailureYieldsEmpty(t *testing.T) {
	engine := EngineFunc(func(context.Context, image.Image, Profile) (string, error) {
		return "partial", errors.New("engine exploded")
	})
	res := NewInvoker(engine).Invoke(context.Background(), testImage(), testProfile)
	assert.Empty(t, res.Text)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	require.Error(t, res.Err)
}

func TestInvoker_PanicYieldsEmpty(t *testing.T) {
	engine := EngineFunc(func(context.Context, image.Image, Profile) (string, error) {
		panic("segfault in engine")
	})
	res := NewInvoker(engine).Invoke(context.Background(), testImage(), testProfile)
	assert.Empty(t, res.Text)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestInvoker_TimeoutWithUncooperativeEngine(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	engine := EngineFunc(func(context.Context, image.Image, Profile) (string, error) {
		<-release
		return "too late", nil
	})
	inv := NewInvoker(engine, WithTimeout(20*time.Millisecond))

	start := time.Now()
	res := inv.Invoke(context.Background(), testImage(), testProfile)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, res.Text)
	assert.Equal(t, OutcomeTimeout, res.Outcome)
}

func TestInvoker_ParentCancellation(t *testing.T) {
	var calls atomic.Int32
	engine := EngineFunc(func(ctx context.Context, _ image.Image, _ Profile) (string, error) {
		calls.Add(1)
		<-ctx.Done()
		return "", ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewInvoker(engine).Invoke(ctx, testImage(), testProfile)
	assert.Empty(t, res.Text)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestInvoker_GarbageAndEmpty(t *testing.T) {
	garbage := EngineFunc(func(context.Context, image.Image, Profile) (string, error) {
		return "|||| ~~~~ ____", nil
	})
	res := NewInvoker(garbage).Invoke(context.Background(), testImage(), testProfile)
	assert.Empty(t, res.Text)
	assert.Equal(t, OutcomeEmpty, res.Outcome)

	blank := EngineFunc(func(context.Context, image.Image, Profile) (string, error) { return " \n ", nil })
	assert.Empty(t, NewInvoker(blank).Recognize(context.Background(), testImage(), testProfile))
}

func TestInvoker_GarbageFilter(t *testing.T) {
	engine := EngineFunc(func(context.Context, image.Image, Profile) (string, error) {
		return "~~~ ||| ___", nil
	})

	res := NewInvoker(engine).Invoke(context.Background(), testImage(), testProfile)
	assert.Empty(t, res.Text)
	assert.Equal(t, OutcomeEmpty, res.Outcome)

	opts := DefaultCleanOptions()
	opts.DiscardGarbage = false
	res = NewInvoker(engine, WithCleanOptions(opts)).Invoke(context.Background(), testImage(), testProfile)
	assert.Equal(t, "~~~ ||| ___", res.Text)
	assert.Equal(t, OutcomeOK, res.Outcome)
}
