package recognizer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCloser struct {
	closed atomic.Int32
	err    error
}

func (c *countingCloser) Close() error {
	c.closed.Add(1)
	return c.err
}

func TestClientPool_CloseWaitsForBorrowedClients(t *testing.T) {
	a, b := &countingCloser{}, &countingCloser{}
	pool := newClientPool([]*countingCloser{a, b})

	borrowed, err := pool.acquire(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- pool.Close() }()

	select {
	case <-done:
		t.Fatal("Close returned while a client was still in use")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Zero(t, borrowed.closed.Load())

	pool.release(borrowed)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the client came back")
	}
	assert.Equal(t, int32(1), a.closed.Load())
	assert.Equal(t, int32(1), b.closed.Load())
}

func TestClientPool_AcquireAfterClose(t *testing.T) {
	c := &countingCloser{}
	pool := newClientPool([]*countingCloser{c})
	require.NoError(t, pool.Close())

	_, err := pool.acquire(context.Background())
	assert.ErrorIs(t, err, ErrEngineClosed)

	require.NoError(t, pool.Close())
	assert.Equal(t, int32(1), c.closed.Load())
}

func TestClientPool_AcquireHonorsContext(t *testing.T) {
	pool := newClientPool([]*countingCloser{{}})
	_, err := pool.acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientPool_CloseJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	pool := newClientPool([]*countingCloser{{err: boom}, {}})
	assert.ErrorIs(t, pool.Close(), boom)
}
