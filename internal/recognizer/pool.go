package recognizer

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrEngineClosed is returned by calls made after the engine was closed.
var ErrEngineClosed = errors.New("recognition engine closed")

// clientPool lends out a fixed set of clients that are not safe for
// concurrent use. Close waits until every borrowed client is back.
type clientPool[C io.Closer] struct {
	clients chan C
	size    int

	once sync.Once
	err  error
}

func newClientPool[C io.Closer](clients []C) *clientPool[C] {
	p := &clientPool[C]{clients: make(chan C, len(clients)), size: len(clients)}
	for _, c := range clients {
		p.clients <- c
	}
	return p
}

// acquire blocks until a client is free, ctx is done or the pool is closed.
func (p *clientPool[C]) acquire(ctx context.Context) (C, error) {
	select {
	case c, ok := <-p.clients:
		if !ok {
			var zero C
			return zero, ErrEngineClosed
		}
		return c, nil
	case <-ctx.Done():
		var zero C
		return zero, ctx.Err()
	}
}

func (p *clientPool[C]) release(c C) {
	p.clients <- c
}

// Close takes back every client, waiting for in-flight calls, then closes
// them. Later calls return the first result.
func (p *clientPool[C]) Close() error {
	p.once.Do(func() {
		errs := make([]error, 0, p.size)
		for range p.size {
			errs = append(errs, (<-p.clients).Close())
		}
		close(p.clients)
		p.err = errors.Join(errs...)
	})
	return p.err
}
