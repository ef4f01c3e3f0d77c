package practice

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// practiceLocks serializes writers to the same practice within this
// process. Entries are dropped once nobody holds or waits for them.
type practiceLocks struct {
	mu    sync.Mutex
	locks map[string]*practiceLock
}

type practiceLock struct {
	ch   chan struct{}
	refs int
}

func newPracticeLocks() *practiceLocks {
	return &practiceLocks{locks: map[string]*practiceLock{}}
}

// acquire blocks until the practice is free or ctx is done. The returned
// func releases it.
func (l *practiceLocks) acquire(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	pl, ok := l.locks[id]
	if !ok {
		pl = &practiceLock{ch: make(chan struct{}, 1)}
		l.locks[id] = pl
	}
	pl.refs++
	l.mu.Unlock()

	select {
	case pl.ch <- struct{}{}:
		return func() {
			<-pl.ch
			l.release(id, pl)
		}, nil
	case <-ctx.Done():
		l.release(id, pl)
		return nil, ctx.Err()
	}
}

func (l *practiceLocks) release(id string, pl *practiceLock) {
	l.mu.Lock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()
}

const (
	retryBaseDelay = 10 * time.Millisecond
	retryMaxDelay  = 250 * time.Millisecond
)

// retryDelay is exponential in attempt with full jitter over the upper half.
func retryDelay(attempt int) time.Duration {
	d := retryBaseDelay << min(attempt-1, 5)
	if d > retryMaxDelay {
		d = retryMaxDelay
	}
	half := d / 2
	return half + rand.N(half+1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
