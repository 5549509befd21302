package bus

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// BlockingPool bounds concurrent dispatch of the CPU-bound or blocking work
// must never run inline on a cooperative-scheduler goroutine without
// a ceiling: embedding inference, sparse index lookups, TTS synthesis. The
// calling goroutine suspends on Do until a slot is free or ctx is cancelled;
// it does not spawn its own goroutine, so callers that want concurrent
// dispatch still do so themselves (e.g. via errgroup) and rely on Do only to
// cap how many such calls run at once.
type BlockingPool struct {
	sem *semaphore.Weighted
}

// DefaultBlockingPoolCapacity is the default number of concurrent blocking
// calls a pool admits.
const DefaultBlockingPoolCapacity = 8

// NewBlockingPool constructs a pool admitting up to capacity concurrent
// calls. capacity <= 0 falls back to DefaultBlockingPoolCapacity.
func NewBlockingPool(capacity int64) *BlockingPool {
	if capacity <= 0 {
		capacity = DefaultBlockingPoolCapacity
	}
	return &BlockingPool{sem: semaphore.NewWeighted(capacity)}
}

// Do acquires a slot, runs fn, and releases the slot on return. It returns
// ctx.Err() without running fn if ctx is cancelled while waiting for a slot.
func (p *BlockingPool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
