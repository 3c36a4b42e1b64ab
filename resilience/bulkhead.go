package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBulkheadTimeout is returned when MaxWait elapses before a slot frees.
var ErrBulkheadTimeout = errors.New("bulkhead wait timeout")

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead for metrics/logging.
	Name string
	// MaxConcurrent is the maximum number of concurrent calls.
	MaxConcurrent int
	// MaxWait bounds how long a caller queues for a slot. 0 means wait until
	// the caller's context ends.
	MaxWait time.Duration
	// OnReject is called when a caller gives up waiting.
	OnReject func(name string)
	// OnAcquire is called when a slot is acquired.
	OnAcquire func(name string)
	// OnRelease is called when a slot is released.
	OnRelease func(name string)
}

// DefaultBulkheadConfig returns sensible defaults.
func DefaultBulkheadConfig(name string) BulkheadConfig {
	return BulkheadConfig{
		Name:          name,
		MaxConcurrent: 3,
	}
}

// Bulkhead is a bounded worker pool. Waiting callers are admitted in arrival
// order, so a queued request cannot be overtaken by later ones.
type Bulkhead struct {
	config  BulkheadConfig
	sem     *semaphore.Weighted
	inUse   atomic.Int64
	waiting atomic.Int64
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 3
	}
	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
}

// Execute runs fn once a slot is free. The slot is held until fn returns.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	release, err := b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// Acquire waits for a slot and returns the func that frees it. Use it when
// the slot must outlive a single call; release is safe to call more than
// once.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	if err := b.acquire(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name)
		}
		return nil, err
	}
	if b.config.OnAcquire != nil {
		b.config.OnAcquire(b.config.Name)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.inUse.Add(-1)
			b.sem.Release(1)
			if b.config.OnRelease != nil {
				b.config.OnRelease(b.config.Name)
			}
		})
	}, nil
}

// ExecuteWithResult runs a function that returns a value.
func ExecuteWithResult[T any](b *Bulkhead, ctx context.Context, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if b.sem.TryAcquire(1) {
		b.inUse.Add(1)
		return nil
	}

	waitCtx := ctx
	if b.config.MaxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, b.config.MaxWait)
		defer cancel()
	}

	b.waiting.Add(1)
	err := b.sem.Acquire(waitCtx, 1)
	b.waiting.Add(-1)
	if err != nil {
		if ctx.Err() == nil {
			return ErrBulkheadTimeout
		}
		return ctx.Err()
	}
	b.inUse.Add(1)
	return nil
}

// InUse returns the number of slots currently in use.
func (b *Bulkhead) InUse() int {
	return int(b.inUse.Load())
}

// Waiting returns the number of callers queued for a slot.
func (b *Bulkhead) Waiting() int {
	return int(b.waiting.Load())
}

// MaxConcurrent returns the maximum concurrent calls allowed.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrent
}
