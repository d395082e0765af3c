package resilience

import (
	"context"
	"errors"
	"time"
)

// Bulkhead errors.
var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the number of calls allowed in flight.
	MaxConcurrent int
	// MaxWait bounds the wait for a slot. Zero fails immediately when full.
	MaxWait time.Duration
}

// Bulkhead caps the number of concurrent calls.
type Bulkhead struct {
	maxWait time.Duration
	sem     chan struct{}
}

// NewBulkhead creates a bulkhead. MaxConcurrent defaults to 10.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{maxWait: config.MaxWait, sem: make(chan struct{}, config.MaxConcurrent)}
}

// Acquire takes a slot. The returned release must be called exactly once.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case b.sem <- struct{}{}:
		return b.release, nil
	default:
	}
	if b.maxWait <= 0 {
		return nil, ErrBulkheadFull
	}

	timer := time.NewTimer(b.maxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		return b.release, nil
	case <-timer.C:
		return nil, ErrBulkheadTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InUse returns the number of occupied slots.
func (b *Bulkhead) InUse() int { return len(b.sem) }

// MaxConcurrent returns the slot count.
func (b *Bulkhead) MaxConcurrent() int { return cap(b.sem) }

func (b *Bulkhead) release() { <-b.sem }
