package globe

import (
	"fmt"
	"time"
)

// RenderRetryAfter is how long the boundary shows the placeholder before retrying.
const RenderRetryAfter = 2 * time.Second

// RenderBoundary contains render failures (errors or panics, e.g. a lost graphics
// context). After a failure it reports the placeholder until the retry deadline,
// then the next frame retries automatically.
type RenderBoundary struct {
	retryAfter time.Duration
	retryAt    time.Time
	recovering bool
	lastErr    error
	failures   int
}

func NewRenderBoundary(retryAfter time.Duration) *RenderBoundary {
	if retryAfter <= 0 {
		retryAfter = RenderRetryAfter
	}
	return &RenderBoundary{retryAfter: retryAfter}
}

// Run executes fn unless the boundary is waiting to retry. ok is false when the
// placeholder should be shown; err is the failure that caused it.
func (b *RenderBoundary) Run(now time.Time, fn func() error) (ok bool, err error) {
	if b.recovering && now.Before(b.retryAt) {
		return false, b.lastErr
	}

	if err := safeCall(fn); err != nil {
		b.recovering = true
		b.retryAt = now.Add(b.retryAfter)
		b.lastErr = err
		b.failures++
		return false, err
	}

	b.recovering = false
	b.lastErr = nil
	return true, nil
}

// Recovering reports whether the placeholder is showing while a retry is pending.
func (b *RenderBoundary) Recovering() bool { return b.recovering }

// Failures counts failed renders over the boundary's lifetime.
func (b *RenderBoundary) Failures() int { return b.failures }

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panic: %v", r)
		}
	}()
	return fn()
}
