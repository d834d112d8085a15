package canvas

import (
	"context"
	"sync"
	"time"
)

// DefaultFrameInterval matches a 60 Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameBatcher coalesces work scheduled between two frames so that only
// the most recent job runs.  It stands in for requestAnimationFrame: a
// burst of pointer moves within one frame produces a single state update.
type FrameBatcher struct {
	mu      sync.Mutex
	pending func()
	dropped int

	run sync.Mutex // held while a job executes
}

// Schedule replaces any job still waiting for the next frame.
func (b *FrameBatcher) Schedule(fn func()) {
	b.mu.Lock()
	if b.pending != nil {
		b.dropped++
	}
	b.pending = fn
	b.mu.Unlock()
}

// Flush runs the pending job, if any, and reports whether one ran.  A job
// already taken by another Flush finishes before this one returns.
func (b *FrameBatcher) Flush() bool {
	b.run.Lock()
	defer b.run.Unlock()
	b.mu.Lock()
	fn := b.pending
	b.pending = nil
	b.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Dropped returns how many scheduled jobs were superseded before running.
func (b *FrameBatcher) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Run flushes on every tick until ctx is done.
func (b *FrameBatcher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			b.Flush()
			return
		case <-tick.C:
			b.Flush()
		}
	}
}
