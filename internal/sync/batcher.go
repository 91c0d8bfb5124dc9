package sync

import (
	stdsync "sync"
	"time"

	"github.com/colonyops/relay/internal/core/progress"
)

// Batcher coalesces rapid successive edits into one outgoing record per key
// per window. It performs no I/O itself: when the window elapses or the
// pending batch reaches the threshold, it invokes the trigger, and whoever
// owns the trigger takes the batch with Take.
type Batcher struct {
	mu      stdsync.Mutex
	pending map[string]progress.Record
	order   []string
	timer   *time.Timer

	window    time.Duration
	threshold int
	trigger   func()
}

// NewBatcher creates a batcher. The trigger runs on a timer goroutine (window
// expiry) or a fresh goroutine (threshold flush); it must not assume the
// caller's goroutine.
func NewBatcher(window time.Duration, threshold int, trigger func()) *Batcher {
	return &Batcher{
		pending:   make(map[string]progress.Record),
		window:    window,
		threshold: threshold,
		trigger:   trigger,
	}
}

// Record appends or replaces the pending edit for rec's item key. Within a
// window only the newest edit per key survives; older ones are superseded
// before they ever reach the network.
func (b *Batcher) Record(rec progress.Record) {
	b.mu.Lock()

	existing, ok := b.pending[rec.ItemKey]
	switch {
	case !ok:
		b.order = append(b.order, rec.ItemKey)
		b.pending[rec.ItemKey] = rec
	case rec.LocalTS >= existing.LocalTS:
		b.pending[rec.ItemKey] = rec
	}

	if len(b.pending) >= b.threshold {
		// Backpressure relief valve: a burst of edits doesn't wait out the window.
		b.stopTimerLocked()
		b.mu.Unlock()
		go b.trigger()
		return
	}

	if b.timer == nil {
		b.timer = time.AfterFunc(b.window, b.trigger)
	} else {
		b.timer.Reset(b.window)
	}
	b.mu.Unlock()
}

// Take removes and returns the pending batch in first-seen key order, or nil
// when nothing is pending. The countdown timer is cancelled.
func (b *Batcher) Take() []progress.Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimerLocked()
	if len(b.pending) == 0 {
		return nil
	}

	out := make([]progress.Record, 0, len(b.pending))
	for _, key := range b.order {
		out = append(out, b.pending[key])
	}

	b.pending = make(map[string]progress.Record)
	b.order = nil
	return out
}

// Len returns the number of pending keys.
func (b *Batcher) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Batcher) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
	}
}
