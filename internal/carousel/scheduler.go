package carousel

import (
	"sync"
	"time"

	"finitefield.org/storefront-web/internal/clock"
)

// Debouncer owns at most one pending action. Scheduling a new action
// cancels the previous one.
type Debouncer struct {
	clock clock.Clock

	mu    sync.Mutex
	timer clock.Timer
	gen   uint64
}

// NewDebouncer returns a debouncer driven by c (the wall clock when nil).
func NewDebouncer(c clock.Clock) *Debouncer {
	if c == nil {
		c = clock.Real{}
	}
	return &Debouncer{clock: c}
}

// Schedule arms action to run after delay, cancelling any pending action.
func (d *Debouncer) Schedule(delay time.Duration, action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.gen != gen || d.timer == nil {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		action()
	})
}

// Cancel drops the pending action, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.gen++
}

// Pending reports whether an action is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
