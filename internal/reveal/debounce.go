package reveal

import (
	"sync"
	"time"
)

// Debouncer runs fn once the triggers have been quiet for the delay. A
// later Trigger supersedes a pending one.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer creates a debouncer for fn.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger (re)starts the quiet window. With a zero delay fn runs
// synchronously.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.delay <= 0 {
		d.timer = nil
		d.mu.Unlock()
		d.fn()
		return
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a superseded timer may still fire if Stop raced with it
		if d.stopped || gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fn()
	})
	d.mu.Unlock()
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs a pending fn immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer == nil || d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	d.mu.Unlock()
	d.fn()
}

// Stop cancels any pending run. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
