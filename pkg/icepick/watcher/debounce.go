package watcher

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is how long the mods tree must stay quiet before a
// burst of events is handed on.
const DefaultQuietPeriod = 500 * time.Millisecond

// Debouncer collects events and delivers them as one batch once no new
// event has arrived for the quiet period. Each Trigger invalidates the
// pending timer; a timer that fires after being invalidated does nothing.
// Batches are delivered one at a time.
type Debouncer struct {
	quiet time.Duration
	fn    func([]RawEvent)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending []RawEvent
	stopped bool

	// fire serialises deliveries.
	fire sync.Mutex
}

// NewDebouncer returns a Debouncer calling fn with each batch. A
// non-positive quiet period selects DefaultQuietPeriod.
func NewDebouncer(quiet time.Duration, fn func([]RawEvent)) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{quiet: quiet, fn: fn}
}

// Trigger records ev and restarts the quiet period.
func (d *Debouncer) Trigger(ev RawEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.gen++
	d.pending = append(d.pending, ev)
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.quiet, func() { d.deliver(gen) })
}

func (d *Debouncer) deliver(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	batch := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	d.fire.Lock()
	defer d.fire.Unlock()
	d.fn(batch)
}

// Pending reports whether a batch is waiting for its quiet period.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending batch. Later Triggers are ignored. Stop waits
// for a delivery already in progress.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.mu.Unlock()

	d.fire.Lock()
	d.fire.Unlock() //nolint:staticcheck // wait for an in-flight delivery
}
