package annotator

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Debouncer coalesces bursts of notifications into one trailing-edge fire.
// It is a timer state machine and is not safe for concurrent use.
type Debouncer struct {
	clock  clockwork.Clock
	settle time.Duration
	timer  clockwork.Timer
	armed  bool
}

// NewDebouncer creates a debouncer that fires once settle has elapsed since the last Touch
func NewDebouncer(clock clockwork.Clock, settle time.Duration) *Debouncer {
	return &Debouncer{clock: clock, settle: settle}
}

// Touch (re)starts the settle window
func (d *Debouncer) Touch() {
	if d.timer == nil {
		d.timer = d.clock.NewTimer(d.settle)
		d.armed = true
		return
	}

	d.drain()
	d.timer.Reset(d.settle)
	d.armed = true
}

// Stop disarms the debouncer without firing
func (d *Debouncer) Stop() {
	if d.timer == nil {
		return
	}
	d.drain()
	d.armed = false
}

// Armed reports whether a fire is scheduled
func (d *Debouncer) Armed() bool {
	return d.armed
}

// C delivers the fire. It is nil while disarmed, so a select on it blocks forever.
func (d *Debouncer) C() <-chan time.Time {
	if !d.armed {
		return nil
	}
	return d.timer.Chan()
}

// Fired must be called after receiving from C
func (d *Debouncer) Fired() {
	d.armed = false
}

// drain stops the timer and discards a fire that was delivered but never received
func (d *Debouncer) drain() {
	if !d.timer.Stop() {
		select {
		case <-d.timer.Chan():
		default:
		}
	}
}
