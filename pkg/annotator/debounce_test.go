package annotator

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func fired(d *Debouncer) bool {
	select {
	case <-d.C():
		d.Fired()
		return true
	default:
		return false
	}
}

// TestDebouncer_TrailingEdge tests that the debouncer fires only after a full quiet period
func TestDebouncer_TrailingEdge(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(clock, SettleTime)

	if d.Armed() || fired(d) {
		t.Fatal("Expected new debouncer to be idle")
	}

	d.Touch()
	if fired(d) {
		t.Error("Expected no leading-edge fire")
	}

	clock.Advance(SettleTime - time.Millisecond)
	if fired(d) {
		t.Error("Expected no fire before the settle time")
	}

	d.Touch()
	clock.Advance(SettleTime - time.Millisecond)
	if fired(d) {
		t.Error("Expected re-touch to restart the settle window")
	}

	clock.Advance(time.Millisecond)
	if !fired(d) {
		t.Fatal("Expected fire after the settle time")
	}
	if d.Armed() {
		t.Error("Expected debouncer to disarm after firing")
	}
	if fired(d) {
		t.Error("Expected a single fire per burst")
	}
}

// TestDebouncer_StaleFireDiscarded tests that a fire not yet received is dropped on re-touch
func TestDebouncer_StaleFireDiscarded(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(clock, SettleTime)

	d.Touch()
	clock.Advance(SettleTime)

	// Burst continues before the loop consumed the fire
	d.Touch()
	if fired(d) {
		t.Error("Expected stale fire to be discarded")
	}

	clock.Advance(SettleTime)
	if !fired(d) {
		t.Error("Expected fire after the new settle window")
	}
}

func TestDebouncer_Stop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(clock, SettleTime)

	d.Stop()

	d.Touch()
	d.Stop()
	if d.Armed() {
		t.Error("Expected Stop to disarm")
	}

	clock.Advance(2 * SettleTime)
	if fired(d) {
		t.Error("Expected no fire after Stop")
	}

	d.Touch()
	clock.Advance(SettleTime)
	if !fired(d) {
		t.Error("Expected debouncer to be reusable after Stop")
	}
}
