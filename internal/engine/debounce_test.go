package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerOnlyLastTriggerFires(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var first, second atomic.Int32

	d.Trigger(func() { first.Add(1) })
	d.Trigger(func() { second.Add(1) })

	time.Sleep(150 * time.Millisecond)
	if got := first.Load(); got != 0 {
		t.Errorf("superseded trigger fired %d times", got)
	}
	if got := second.Load(); got != 1 {
		t.Errorf("expected last trigger to fire once, fired %d times", got)
	}
}

func TestDebouncerRepeatedTriggersKeepPostponing(t *testing.T) {
	d := NewDebouncer(40 * time.Millisecond)
	var fired atomic.Int32

	for i := 0; i < 4; i++ {
		d.Trigger(func() { fired.Add(1) })
		time.Sleep(15 * time.Millisecond)
	}
	if got := fired.Load(); got != 0 {
		t.Fatalf("fired %d times while input was still changing", got)
	}

	time.Sleep(150 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("expected exactly one call after settling, got %d", got)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var fired atomic.Int32

	d.Trigger(func() { fired.Add(1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("stopped trigger fired %d times", got)
	}
}
