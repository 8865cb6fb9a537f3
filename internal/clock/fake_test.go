package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func TestFakeAfterFuncFiresAtDeadline(t *testing.T) {
	c := Fake(epoch)
	fired := 0
	c.AfterFunc(10*time.Second, func() { fired++ })

	c.Advance(9 * time.Second)
	if fired != 0 {
		t.Fatalf("fired early")
	}
	c.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("expected callback at deadline, fired=%d", fired)
	}
	c.Advance(time.Minute)
	if fired != 1 {
		t.Fatalf("one-shot callback fired twice")
	}
	if c.PendingCount() != 0 {
		t.Fatalf("expected no pending timers")
	}
}

func TestFakeStopCancelsCallback(t *testing.T) {
	c := Fake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("Stop should report an active timer")
	}
	if timer.Stop() {
		t.Fatalf("second Stop should report false")
	}
	c.Advance(time.Hour)
	if fired {
		t.Fatalf("stopped timer fired")
	}
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := Fake(epoch)
	var order []int
	c.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	c.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	c.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	c.Advance(5 * time.Second)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected order %v", order)
	}
	if !c.Now().Equal(epoch.Add(5 * time.Second)) {
		t.Fatalf("Now did not advance")
	}
}

func TestFakeZeroDurationFiresOnNextAdvance(t *testing.T) {
	c := Fake(epoch)
	fired := 0
	c.AfterFunc(0, func() { fired++ })
	c.AfterFunc(-time.Second, func() { fired++ })
	if fired != 0 {
		t.Fatalf("AfterFunc must not call f before returning")
	}
	if c.PendingCount() != 2 {
		t.Fatalf("expected 2 pending, got %d", c.PendingCount())
	}
	c.Advance(0)
	if fired != 2 {
		t.Fatalf("expected both callbacks on Advance(0), fired=%d", fired)
	}
}
