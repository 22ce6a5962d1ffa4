package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalRepeaterFiresUntilStopped(t *testing.T) {
	var calls atomic.Int32
	stop := IntervalRepeater{}.Every(5*time.Millisecond, func() { calls.Add(1) })

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", calls.Load())
	}

	stop()
	stop() // idempotent
	time.Sleep(10 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != settled {
		t.Errorf("repeater kept firing after stop: %d -> %d", settled, calls.Load())
	}
}

func TestManualRepeater(t *testing.T) {
	var r ManualRepeater
	var order []string

	stopA := r.Every(10*time.Second, func() { order = append(order, "a") })
	r.Every(time.Second, func() { order = append(order, "b") })

	r.Fire()
	stopA()
	r.Fire()

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "b" {
		t.Fatalf("unexpected firing order: %v", order)
	}
	if r.Active() != 1 {
		t.Errorf("expected 1 active job, got %d", r.Active())
	}
	if r.Starts() != 2 {
		t.Errorf("expected 2 starts, got %d", r.Starts())
	}
	if r.Interval() != time.Second {
		t.Errorf("expected latest interval 1s, got %s", r.Interval())
	}
}

func TestMockClockAdvance(t *testing.T) {
	c := &MockClock{MockTime: time.UnixMilli(1000)}
	c.Advance(250 * time.Millisecond)
	if got := c.Now().UnixMilli(); got != 1250 {
		t.Errorf("expected 1250ms, got %d", got)
	}
}
