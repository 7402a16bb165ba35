package clock

import (
	"testing"
	"time"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := NewFake()
	var order []string

	c.AfterFunc(300*time.Millisecond, func() { order = append(order, "c") })
	c.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	c.AfterFunc(200*time.Millisecond, func() { order = append(order, "b") })

	c.Advance(250 * time.Millisecond)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("Expected [a b], got %v", order)
	}
	if c.Pending() != 1 {
		t.Errorf("Expected 1 pending timer, got %d", c.Pending())
	}

	c.Advance(50 * time.Millisecond)
	if len(order) != 3 || order[2] != "c" {
		t.Errorf("Expected c to fire at 300ms, got %v", order)
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake()
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("Expected first Stop to report true")
	}
	if timer.Stop() {
		t.Error("Expected second Stop to report false")
	}

	c.Advance(2 * time.Second)
	if fired {
		t.Error("Stopped timer fired")
	}
	if c.Pending() != 0 {
		t.Errorf("Expected 0 pending timers, got %d", c.Pending())
	}
}

func TestFakeRescheduleWithinAdvance(t *testing.T) {
	c := NewFake()
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3500 * time.Millisecond)
	if ticks != 3 {
		t.Errorf("Expected 3 ticks, got %d", ticks)
	}

	start := NewFake().Now()
	if got := c.Now().Sub(start); got != 3500*time.Millisecond {
		t.Errorf("Expected clock to advance 3.5s, got %v", got)
	}
}
