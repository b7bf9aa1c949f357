package testkit

import (
	"testing"
	"time"
)

var dialTimeout = 5 * time.Second

func TestAssertions(t *testing.T) {
	MustPanic(t, func() { panic("boom") })
	MustNotPanic(t, func() {})
	MustContain(t, `{"level":"info","msg":"reallocated"}`, "reallocated")
}

func TestSwap_RestoresAfterSubtest(t *testing.T) {
	t.Run("swapped", func(t *testing.T) {
		Swap(t, &dialTimeout, time.Millisecond)
		if dialTimeout != time.Millisecond {
			t.Fatalf("swap not applied: %v", dialTimeout)
		}
	})
	if dialTimeout != 5*time.Second {
		t.Fatalf("not restored: %v", dialTimeout)
	}
}

func TestSerial_NoOverlap(t *testing.T) {
	active := make(chan struct{}, 2)
	overlap := make(chan struct{}, 1)
	t.Run("group", func(t *testing.T) {
		for _, name := range []string{"a", "b", "c"} {
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				Serial(t)
				active <- struct{}{}
				if len(active) > 1 {
					select {
					case overlap <- struct{}{}:
					default:
					}
				}
				time.Sleep(10 * time.Millisecond)
				<-active
			})
		}
	})
	if len(overlap) != 0 {
		t.Fatalf("serial tests overlapped")
	}
}

func TestClock(t *testing.T) {
	t0 := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	c := NewClock(t0)
	c.Advance(90 * time.Minute)
	if !c.Now().Equal(t0.Add(90 * time.Minute)) {
		t.Fatalf("now = %v", c.Now())
	}
}
