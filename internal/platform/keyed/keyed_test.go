package keyed

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMutex_SerializesSameKey(t *testing.T) {
	var k Mutex
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = k.Do("lead-1", func() error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxInside)
	}
	if k.Len() != 0 {
		t.Fatalf("entries leaked: %d", k.Len())
	}
}

func TestMutex_IndependentKeys(t *testing.T) {
	var k Mutex
	unlockA := k.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("lock on b blocked behind a")
	}
	if k.Len() != 1 {
		t.Fatalf("Len = %d, want 1", k.Len())
	}
}

func TestMutex_UnlockIdempotent(t *testing.T) {
	var k Mutex
	unlock := k.Lock("x")
	unlock()
	unlock()
	if k.Len() != 0 {
		t.Fatalf("Len = %d after unlock", k.Len())
	}
	// still usable
	k.Lock("x")()
}

func TestMutex_DoReturnsError(t *testing.T) {
	var k Mutex
	want := errors.New("boom")
	if got := k.Do("x", func() error { return want }); !errors.Is(got, want) {
		t.Fatalf("Do = %v", got)
	}
	if k.Len() != 0 {
		t.Fatalf("lock not released on error")
	}
}
