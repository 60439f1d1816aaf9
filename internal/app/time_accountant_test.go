package app

import (
	"sync"
	"testing"
)

func TestTimeAccountantTicksOnlyWhileRunning(t *testing.T) {
	var seen []int
	ta := NewTimeAccountant(func(n int) { seen = append(seen, n) })

	if ta.Tick() {
		t.Fatalf("stopped timer must not tick")
	}
	ta.StartTimer()
	ta.Tick()
	ta.Tick()
	if ta.TimeElapsed() != 2 {
		t.Fatalf("expected 2 seconds, got %d", ta.TimeElapsed())
	}
	ta.ResetTimer()
	if ta.Tick() {
		t.Fatalf("tick after reset must be ignored")
	}
	if len(seen) != 2 || seen[1] != 2 {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}

func TestTimeAccountantResetKeepsValue(t *testing.T) {
	ta := NewTimeAccountant(nil)
	ta.SetTimeElapsed(42)
	ta.StartTimer()
	ta.ResetTimer()
	if ta.Running() {
		t.Fatalf("expected timer stopped")
	}
	if ta.TimeElapsed() != 42 {
		t.Fatalf("reset must keep elapsed, got %d", ta.TimeElapsed())
	}

	ta.SetTimeElapsed(0)
	ta.StartTimer()
	ta.Tick()
	if ta.TimeElapsed() != 1 {
		t.Fatalf("expected counting from zero, got %d", ta.TimeElapsed())
	}
}

func TestTimeAccountantClampsNegative(t *testing.T) {
	ta := NewTimeAccountant(nil)
	ta.SetTimeElapsed(-5)
	if ta.TimeElapsed() != 0 {
		t.Fatalf("expected clamp to 0, got %d", ta.TimeElapsed())
	}
}

func TestTimeAccountantNotifiesInChangeOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		last int
	)
	ta := NewTimeAccountant(func(n int) {
		mu.Lock()
		last = n
		mu.Unlock()
	})
	ta.StartTimer()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ta.Tick()
			}
		}()
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ta.SetTimeElapsed(base + j)
			}
		}(i * 1000)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if last != ta.TimeElapsed() {
		t.Fatalf("last notification %d does not match elapsed %d", last, ta.TimeElapsed())
	}
}
