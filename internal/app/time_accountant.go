package app

import "sync"

// TimeAccountant owns the elapsed seconds of the active session.
// Stopping the timer and erasing elapsed time are separate operations.
type TimeAccountant struct {
	mu       sync.Mutex
	elapsed  int
	running  bool
	onChange func(seconds int)
}

// NewTimeAccountant returns a stopped timer at zero. onChange, if set, is called
// after every change of the elapsed value while the internal lock is held, so
// notifications arrive in the order the changes happened. It must not call back
// into the TimeAccountant.
func NewTimeAccountant(onChange func(seconds int)) *TimeAccountant {
	return &TimeAccountant{onChange: onChange}
}

// SetTimeElapsed overwrites elapsed time; negative values clamp to zero.
func (t *TimeAccountant) SetTimeElapsed(n int) {
	if n < 0 {
		n = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.elapsed = n
	t.notifyLocked(n)
}

// Tick advances elapsed time by one second while the timer runs.
func (t *TimeAccountant) Tick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return false
	}
	t.elapsed++
	t.notifyLocked(t.elapsed)
	return true
}

// ResetTimer stops counting and leaves the elapsed value untouched.
func (t *TimeAccountant) ResetTimer() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
}

// StartTimer resumes counting from the current elapsed value.
func (t *TimeAccountant) StartTimer() {
	t.mu.Lock()
	t.running = true
	t.mu.Unlock()
}

func (t *TimeAccountant) TimeElapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

func (t *TimeAccountant) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *TimeAccountant) notifyLocked(n int) {
	if t.onChange != nil {
		t.onChange(n)
	}
}
