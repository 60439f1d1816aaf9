package app

import "sync"

// Lock guards a kind of operation so that at most one is in flight.
// It never blocks: a contended TryAcquire fails and the caller drops its request.
type Lock struct {
	name string
	mu   sync.Mutex
	held bool
}

func NewLock(name string) *Lock {
	return &Lock{name: name}
}

// TryAcquire takes the lock if it is free. The returned release func is safe to call
// more than once; only the first call has an effect.
func (l *Lock) TryAcquire() (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, false
	}
	l.held = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.held = false
			l.mu.Unlock()
		})
	}, true
}

// Held reports whether an operation currently owns the lock.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *Lock) Name() string {
	return l.name
}
