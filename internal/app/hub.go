package app

import (
	"sync"

	"quiz-progress-service/internal/domain"
)

// EventType tags what an Event carries.
type EventType string

const (
	EventSessionState EventType = "sessionState"
	EventTimeElapsed  EventType = "timeElapsed"
	EventProgress     EventType = "progress"
)

// Event is one update pushed to the presentation layer.
type Event struct {
	Type     EventType            `json:"type"`
	Session  *domain.SessionState `json:"session,omitempty"`
	Seconds  int                  `json:"seconds"`
	Progress *domain.ModeProgress `json:"progress,omitempty"`
}

// Listener receives session, timer and progress updates.
type Listener interface {
	OnSessionStateChange(state domain.SessionState)
	OnTimeElapsedChange(seconds int)
	OnProgressComputed(progress domain.ModeProgress)
}

const subscriberBuffer = 16

// Hub fans events out to subscriber channels. A slow subscriber loses its oldest
// pending event instead of blocking the publisher.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	closed      bool
}

var _ Listener = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan Event]struct{})}
}

// Subscribe registers a channel, seeds it with initial events and returns a cancel func
// the caller must invoke.
func (h *Hub) Subscribe(initial ...Event) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}
	for _, ev := range initial {
		push(ch, ev)
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) OnSessionStateChange(state domain.SessionState) {
	h.publish(Event{Type: EventSessionState, Session: &state})
}

func (h *Hub) OnTimeElapsedChange(seconds int) {
	h.publish(Event{Type: EventTimeElapsed, Seconds: seconds})
}

func (h *Hub) OnProgressComputed(progress domain.ModeProgress) {
	h.publish(Event{Type: EventProgress, Progress: &progress})
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close closes every subscriber channel; later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}

func (h *Hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		push(ch, ev)
	}
}

// push delivers ev, evicting the oldest queued event when the buffer is full.
func push(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
