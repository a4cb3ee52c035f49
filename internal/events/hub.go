// Package events is the process-local fan-out for order lifecycle events.
// Best-effort only: no persistence, no replay, and a subscriber that connects
// after a publish never sees it.
package events

import "sync"

const (
	EventConnected   = "connected"
	EventNewOrder    = "new_order"
	EventOrderStatus = "order_status"
	EventPing        = "ping"
)

type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}

const subscriberBuffer = 16

// Hub broadcasts to every currently-connected subscriber. Each subscriber
// gets its own buffered channel, so a stalled SSE client delays nobody: once
// its buffer is full, events for that subscriber are dropped.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

type Subscriber struct {
	ch chan Event
}

// C is the subscriber's receive side. Closed by Unsubscribe.
func (s *Subscriber) C() <-chan Event { return s.ch }

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe is safe to call more than once and must run on every exit path
// of a subscribing request, abnormal disconnect included.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

// Publish delivers to all current subscribers without ever blocking.
func (h *Hub) Publish(name string, payload any) {
	ev := Event{Name: name, Payload: payload}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default: // subscriber too slow, drop for this one
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
