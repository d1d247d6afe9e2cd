// Package feed broadcasts session updates to dashboard clients over
// WebSocket.
package feed

import (
	"sync"

	"github.com/honeypot-ai/honeypot-server/internal/domain"
)

const subscriberBuffer = 16

// Hub fans session updates out to subscribed clients. Slow subscribers
// miss updates rather than stalling the pipeline; the dashboard reconciles
// through the sessions endpoint anyway.
type Hub struct {
	mu          sync.Mutex
	subscribers map[int64]chan *domain.Session
	nextID      int64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[int64]chan *domain.Session)}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (h *Hub) Subscribe() (int64, <-chan *domain.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	ch := make(chan *domain.Session, subscriberBuffer)
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Broadcast sends a session update to every subscriber without blocking.
func (h *Hub) Broadcast(session *domain.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- session:
		default:
			// Subscriber is not keeping up; skip this update.
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
