package chat

import (
	"sync"

	"github.com/reelroom/backend/internal/metrics"
	"github.com/reelroom/backend/internal/models"
)

const subscriberBuffer = 64

// Hub fans new messages out to live subscribers of a topic. Slow subscribers
// miss messages rather than blocking senders; they can re-read history.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*subscription]struct{}
}

type subscription struct {
	ch chan models.ChatMessage
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*subscription]struct{})}
}

// Subscribe registers a listener for topic. The returned cancel function
// unregisters it and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(topic string) (<-chan models.ChatMessage, func()) {
	sub := &subscription{ch: make(chan models.ChatMessage, subscriberBuffer)}

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()
	metrics.ChatSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.topics[topic]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
			close(sub.ch)
			h.mu.Unlock()
			metrics.ChatSubscribers.Dec()
		})
	}
	return sub.ch, cancel
}

// Publish delivers msg to every current subscriber of its topic.
func (h *Hub) Publish(msg models.ChatMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[msg.Topic] {
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

// Subscribers reports the number of listeners on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
