// Package events provides a small in-process event hub used to push review
// and publish activity to connected frontends.
package events

import (
	"sync"
	"time"
)

// Event types.
const (
	TypeReviewSynced  = "review.synced"
	TypePostPublished = "post.published"
	TypePostFailed    = "post.failed"
)

// Event is a tenant-scoped notification.
type Event struct {
	Type     string      `json:"type"`
	TenantID string      `json:"tenant_id"`
	Payload  interface{} `json:"payload,omitempty"`
	At       time.Time   `json:"at"`
}

// Hub fans events out to per-tenant subscribers. Delivery is best-effort: a
// subscriber whose buffer is full misses the event rather than blocking the
// publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]bool)}
}

// Subscribe registers a buffered channel for a tenant's events. The returned
// cancel function removes the subscription and closes the channel.
func (h *Hub) Subscribe(tenantID string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.subs[tenantID] == nil {
		h.subs[tenantID] = make(map[chan Event]bool)
	}
	h.subs[tenantID][ch] = true
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[tenantID]; ok && set[ch] {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, tenantID)
			}
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its tenant.
func (h *Hub) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[evt.TenantID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// SubscriberCount reports active subscriptions for a tenant.
func (h *Hub) SubscriberCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tenantID])
}
