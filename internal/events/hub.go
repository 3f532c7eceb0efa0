// Package events implements the in-process publish/subscribe hub that fans
// board mutations out to live stream sessions. Delivery is synchronous and
// fire-and-forget: no queueing, no replay, a publish with zero subscribers
// is a no-op. If the board ever scales past one process, Publish is the
// seam where an external broker would slot in.
package events

import (
	"log"
	"sync"
)

// Kind identifies one of the three broadcast event types.
type Kind string

const (
	KindNewPost    Kind = "new_post"
	KindUpdateVote Kind = "update_vote"
	KindDeletePost Kind = "delete_post"
)

// Kinds lists every event kind a live stream session subscribes to.
var Kinds = []Kind{KindNewPost, KindUpdateVote, KindDeletePost}

// Handler receives the payload of one published event. Handlers run on the
// publisher's goroutine and must not block or call back into the hub.
type Handler func(payload any)

type subscriber struct {
	id uint64
	fn Handler
}

// Hub is the process-wide subscriber registry. Construct exactly one with
// NewHub at startup and pass it by reference to everything that publishes
// or subscribes; it has no teardown.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Kind][]subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[Kind][]subscriber)}
}

// Subscription is the handle returned by Subscribe. Cancel is idempotent.
type Subscription struct {
	hub  *Hub
	kind Kind
	id   uint64
}

// Subscribe registers fn for every future publish of kind. Events published
// before Subscribe returns are never delivered to fn.
func (h *Hub) Subscribe(kind Kind, fn Handler) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	h.subs[kind] = append(h.subs[kind], subscriber{id: h.nextID, fn: fn})
	return &Subscription{hub: h, kind: kind, id: h.nextID}
}

// Cancel removes the subscription from the hub. Events published after
// Cancel returns are never delivered; cancelling twice is harmless.
func (s *Subscription) Cancel() {
	if s == nil || s.hub == nil {
		return
	}
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.subs[s.kind]
	for i, sub := range list {
		if sub.id == s.id {
			h.subs[s.kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Publish delivers payload to every handler currently registered for kind,
// in registration order, on the caller's goroutine. A panicking handler is
// logged and skipped so it cannot break delivery to the remaining
// subscribers or abort the publisher's request. The registry lock is held
// for the duration of delivery, which keeps every subscriber's event order
// identical to the global publish order.
func (h *Hub) Publish(kind Kind, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs[kind] {
		deliver(kind, sub, payload)
	}
}

func deliver(kind Kind, sub subscriber, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("events: handler %d for %q panicked: %v", sub.id, kind, r)
		}
	}()
	sub.fn(payload)
}

// SubscriberCount reports how many handlers are registered for kind. Useful
// for leak checks and operational stats.
func (h *Hub) SubscriberCount(kind Kind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[kind])
}
