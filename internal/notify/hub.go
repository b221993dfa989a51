// Package notify lets renderers observe snapshot changes per kind.
package notify

import (
	"sync"

	"MarketDash/internal/model"
)

// Callback receives the newly applied value for a kind. Values published
// by the store are private copies.
type Callback func(kind model.Kind, value any)

// Subscription identifies one registered callback.
type Subscription struct {
	hub  *Hub
	kind model.Kind
	id   uint64
}

// Cancel removes the subscription. Safe to call more than once.
func (s Subscription) Cancel() {
	if s.hub != nil {
		s.hub.Unsubscribe(s)
	}
}

type entry struct {
	id uint64
	cb Callback
}

// Hub fans out per-kind updates to subscribers in subscription order.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   [model.NumKinds][]entry
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers cb for kind. Subscribing to an invalid kind returns
// a no-op subscription.
func (h *Hub) Subscribe(kind model.Kind, cb Callback) Subscription {
	if !kind.Valid() || cb == nil {
		return Subscription{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.subs[kind] = append(h.subs[kind], entry{id: h.nextID, cb: cb})
	return Subscription{hub: h, kind: kind, id: h.nextID}
}

// SubscribeAll registers cb on every kind and returns one subscription per kind.
func (h *Hub) SubscribeAll(cb Callback) []Subscription {
	subs := make([]Subscription, 0, model.NumKinds)
	for _, k := range model.Kinds {
		subs = append(subs, h.Subscribe(k, cb))
	}
	return subs
}

func (h *Hub) Unsubscribe(s Subscription) {
	if s.hub != h || !s.kind.Valid() {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.subs[s.kind]
	for i, e := range list {
		if e.id == s.id {
			// copy so a Publish iterating the old slice is unaffected
			next := make([]entry, 0, len(list)-1)
			next = append(next, list[:i]...)
			h.subs[s.kind] = append(next, list[i+1:]...)
			return
		}
	}
}

// Count returns the number of subscribers for kind.
func (h *Hub) Count(kind model.Kind) int {
	if !kind.Valid() {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[kind])
}

// Publish invokes every subscriber of kind, in subscription order, with value.
// Callbacks run on the caller's goroutine and share value.
func (h *Hub) Publish(kind model.Kind, value any) {
	h.PublishEach(kind, func() any { return value })
}

// PublishEach is Publish with a fresh value from next for every callback,
// so a subscriber mutating its copy cannot affect the others.
func (h *Hub) PublishEach(kind model.Kind, next func() any) {
	if !kind.Valid() {
		return
	}
	h.mu.RLock()
	list := h.subs[kind]
	h.mu.RUnlock()
	for _, e := range list {
		e.cb(kind, next())
	}
}
