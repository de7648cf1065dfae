package feed

import (
	"sync"

	"github.com/google/uuid"

	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/val"
)

// NotifyAction mirrors the subset of doc.Action a live query can fire
// for (spec §4.8 "Notification{id, action∈{Create,Update,Delete}, result}").
type NotifyAction uint8

const (
	NotifyCreate NotifyAction = iota
	NotifyUpdate
	NotifyDelete
)

func notifyActionFor(a doc.Action) NotifyAction {
	switch a {
	case doc.ActionCreate:
		return NotifyCreate
	case doc.ActionDelete:
		return NotifyDelete
	default:
		return NotifyUpdate
	}
}

// Notification is one live query match, queued for delivery to
// whatever transport is draining the channel registered for its live
// query uuid (spec §4.8 — the channel itself, and delivery to
// clients, are out of scope here).
type Notification struct {
	LiveQueryID uuid.UUID
	Action      NotifyAction
	Result      val.Value
}

// Subscription is the channel a client drains for one live query's
// notifications, sized the way pkg/events.Broker sizes a subscriber's
// buffer: generous enough that a momentarily slow client doesn't stall
// the mutation committing, but bounded so a client that never reads
// can't grow memory without limit.
type Subscription chan Notification

// Registry is the in-memory map from live query uuid to the channel
// its owner reads from, adapted from pkg/events.Broker's subscriber
// map — collapsed from "N subscribers per broadcast topic" to "one
// channel per live query uuid" since spec §4.8 routes a notification
// to the single channel registered for the uuid that produced the
// match, not to every listener.
type Registry struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Subscription
}

func NewRegistry() *Registry {
	return &Registry{subs: map[uuid.UUID]Subscription{}}
}

// Register creates (or replaces) the channel for id, closing any
// previous one first so a stale owner can't keep reading after a
// reassignment (spec §4.10 "reassigns any live queries owned by the
// stale node").
func (r *Registry) Register(id uuid.UUID, buffer int) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.subs[id]; ok {
		close(old)
	}
	sub := make(Subscription, buffer)
	r.subs[id] = sub
	return sub
}

// Unregister removes and closes id's channel, if any.
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, ok := r.subs[id]; ok {
		close(sub)
		delete(r.subs, id)
	}
}

// Publish enqueues n on the channel registered for n.LiveQueryID. A
// full channel drops the notification rather than blocking the
// committing transaction (spec §4.8's delivery contract only requires
// the enqueue to happen after commit and before the transaction
// returns success, not that every notification is guaranteed
// delivered to a slow or absent reader).
func (r *Registry) Publish(n Notification) {
	r.mu.RLock()
	sub, ok := r.subs[n.LiveQueryID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case sub <- n:
	default:
	}
}

// Has reports whether id currently has a registered channel.
func (r *Registry) Has(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[id]
	return ok
}
