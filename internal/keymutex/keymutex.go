// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

// Package keymutex provides a mutual exclusion primitive over an open set of
// string keys.
//
// Each key behaves like an independent FIFO mutex. Unlock hands the lock to
// the oldest waiter directly, so a key that has waiters never passes through
// the unlocked state. WaitForUnlock is a separate, non-acquiring wait that
// only returns once a key is fully released.
//
// Resources are created lazily on first reference and live as long as the
// KeyedMutex itself.
//
//	km := keymutex.New()
//	if err := km.Lock(ctx, "tenant-a"); err != nil {
//	    return err
//	}
//	defer km.Unlock("tenant-a")
package keymutex

import (
	"context"
	"sync"
)

// resource is the per-key state.
type resource struct {
	locked bool

	// queue holds pending acquirers in arrival order. Closing a channel
	// transfers ownership of the lock to its receiver.
	queue []chan struct{}

	// listeners are closed when the key becomes free.
	listeners []chan struct{}
}

// KeyedMutex serializes access to resources identified by string keys.
// The zero value is not usable; call New.
type KeyedMutex struct {
	mu        sync.Mutex
	resources map[string]*resource
}

// New creates an empty KeyedMutex.
func New() *KeyedMutex {
	return &KeyedMutex{
		resources: make(map[string]*resource),
	}
}

// resource returns the state for id, creating it on first use.
// Must be called with m.mu held.
func (m *KeyedMutex) resource(id string) *resource {
	r, ok := m.resources[id]
	if !ok {
		r = &resource{}
		m.resources[id] = r
	}
	return r
}

// Lock acquires the lock for id, blocking until it is available or ctx is
// done. On an unlocked key it returns immediately. Waiters are served in
// FIFO order.
//
// If ctx is canceled while waiting, the caller leaves the queue and Lock
// returns ctx.Err(). A lock that was handed over concurrently with the
// cancellation is released again before returning.
func (m *KeyedMutex) Lock(ctx context.Context, id string) error {
	m.mu.Lock()
	r := m.resource(id)
	if !r.locked {
		r.locked = true
		m.mu.Unlock()
		return nil
	}

	turn := make(chan struct{})
	r.queue = append(r.queue, turn)
	m.mu.Unlock()

	select {
	case <-turn:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		removed := removeChan(&r.queue, turn)
		m.mu.Unlock()
		if !removed {
			// Unlock already handed us the key.
			m.Unlock(id)
		}
		return ctx.Err()
	}
}

// TryLock acquires the lock for id only if it is free.
func (m *KeyedMutex) TryLock(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.resource(id)
	if r.locked {
		return false
	}
	r.locked = true
	return true
}

// Unlock releases the lock for id. If callers are queued the oldest one
// becomes the owner; otherwise the key is marked free and every
// WaitForUnlock listener is released. Unlocking a free key is a no-op.
func (m *KeyedMutex) Unlock(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.resource(id)
	if !r.locked {
		return
	}

	if len(r.queue) > 0 {
		next := r.queue[0]
		r.queue[0] = nil
		r.queue = r.queue[1:]
		close(next)
		return
	}

	r.locked = false
	for _, l := range r.listeners {
		close(l)
	}
	r.listeners = nil
}

// WaitForUnlock blocks until id is free without acquiring it. It returns
// immediately when id is not locked. A hand-off from one owner to a queued
// waiter does not count as free.
func (m *KeyedMutex) WaitForUnlock(ctx context.Context, id string) error {
	m.mu.Lock()
	r := m.resource(id)
	if !r.locked {
		m.mu.Unlock()
		return nil
	}

	released := make(chan struct{})
	r.listeners = append(r.listeners, released)
	m.mu.Unlock()

	select {
	case <-released:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		removeChan(&r.listeners, released)
		m.mu.Unlock()
		return ctx.Err()
	}
}

// IsLocked reports whether id is currently held.
func (m *KeyedMutex) IsLocked(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resource(id).locked
}

// WithLock runs fn while holding the lock for id.
func (m *KeyedMutex) WithLock(ctx context.Context, id string, fn func() error) error {
	if err := m.Lock(ctx, id); err != nil {
		return err
	}
	defer m.Unlock(id)
	return fn()
}

// waiting returns the number of queued acquirers for id.
func (m *KeyedMutex) waiting(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resource(id).queue)
}

// removeChan deletes target from s, preserving order.
func removeChan(s *[]chan struct{}, target chan struct{}) bool {
	for i, c := range *s {
		if c == target {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}
