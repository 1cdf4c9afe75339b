// Package emitter provides a small typed publish/subscribe primitive.
//
// Listeners are registered under a comparable key and receive payloads of a
// single type. Dispatch is synchronous and panic-safe: a listener that panics
// is logged and skipped, the remaining listeners for the same emit still run.
package emitter

import (
	"log/slog"
	"sync"
)

// Listener receives one event payload.
type Listener[T any] func(T)

// Subscription identifies a registered listener so it can be removed.
type Subscription[K comparable] struct {
	key K
	id  uint64
}

type entry[T any] struct {
	fn   Listener[T]
	once bool
}

// Emitter dispatches payloads of type T to listeners registered under keys of
// type K. The zero value is not usable; call New.
type Emitter[K comparable, T any] struct {
	mu        sync.Mutex
	seq       uint64
	listeners map[K]map[uint64]entry[T]
	logger    *slog.Logger
}

// New creates an Emitter. A nil logger falls back to slog.Default().
func New[K comparable, T any](logger *slog.Logger) *Emitter[K, T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter[K, T]{
		listeners: make(map[K]map[uint64]entry[T]),
		logger:    logger,
	}
}

// On registers fn for key k and returns a handle for Off.
func (e *Emitter[K, T]) On(k K, fn Listener[T]) Subscription[K] {
	return e.add(k, fn, false)
}

// Once registers fn to run for at most one emit of k.
func (e *Emitter[K, T]) Once(k K, fn Listener[T]) Subscription[K] {
	return e.add(k, fn, true)
}

func (e *Emitter[K, T]) add(k K, fn Listener[T], once bool) Subscription[K] {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	m := e.listeners[k]
	if m == nil {
		m = make(map[uint64]entry[T])
		e.listeners[k] = m
	}
	m[e.seq] = entry[T]{fn: fn, once: once}

	return Subscription[K]{key: k, id: e.seq}
}

// Off removes the listener identified by sub. Unknown or already-removed
// handles are ignored.
func (e *Emitter[K, T]) Off(sub Subscription[K]) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m := e.listeners[sub.key]; m != nil {
		delete(m, sub.id)
		if len(m) == 0 {
			delete(e.listeners, sub.key)
		}
	}
}

// Emit synchronously invokes every listener registered for k and reports
// whether at least one listener existed. The listener set is snapshotted
// before dispatch, so a listener may call On, Off, or Emit without corrupting
// iteration; each listener fires at most once per Emit call.
func (e *Emitter[K, T]) Emit(k K, payload T) bool {
	e.mu.Lock()
	m := e.listeners[k]
	fns := make([]Listener[T], 0, len(m))
	for id, ent := range m {
		fns = append(fns, ent.fn)
		if ent.once {
			delete(m, id)
		}
	}
	if len(m) == 0 {
		delete(e.listeners, k)
	}
	e.mu.Unlock()

	if len(fns) == 0 {
		return false
	}
	for _, fn := range fns {
		e.dispatch(k, fn, payload)
	}
	return true
}

// dispatch runs one listener, containing any panic it raises.
func (e *Emitter[K, T]) dispatch(k K, fn Listener[T], payload T) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event listener panicked", "event", k, "panic", r)
		}
	}()
	fn(payload)
}

// RemoveAll drops every listener for the given keys, or all listeners when no
// key is given.
func (e *Emitter[K, T]) RemoveAll(keys ...K) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(keys) == 0 {
		e.listeners = make(map[K]map[uint64]entry[T])
		return
	}
	for _, k := range keys {
		delete(e.listeners, k)
	}
}

// ListenerCount returns the number of listeners registered for k.
func (e *Emitter[K, T]) ListenerCount(k K) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[k])
}
