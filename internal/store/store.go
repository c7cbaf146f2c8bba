// Package store holds the collection state behind the admin screens. Each
// collection is a reducer over tagged actions; Store serializes dispatches
// and notifies subscribers.
package store

import "sync"

// Reducer computes the next state. It must not mutate its input.
type Reducer[S, A any] func(state S, action A) S

// Store is a reducer-driven state container. Dispatches are serialized and
// the last one wins.
type Store[S, A any] struct {
	reduce Reducer[S, A]

	mu      sync.RWMutex
	state   S
	subs    map[int]func(S)
	nextSub int
}

// New creates a store holding initial
func New[S, A any](initial S, reduce Reducer[S, A]) *Store[S, A] {
	return &Store[S, A]{
		reduce: reduce,
		state:  initial,
		subs:   make(map[int]func(S)),
	}
}

// State returns the current state
func (s *Store[S, A]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies action and returns the resulting state
func (s *Store[S, A]) Dispatch(action A) S {
	s.mu.Lock()
	s.state = s.reduce(s.state, action)
	next := s.state
	subs := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe calls fn after every dispatch
func (s *Store[S, A]) Subscribe(fn func(S)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// toggle adds id when absent and removes it when present
func toggle(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	found := false
	for _, v := range ids {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

// without returns items minus the ones whose key is id
func without[T any](items []T, id string, key func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if key(it) != id {
			out = append(out, it)
		}
	}
	return out
}

// updated copies items and applies fn to the ones whose key is id
func updated[T any](items []T, id string, key func(T) string, fn func(*T)) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := range out {
		if key(out[i]) == id {
			fn(&out[i])
		}
	}
	return out
}
