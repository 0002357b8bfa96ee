// Package selection holds the single "currently selected building" slot shared
// by every mesh consumer and the details panel.
package selection

import (
	"sync"
	"sync/atomic"
)

// ID identifies a building. Selection compares ids by value.
type ID string

// Change describes one transition of the slot. Valid is false for "nothing
// selected".
type Change struct {
	ID    ID
	Valid bool
}

// Observer is called after every write that changed the slot.
type Observer func(prev, next Change)

// Store is a single-slot selection. Writes replace the slot atomically, so
// readers on any goroutine see either the old or the new id. Observers run
// synchronously on the writer's goroutine.
type Store struct {
	slot atomic.Pointer[ID]

	mu        sync.Mutex
	observers []observer
	nextKey   int
}

type observer struct {
	key int
	fn  Observer
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Select makes id the selected building. Selecting the current id again is a
// no-op.
func (s *Store) Select(id ID) {
	next := id
	prev := s.slot.Swap(&next)
	if prev != nil && *prev == id {
		return
	}
	s.notify(change(prev), Change{ID: id, Valid: true})
}

// Clear empties the slot.
func (s *Store) Clear() {
	prev := s.slot.Swap(nil)
	if prev == nil {
		return
	}
	s.notify(change(prev), Change{})
}

// Current returns the selected id, if any.
func (s *Store) Current() (ID, bool) {
	p := s.slot.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// IsSelected reports whether id is the selected building.
func (s *Store) IsSelected(id ID) bool {
	cur, ok := s.Current()
	return ok && cur == id
}

// Subscribe registers fn for change notifications and returns a function that
// removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.nextKey
	s.nextKey++
	s.observers = append(s.observers, observer{key: key, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o.key == key {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(prev, next Change) {
	s.mu.Lock()
	obs := append([]observer(nil), s.observers...)
	s.mu.Unlock()
	for _, o := range obs {
		o.fn(prev, next)
	}
}

func change(p *ID) Change {
	if p == nil {
		return Change{}
	}
	return Change{ID: *p, Valid: true}
}
