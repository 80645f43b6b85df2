// Package values is a small keyed string resource served under /api/values.
// It gives bearer-authenticated clients something to call with the tokens
// issued by the service.
package values

import (
	"container/list"
	"slices"
	"sync"
)

type entry struct {
	value   string
	lruElem *list.Element
}

// Store keeps values in memory. With a positive maxSize the least recently
// used value is evicted when a new ID would exceed it.
type Store struct {
	mu      sync.Mutex
	entries map[int]*entry
	lru     *list.List // front = most recently used
	maxSize int        // 0 = unlimited
}

// NewStore creates an empty store.
func NewStore(maxSize int) *Store {
	return &Store{
		entries: make(map[int]*entry),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// List returns all values ordered by ID.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = s.entries[id].value
	}
	return out
}

// Get returns the value stored under id.
func (s *Store) Get(id int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return "", ErrNotFound
	}
	s.lru.MoveToFront(e.lruElem)
	return e.value, nil
}

// Set stores value under id, replacing any previous value. It reports
// whether the ID was new.
func (s *Store) Set(id int, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.value = value
		s.lru.MoveToFront(e.lruElem)
		return false
	}
	s.insert(id, value)
	return true
}

// Create stores value under a new id. Returns ErrConflict if id is taken.
func (s *Store) Create(id int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; ok {
		return ErrConflict
	}
	s.insert(id, value)
	return nil
}

// Delete removes the value stored under id.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	s.lru.Remove(e.lruElem)
	delete(s.entries, id)
	return nil
}

// Len returns the number of stored values.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// insert adds a new entry. Must be called with the lock held.
func (s *Store) insert(id int, value string) {
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}
	s.entries[id] = &entry{value: value, lruElem: s.lru.PushFront(id)}
}

// evictOldest drops the least recently used entry. Must be called with the
// lock held.
func (s *Store) evictOldest() {
	back := s.lru.Back()
	if back == nil {
		return
	}
	id := back.Value.(int)
	s.lru.Remove(back)
	delete(s.entries, id)
}
