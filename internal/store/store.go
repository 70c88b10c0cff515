// Package store implements the external key/value table boundary named by
// spec.md §6: named containers, wrong-type detection, and
// creation-on-write/deletion-on-empty for the skiplist command layer. This
// is intentionally thin — spec.md treats the key/value table as an
// external collaborator, not a component this spec designs — but it has to
// be something concrete for the six command verbs to run against.
package store

import (
	"errors"
	"sync"

	"slserver/internal/skiplist"
)

// ErrWrongType is returned when a key exists but does not hold a skiplist
// container (spec.md §7 "Wrong type").
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// Type tags the kind of value a Container holds. Only TypeSkiplist is ever
// produced by this repository's command surface; the tag exists so that a
// future sibling value type would be rejected with ErrWrongType instead of
// misread, the way the teacher's storage.ValueType enum guards every data
// type it stores.
type Type int

const (
	TypeSkiplist Type = iota
)

// Container is the value held under one key.
type Container struct {
	Type     Type
	Skiplist *skiplist.Skiplist
}

// Store is the key/value table. A single *processor.Processor goroutine is
// the only writer (spec.md §5), so Store itself holds a plain mutex for the
// benefit of callers outside that goroutine (e.g. introspection from
// tests); the skiplist layer it protects never needs one internally.
type Store struct {
	mu   sync.Mutex
	data map[string]*Container
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string]*Container)}
}

// LookupRead returns the container at key for a read-only command. ok is
// false if the key is absent; err is ErrWrongType if the key exists but
// does not hold a skiplist.
func (s *Store) LookupRead(key string) (c *Container, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok = s.data[key]
	if !ok {
		return nil, false, nil
	}
	if c.Type != TypeSkiplist {
		return nil, true, ErrWrongType
	}
	return c, true, nil
}

// LookupOrCreate returns the container at key, creating a fresh empty
// skiplist container if key is absent (spec.md §4.9 "add": "Absent keys
// cause ... write commands to materialize a fresh container"). err is
// ErrWrongType if key exists under a different type.
func (s *Store) LookupOrCreate(key string) (c *Container, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[key]
	if !ok {
		c = &Container{Type: TypeSkiplist, Skiplist: skiplist.New()}
		s.data[key] = c
		return c, nil
	}
	if c.Type != TypeSkiplist {
		return nil, ErrWrongType
	}
	return c, nil
}

// Delete removes key from the table unconditionally.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Len reports how many keys the table currently holds (test/introspection
// helper only; no command verb in this spec exposes it).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
