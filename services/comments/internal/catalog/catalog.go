// Package catalog answers whether the video or tweet a comment targets exists.
package catalog

import (
	"context"
	"sync"

	"github.com/example/tubesocial/services/comments/internal/store"
)

// ExistenceChecker reports whether a parent resource with the given id exists.
type ExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Checkers maps each parent kind to its existence check. A kind without an
// entry is not checked.
type Checkers map[store.ParentKind]ExistenceChecker

// Lookup returns the checker registered for kind, if any.
func (c Checkers) Lookup(kind store.ParentKind) (ExistenceChecker, bool) {
	ch, ok := c[kind]
	return ch, ok && ch != nil
}

// StaticSet is an in-memory ExistenceChecker used with the in-memory
// comment store and in tests.
type StaticSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewStaticSet(ids ...string) *StaticSet {
	s := &StaticSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[key(id)] = struct{}{}
	}
	return s
}

func (s *StaticSet) Add(id string) {
	s.mu.Lock()
	s.ids[key(id)] = struct{}{}
	s.mu.Unlock()
}

func (s *StaticSet) Remove(id string) {
	s.mu.Lock()
	delete(s.ids, key(id))
	s.mu.Unlock()
}

func (s *StaticSet) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[key(id)]
	return ok, nil
}

func key(id string) string {
	if c, ok := store.CanonicalID(id); ok {
		return c
	}
	return id
}
