package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memEntry struct {
	seq uint64
	c   Comment
}

// InMemoryCommentStore is a development and test implementation.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	seq      uint64
	comments map[string]memEntry // id -> comment
	now      func() time.Time
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{
		comments: make(map[string]memEntry),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryCommentStore) Insert(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.New().String()
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.seq++
	s.comments[c.ID] = memEntry{seq: s.seq, c: c}
	return c, nil
}

func (s *InMemoryCommentStore) FindByID(_ context.Context, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return e.c, nil
}

func (s *InMemoryCommentStore) UpdateContent(_ context.Context, id, content string) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	e.c.Content = content
	e.c.UpdatedAt = s.now()
	s.comments[id] = e
	return e.c, nil
}

func (s *InMemoryCommentStore) Delete(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return 0, nil
	}
	delete(s.comments, id)
	return 1, nil
}

func (s *InMemoryCommentStore) CountByParent(_ context.Context, parent ParentRef) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.comments {
		if e.c.Parent == parent {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryCommentStore) ListByParent(_ context.Context, parent ParentRef, offset, limit int) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []memEntry
	for _, e := range s.comments {
		if e.c.Parent == parent {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	if offset < 0 || offset >= len(matched) {
		return []Comment{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]Comment, len(matched))
	for i, e := range matched {
		out[i] = e.c
	}
	return out, nil
}

func (s *InMemoryCommentStore) Ping(context.Context) error { return nil }
