package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/discussion-platform/services/discussion/internal/domain"
)

// MemoryStore is a development-only in-memory implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	threads  map[string]domain.Thread
	parents  map[string]string   // parentType|parentID -> thread id
	comments map[string]domain.Comment
	order    map[string][]string // thread id -> comment ids in insertion order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads:  make(map[string]domain.Thread),
		parents:  make(map[string]string),
		comments: make(map[string]domain.Comment),
		order:    make(map[string][]string),
	}
}

func parentKey(parentType, parentID string) string {
	return parentType + "|" + parentID
}

func (s *MemoryStore) CreateThread(_ context.Context, t domain.Thread) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := parentKey(t.ParentType, t.ParentID)
	if _, ok := s.parents[key]; ok {
		return domain.Thread{}, ErrConflict
	}
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()
	s.threads[t.ID] = t
	s.parents[key] = t.ID
	return t, nil
}

func (s *MemoryStore) FindThread(_ context.Context, id string) (domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) FindThreadByParent(_ context.Context, parentType, parentID string) (domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.parents[parentKey(parentType, parentID)]
	if !ok {
		return domain.Thread{}, ErrNotFound
	}
	return s.threads[id], nil
}

func (s *MemoryStore) SaveThread(_ context.Context, t domain.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.threads[t.ID]
	if !ok {
		return ErrNotFound
	}
	// parent binding and creation time are immutable
	t.ParentType, t.ParentID, t.CreatedAt = old.ParentType, old.ParentID, old.CreatedAt
	s.threads[t.ID] = t
	return nil
}

func (s *MemoryStore) InsertComment(_ context.Context, c domain.Comment) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[c.ThreadID]; !ok {
		return domain.Comment{}, ErrNotFound
	}
	c = c.Clone()
	c.ID = uuid.New().String()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.Version = 1
	s.comments[c.ID] = c
	s.order[c.ThreadID] = append(s.order[c.ThreadID], c.ID)
	return c.Clone(), nil
}

func (s *MemoryStore) FindComment(_ context.Context, id string) (domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return domain.Comment{}, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) ListComments(_ context.Context, threadID string) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.threads[threadID]; !ok {
		return nil, ErrNotFound
	}
	ids := s.order[threadID]
	out := make([]domain.Comment, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.comments[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Persist(_ context.Context, c domain.Comment) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.comments[c.ID]
	if !ok {
		return domain.Comment{}, ErrNotFound
	}
	if old.Version != c.Version {
		return domain.Comment{}, ErrConflict
	}
	c = c.Clone()
	c.ThreadID, c.CreatorID, c.CreatedAt = old.ThreadID, old.CreatorID, old.CreatedAt
	c.Version = old.Version + 1
	s.comments[c.ID] = c
	return c.Clone(), nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
