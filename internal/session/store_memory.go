package session

import (
	"context"
	"sync"
	"time"
)

type record struct {
	data      []byte
	expiresAt time.Time
}

// MemStore keeps encoded sessions in process memory. Values go through the
// same encoding as the postgres store.
type MemStore struct {
	mu  sync.RWMutex
	m   map[string]record
	now func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string]record{}, now: time.Now}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Load(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	rec, ok := s.m[id]
	s.mu.RUnlock()

	if !ok || !rec.expiresAt.After(s.now()) {
		return nil, ErrNotFound
	}
	return Restore(id, rec.data, rec.expiresAt)
}

func (s *MemStore) Save(ctx context.Context, sess *Session, expiresAt time.Time) error {
	data, err := sess.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range sess.staleIDs {
		delete(s.m, id)
	}
	s.m[sess.id] = record{data: data, expiresAt: expiresAt}
	return nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

func (s *MemStore) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.m {
		if !rec.expiresAt.After(now) {
			delete(s.m, id)
			n++
		}
	}
	return n, nil
}
