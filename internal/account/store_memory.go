package account

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type MemStore struct {
	mu         sync.RWMutex
	byID       map[string]User
	byUsername map[string]string
	byEmail    map[string]string
	cost       int
}

func NewMemStore() *MemStore {
	return &MemStore{
		byID:       make(map[string]User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		cost:       bcrypt.DefaultCost,
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Create(ctx context.Context, u User, password string) (User, error) {
	u.Email = normalizeEmail(u.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[u.Username]; ok {
		return User{}, ErrUsernameExists
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return User{}, ErrEmailExists
	}

	u.Hash = hash
	u.CreatedAt = time.Now().UTC()
	s.byID[u.ID] = u
	s.byUsername[u.Username] = u.ID
	s.byEmail[u.Email] = u.ID
	return u, nil
}

func (s *MemStore) Verify(ctx context.Context, username, password string) (User, error) {
	s.mu.RLock()
	u, ok := s.byID[s.byUsername[username]]
	s.mu.RUnlock()

	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}
