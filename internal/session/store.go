package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown and expired sessions alike.
var ErrNotFound = errors.New("session not found")

type Store interface {
	Ping(ctx context.Context) error
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// Purger is implemented by stores that can drop expired sessions in bulk.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
