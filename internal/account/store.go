// Package account registers shoppers and logs them in and out.
package account

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
)

type User struct {
	ID        string
	Username  string
	Email     string
	Hash      []byte
	CreatedAt time.Time
}

type UserStore interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, u User, password string) (User, error)
	Verify(ctx context.Context, username, password string) (User, error)
	Get(ctx context.Context, id string) (User, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
