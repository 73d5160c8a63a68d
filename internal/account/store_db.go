package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.pool.Ping(ctx)
	})
}

func (s *PostgresStore) Create(ctx context.Context, u User, password string) (User, error) {
	u.Email = normalizeEmail(u.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u.Hash = hash

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `
			INSERT INTO users (id, username, email, pass_hash)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, u.ID, u.Username, u.Email, u.Hash).Scan(&u.CreatedAt)
	})
	if err != nil {
		return User{}, uniqueViolation(err)
	}
	return u, nil
}

func (s *PostgresStore) Verify(ctx context.Context, username, password string) (User, error) {
	u, err := s.queryUser(ctx, `WHERE username = $1`, username)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (User, error) {
	return s.queryUser(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) queryUser(ctx context.Context, where string, arg any) (User, error) {
	var u User
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `
			SELECT id, username, email, pass_hash, created_at
			FROM users
		`+where, arg).Scan(&u.ID, &u.Username, &u.Email, &u.Hash, &u.CreatedAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

// uniqueViolation maps the users unique constraints onto sentinel errors.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueCode {
		return err
	}
	if strings.Contains(pgErr.ConstraintName, "username") {
		return ErrUsernameExists
	}
	return ErrEmailExists
}
