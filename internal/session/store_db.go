package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
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

func (s *PostgresStore) Load(ctx context.Context, id string) (*Session, error) {
	var (
		data      []byte
		expiresAt time.Time
	)

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `
			SELECT data::text, expires_at
			FROM sessions
			WHERE id = $1 AND expires_at > now()
		`, id).Scan(&data, &expiresAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return Restore(id, data, expiresAt)
}

func (s *PostgresStore) Save(ctx context.Context, sess *Session, expiresAt time.Time) error {
	data, err := sess.Encode()
	if err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if len(sess.staleIDs) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = ANY($1)`, sess.staleIDs); err != nil {
				return fmt.Errorf("delete stale sessions: %w", err)
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO sessions (id, data, expires_at)
			VALUES ($1, $2::jsonb, $3)
			ON CONFLICT (id) DO UPDATE
			SET data = EXCLUDED.data,
			    expires_at = EXCLUDED.expires_at
		`, sess.id, string(data), expiresAt)
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}

		return tx.Commit(ctx)
	})
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
		return err
	})
}

func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	var n int64
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
		n = tag.RowsAffected()
		return err
	})
	return n, err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
