// Package pg implementa el contrato de storage sobre PostgreSQL (pgx/v5).
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authcore/internal/store/core"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Users() core.UserRepository                 { return &userRepo{pool: s.pool} }
func (s *Store) RefreshTokens() core.RefreshTokenRepository { return &tokenRepo{pool: s.pool} }
func (s *Store) State() core.StateRepository                { return &stateRepo{pool: s.pool} }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() { s.pool.Close() }

// EnsureSchema crea las tablas si no existen. Suficiente para un servicio
// single-node; con múltiples instancias conviene correrlo desde una sola.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		last_login_at TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS refresh_tokens (
		token_hash       TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL REFERENCES users(id),
		expires_at       TIMESTAMPTZ NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by_ip    TEXT NOT NULL DEFAULT '',
		revoked_at       TIMESTAMPTZ,
		revoked_by_ip    TEXT NOT NULL DEFAULT '',
		replaced_by_hash TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS refresh_tokens_user_idx ON refresh_tokens(user_id) WHERE revoked_at IS NULL;
	CREATE INDEX IF NOT EXISTS refresh_tokens_expires_idx ON refresh_tokens(expires_at);

	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id    TEXT PRIMARY KEY REFERENCES users(id),
		data       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS user_annotations (
		user_id    TEXT NOT NULL REFERENCES users(id),
		study_uid  TEXT NOT NULL,
		data       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, study_uid)
	);`
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

// isUniqueViolation detecta el código 23505 de postgres.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
