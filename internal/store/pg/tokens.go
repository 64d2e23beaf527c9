package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authcore/internal/store/core"
)

type tokenRepo struct {
	pool *pgxpool.Pool
}

const tokenColumns = `token_hash, user_id, expires_at, created_at, created_by_ip, revoked_at, revoked_by_ip, replaced_by_hash`

func scanToken(row pgx.Row) (*core.RefreshToken, error) {
	var t core.RefreshToken
	err := row.Scan(
		&t.TokenHash, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.CreatedByIP,
		&t.RevokedAt, &t.RevokedByIP, &t.ReplacedByHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepo) Create(ctx context.Context, t *core.RefreshToken) error {
	const q = `
		INSERT INTO refresh_tokens (token_hash, user_id, expires_at, created_by_ip)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, q, t.TokenHash, t.UserID, t.ExpiresAt, t.CreatedByIP)
	if isUniqueViolation(err) {
		return core.ErrDuplicate
	}
	return err
}

func (r *tokenRepo) Get(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	const q = `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`
	return scanToken(r.pool.QueryRow(ctx, q, tokenHash))
}

// Rotate: revoke condicional del viejo + insert del sucesor, en una
// transacción. Cero filas en el revoke significa que alguien más ya rotó
// (o revocó) ese token: ErrPreconditionFailed, nada queda insertado.
func (r *tokenRepo) Rotate(ctx context.Context, oldHash, revokedByIP string, next *core.RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const revoke = `
		UPDATE refresh_tokens
		   SET revoked_at = NOW(), revoked_by_ip = $2, replaced_by_hash = $3
		 WHERE token_hash = $1 AND revoked_at IS NULL`
	ct, err := tx.Exec(ctx, revoke, oldHash, revokedByIP, next.TokenHash)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrPreconditionFailed
	}

	const insert = `
		INSERT INTO refresh_tokens (token_hash, user_id, expires_at, created_by_ip)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, insert, next.TokenHash, next.UserID, next.ExpiresAt, next.CreatedByIP); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *tokenRepo) Revoke(ctx context.Context, tokenHash, revokedByIP string) (bool, error) {
	const q = `
		UPDATE refresh_tokens
		   SET revoked_at = NOW(), revoked_by_ip = $2
		 WHERE token_hash = $1 AND revoked_at IS NULL`
	ct, err := r.pool.Exec(ctx, q, tokenHash, revokedByIP)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *tokenRepo) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	const q = `
		UPDATE refresh_tokens
		   SET revoked_at = NOW()
		 WHERE user_id = $1 AND revoked_at IS NULL`
	ct, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// DeleteExpired corre desde el sweeper. Es un DELETE por rango indexado;
// no toma locks exclusivos de tabla.
func (r *tokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM refresh_tokens WHERE expires_at < NOW()`
	ct, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
