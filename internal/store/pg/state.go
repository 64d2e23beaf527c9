package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authcore/internal/store/core"
)

type stateRepo struct {
	pool *pgxpool.Pool
}

func (r *stateRepo) GetPreferences(ctx context.Context, userID string) (*core.Preference, error) {
	const q = `SELECT user_id, data, updated_at FROM user_preferences WHERE user_id = $1`
	var p core.Preference
	err := r.pool.QueryRow(ctx, q, userID).Scan(&p.UserID, &p.Data, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *stateRepo) UpsertPreferences(ctx context.Context, userID string, data []byte) error {
	const q = `
		INSERT INTO user_preferences (user_id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, userID, data)
	return err
}

func (r *stateRepo) GetAnnotation(ctx context.Context, userID, studyUID string) (*core.Annotation, error) {
	const q = `SELECT user_id, study_uid, data, updated_at FROM user_annotations WHERE user_id = $1 AND study_uid = $2`
	var a core.Annotation
	err := r.pool.QueryRow(ctx, q, userID, studyUID).Scan(&a.UserID, &a.StudyUID, &a.Data, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *stateRepo) UpsertAnnotation(ctx context.Context, userID, studyUID string, data []byte) error {
	const q = `
		INSERT INTO user_annotations (user_id, study_uid, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, study_uid) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, userID, studyUID, data)
	return err
}

func (r *stateRepo) DeleteAnnotation(ctx context.Context, userID, studyUID string) error {
	const q = `DELETE FROM user_annotations WHERE user_id = $1 AND study_uid = $2`
	_, err := r.pool.Exec(ctx, q, userID, studyUID)
	return err
}
