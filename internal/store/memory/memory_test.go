package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authcore/internal/store/core"
)

var ctx = context.Background()

func seedUser(t *testing.T, s *Store, id, email string) {
	t.Helper()
	err := s.Users().Create(ctx, &core.User{ID: id, Email: email, PasswordHash: "phc"})
	require.NoError(t, err)
}

func TestUserCreateAndGet(t *testing.T) {
	s := New()
	seedUser(t, s, "u1", "ana@example.com")

	u, err := s.Users().GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.False(t, u.CreatedAt.IsZero())

	u, err = s.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", u.Email)

	_, err = s.Users().GetByEmail(ctx, "nadie@example.com")
	require.True(t, errors.Is(err, core.ErrNotFound))
}

func TestUserDuplicateEmail(t *testing.T) {
	s := New()
	seedUser(t, s, "u1", "ana@example.com")
	err := s.Users().Create(ctx, &core.User{ID: "u2", Email: "ana@example.com"})
	require.True(t, errors.Is(err, core.ErrDuplicate))
}

func TestTouchLastLogin(t *testing.T) {
	s := New()
	seedUser(t, s, "u1", "ana@example.com")

	require.NoError(t, s.Users().TouchLastLogin(ctx, "u1"))
	u, err := s.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.LastLoginAt)

	require.True(t, errors.Is(s.Users().TouchLastLogin(ctx, "ghost"), core.ErrNotFound))
}

func token(hash, user string, exp time.Time) *core.RefreshToken {
	return &core.RefreshToken{TokenHash: hash, UserID: user, ExpiresAt: exp}
}

func TestRotateRevokesOldAndInsertsNext(t *testing.T) {
	s := New()
	exp := time.Now().Add(time.Hour)
	require.NoError(t, s.RefreshTokens().Create(ctx, token("h1", "u1", exp)))

	err := s.RefreshTokens().Rotate(ctx, "h1", "10.0.0.1", token("h2", "u1", exp))
	require.NoError(t, err)

	old, err := s.RefreshTokens().Get(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, old.RevokedAt)
	require.Equal(t, "h2", old.ReplacedByHash)
	require.Equal(t, "10.0.0.1", old.RevokedByIP)

	next, err := s.RefreshTokens().Get(ctx, "h2")
	require.NoError(t, err)
	require.Nil(t, next.RevokedAt)
	require.True(t, next.Active(time.Now()))
}

func TestRotateOfRevokedTokenFailsPrecondition(t *testing.T) {
	s := New()
	exp := time.Now().Add(time.Hour)
	require.NoError(t, s.RefreshTokens().Create(ctx, token("h1", "u1", exp)))
	require.NoError(t, s.RefreshTokens().Rotate(ctx, "h1", "", token("h2", "u1", exp)))

	// Segunda rotación del mismo hash: la precondición (no revocado) falla
	// y el sucesor NO se inserta.
	err := s.RefreshTokens().Rotate(ctx, "h1", "", token("h3", "u1", exp))
	require.True(t, errors.Is(err, core.ErrPreconditionFailed))

	_, err = s.RefreshTokens().Get(ctx, "h3")
	require.True(t, errors.Is(err, core.ErrNotFound))
}

func TestRotateMissingTokenFailsPrecondition(t *testing.T) {
	s := New()
	err := s.RefreshTokens().Rotate(ctx, "ghost", "", token("h2", "u1", time.Now().Add(time.Hour)))
	require.True(t, errors.Is(err, core.ErrPreconditionFailed))
}

func TestRevokeIsConditional(t *testing.T) {
	s := New()
	require.NoError(t, s.RefreshTokens().Create(ctx, token("h1", "u1", time.Now().Add(time.Hour))))

	revoked, err := s.RefreshTokens().Revoke(ctx, "h1", "10.0.0.9")
	require.NoError(t, err)
	require.True(t, revoked)

	// Ya revocado y ausente devuelven false sin error.
	revoked, err = s.RefreshTokens().Revoke(ctx, "h1", "")
	require.NoError(t, err)
	require.False(t, revoked)

	revoked, err = s.RefreshTokens().Revoke(ctx, "ghost", "")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokeAllForUser(t *testing.T) {
	s := New()
	exp := time.Now().Add(time.Hour)
	require.NoError(t, s.RefreshTokens().Create(ctx, token("h1", "u1", exp)))
	require.NoError(t, s.RefreshTokens().Create(ctx, token("h2", "u1", exp)))
	require.NoError(t, s.RefreshTokens().Create(ctx, token("h3", "other", exp)))
	_, err := s.RefreshTokens().Revoke(ctx, "h2", "")
	require.NoError(t, err)

	n, err := s.RefreshTokens().RevokeAllForUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(1), n, "only tokens still active count")

	other, err := s.RefreshTokens().Get(ctx, "h3")
	require.NoError(t, err)
	require.Nil(t, other.RevokedAt, "other users are untouched")
}

func TestDeleteExpired(t *testing.T) {
	s := New()
	now := time.Now()
	require.NoError(t, s.RefreshTokens().Create(ctx, token("live", "u1", now.Add(time.Hour))))
	require.NoError(t, s.RefreshTokens().Create(ctx, token("dead", "u1", now.Add(-time.Hour))))

	n, err := s.RefreshTokens().DeleteExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = s.RefreshTokens().Get(ctx, "dead")
	require.True(t, errors.Is(err, core.ErrNotFound))
	_, err = s.RefreshTokens().Get(ctx, "live")
	require.NoError(t, err)
}

func TestActiveRespectsClock(t *testing.T) {
	now := time.Now()
	tk := token("h", "u", now.Add(time.Minute))
	require.True(t, tk.Active(now))
	require.False(t, tk.Active(now.Add(2*time.Minute)), "expired record is inactive even if never revoked")
}

func TestStateRoundTrip(t *testing.T) {
	s := New()

	_, err := s.State().GetPreferences(ctx, "u1")
	require.True(t, errors.Is(err, core.ErrNotFound))

	require.NoError(t, s.State().UpsertPreferences(ctx, "u1", []byte(`{"theme":"dark"}`)))
	p, err := s.State().GetPreferences(ctx, "u1")
	require.NoError(t, err)
	require.JSONEq(t, `{"theme":"dark"}`, string(p.Data))

	require.NoError(t, s.State().UpsertAnnotation(ctx, "u1", "study-9", []byte(`{"roi":[1,2]}`)))
	a, err := s.State().GetAnnotation(ctx, "u1", "study-9")
	require.NoError(t, err)
	require.Equal(t, "study-9", a.StudyUID)

	// Upsert pisa el valor anterior.
	require.NoError(t, s.State().UpsertAnnotation(ctx, "u1", "study-9", []byte(`{"roi":[3]}`)))
	a, err = s.State().GetAnnotation(ctx, "u1", "study-9")
	require.NoError(t, err)
	require.JSONEq(t, `{"roi":[3]}`, string(a.Data))

	require.NoError(t, s.State().DeleteAnnotation(ctx, "u1", "study-9"))
	_, err = s.State().GetAnnotation(ctx, "u1", "study-9")
	require.True(t, errors.Is(err, core.ErrNotFound))

	// Aislamiento entre usuarios.
	_, err = s.State().GetPreferences(ctx, "u2")
	require.True(t, errors.Is(err, core.ErrNotFound))
}
