package token

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authcore/internal/apperr"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	i, err := NewIssuer(IssuerConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     "15m",
		RefreshTTL:    "7d",
	})
	require.NoError(t, err)
	return i
}

func TestNewIssuerRejectsBadConfig(t *testing.T) {
	_, err := NewIssuer(IssuerConfig{AccessSecret: "", RefreshSecret: "r", AccessTTL: "15m", RefreshTTL: "7d"})
	require.Error(t, err)

	_, err = NewIssuer(IssuerConfig{AccessSecret: "same", RefreshSecret: "same", AccessTTL: "15m", RefreshTTL: "7d"})
	require.Error(t, err, "shared secret between token types must be rejected")

	_, err = NewIssuer(IssuerConfig{AccessSecret: "a", RefreshSecret: "r", AccessTTL: "bogus", RefreshTTL: "7d"})
	require.Error(t, err)
}

func TestMintAndVerifyRoundTrip(t *testing.T) {
	iss := newTestIssuer(t)
	v := NewVerifier("access-secret-for-tests", "refresh-secret-for-tests")

	pair, err := iss.MintPair("user-1", "ana@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	ac, err := v.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", ac.Subject)
	require.Equal(t, "ana@example.com", ac.Email)
	require.Equal(t, KindAccess, ac.Kind)

	rc, err := v.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", rc.Subject)
	require.Equal(t, KindRefresh, rc.Kind)
}

func TestCrossTypeUseIsRejected(t *testing.T) {
	iss := newTestIssuer(t)
	v := NewVerifier("access-secret-for-tests", "refresh-secret-for-tests")

	pair, err := iss.MintPair("user-1", "ana@example.com")
	require.NoError(t, err)

	_, err = v.VerifyAccess(pair.RefreshToken)
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = v.VerifyRefresh(pair.AccessToken)
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestExpiredTokenIsRejected(t *testing.T) {
	iss := newTestIssuer(t)
	iss.now = func() time.Time { return time.Now().Add(-24 * time.Hour) }
	v := NewVerifier("access-secret-for-tests", "refresh-secret-for-tests")

	pair, err := iss.MintPair("user-1", "ana@example.com")
	require.NoError(t, err)

	_, err = v.VerifyAccess(pair.AccessToken)
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestWrongSecretIsRejected(t *testing.T) {
	iss := newTestIssuer(t)
	v := NewVerifier("another-access-secret", "another-refresh-secret")

	pair, err := iss.MintPair("user-1", "ana@example.com")
	require.NoError(t, err)

	_, err = v.VerifyAccess(pair.AccessToken)
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestGarbageTokenIsRejected(t *testing.T) {
	v := NewVerifier("a", "r")
	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := v.VerifyAccess(raw)
		require.True(t, errors.Is(err, apperr.ErrUnauthorized), "input %q", raw)
	}
}

func TestRefreshExpiryTracksTTL(t *testing.T) {
	iss := newTestIssuer(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return fixed }

	require.Equal(t, fixed.Add(7*24*time.Hour), iss.RefreshExpiry())
	require.Equal(t, 7*24*time.Hour, iss.RefreshCookieTTL())
}
