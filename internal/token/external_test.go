package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authcore/internal/apperr"
)

type staticResolver struct {
	keys map[string]*rsa.PublicKey
}

func (r *staticResolver) Resolve(_ context.Context, kid string) (*rsa.PublicKey, error) {
	if k, ok := r.keys[kid]; ok {
		return k, nil
	}
	return nil, errors.New("unknown kid")
}

const (
	testIssuer   = "https://idp.example.com/realms/main"
	testClientID = "viewer-app"
)

func signExternal(t *testing.T, priv *rsa.PrivateKey, kid string, claims jwtv5.MapClaims) string {
	t.Helper()
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	if kid != "" {
		tk.Header["kid"] = kid
	}
	signed, err := tk.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func baseClaims() jwtv5.MapClaims {
	return jwtv5.MapClaims{
		"iss":   testIssuer,
		"sub":   "ext-user-9",
		"azp":   testClientID,
		"email": "ext@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func TestExternalVerifyHappyPath(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	resolver := &staticResolver{keys: map[string]*rsa.PublicKey{"k1": &priv.PublicKey}}
	v := NewExternalVerifier(resolver, testIssuer, testClientID, nil)

	raw := signExternal(t, priv, "k1", baseClaims())
	claim, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, "ext-user-9", claim.Subject)
	require.Equal(t, "ext@example.com", claim.Email)
	require.Equal(t, testClientID, claim.AuthorizedParty)
	require.Equal(t, testIssuer, claim.Issuer)
	require.False(t, claim.ExpiresAt.IsZero())

	id, err := v.Authenticate(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, "ext-user-9", id.UserID)
}

func TestExternalVerifyPreferredUsernameFallback(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	resolver := &staticResolver{keys: map[string]*rsa.PublicKey{"k1": &priv.PublicKey}}
	v := NewExternalVerifier(resolver, testIssuer, testClientID, nil)

	claims := baseClaims()
	delete(claims, "email")
	claims["preferred_username"] = "ext-login"

	claim, err := v.Verify(context.Background(), signExternal(t, priv, "k1", claims))
	require.NoError(t, err)
	require.Equal(t, "ext-login", claim.Email)
}

func TestExternalVerifyMissingKid(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	resolver := &staticResolver{keys: map[string]*rsa.PublicKey{"k1": &priv.PublicKey}}
	v := NewExternalVerifier(resolver, testIssuer, testClientID, nil)

	_, err := v.Verify(context.Background(), signExternal(t, priv, "", baseClaims()))
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestExternalVerifyUnknownKid(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	resolver := &staticResolver{keys: map[string]*rsa.PublicKey{"k1": &priv.PublicKey}}
	v := NewExternalVerifier(resolver, testIssuer, testClientID, nil)

	_, err := v.Verify(context.Background(), signExternal(t, priv, "other", baseClaims()))
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestExternalVerifyIssuerMismatch(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	resolver := &staticResolver{keys: map[string]*rsa.PublicKey{"k1": &priv.PublicKey}}
	v := NewExternalVerifier(resolver, testIssuer, testClientID, nil)

	claims := baseClaims()
	claims["iss"] = "https://evil.example.com"
	_, err := v.Verify(context.Background(), signExternal(t, priv, "k1", claims))
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestExternalVerifyAudience(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	resolver := &staticResolver{keys: map[string]*rsa.PublicKey{"k1": &priv.PublicKey}}
	v := NewExternalVerifier(resolver, testIssuer, testClientID, nil)

	// azp que no coincide pierde, aunque aud sí coincida: azp tiene prioridad.
	claims := baseClaims()
	claims["azp"] = "other-app"
	claims["aud"] = testClientID
	_, err := v.Verify(context.Background(), signExternal(t, priv, "k1", claims))
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))

	// Sin azp, aud escalar válido.
	claims = baseClaims()
	delete(claims, "azp")
	claims["aud"] = testClientID
	_, err = v.Verify(context.Background(), signExternal(t, priv, "k1", claims))
	require.NoError(t, err)

	// Sin azp, aud array que contiene el client id.
	claims = baseClaims()
	delete(claims, "azp")
	claims["aud"] = []string{"account", testClientID}
	_, err = v.Verify(context.Background(), signExternal(t, priv, "k1", claims))
	require.NoError(t, err)

	// Sin azp ni aud coincidente.
	claims = baseClaims()
	delete(claims, "azp")
	claims["aud"] = []string{"account"}
	_, err = v.Verify(context.Background(), signExternal(t, priv, "k1", claims))
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestExternalVerifyMissingSub(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	resolver := &staticResolver{keys: map[string]*rsa.PublicKey{"k1": &priv.PublicKey}}
	v := NewExternalVerifier(resolver, testIssuer, testClientID, nil)

	claims := baseClaims()
	delete(claims, "sub")
	_, err := v.Verify(context.Background(), signExternal(t, priv, "k1", claims))
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestExternalVerifyExpired(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	resolver := &staticResolver{keys: map[string]*rsa.PublicKey{"k1": &priv.PublicKey}}
	v := NewExternalVerifier(resolver, testIssuer, testClientID, nil)

	claims := baseClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	_, err := v.Verify(context.Background(), signExternal(t, priv, "k1", claims))
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestExternalVerifyRequiresExp(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	resolver := &staticResolver{keys: map[string]*rsa.PublicKey{"k1": &priv.PublicKey}}
	v := NewExternalVerifier(resolver, testIssuer, testClientID, nil)

	// Sin exp el token no expiraría nunca: se rechaza entero.
	claims := baseClaims()
	delete(claims, "exp")
	_, err := v.Verify(context.Background(), signExternal(t, priv, "k1", claims))
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestExternalVerifyRejectsDisallowedAlg(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	resolver := &staticResolver{keys: map[string]*rsa.PublicKey{"k1": &priv.PublicKey}}
	v := NewExternalVerifier(resolver, testIssuer, testClientID, []string{"RS256"})

	// Token HS256 firmado con cualquier secreto: el allow-list lo frena
	// antes de llegar al keyfunc.
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, baseClaims())
	tk.Header["kid"] = "k1"
	raw, err := tk.SignedString([]byte("whatever"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), raw)
	require.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestExternalVerifierValidate(t *testing.T) {
	require.Error(t, NewExternalVerifier(nil, testIssuer, testClientID, nil).Validate())
	require.Error(t, NewExternalVerifier(&staticResolver{}, "", testClientID, nil).Validate())
	require.Error(t, NewExternalVerifier(&staticResolver{}, testIssuer, "", nil).Validate())
	require.NoError(t, NewExternalVerifier(&staticResolver{}, testIssuer, testClientID, nil).Validate())
}
