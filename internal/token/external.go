package token

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/authcore/internal/apperr"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
)

// KeyResolver mapea un key id a la clave pública de verificación del
// proveedor externo. Implementado por internal/keys.
type KeyResolver interface {
	Resolve(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// ExternalVerifier valida tokens emitidos por un identity provider externo
// contra sus claves publicadas. Cualquier falla (fetch de clave, firma,
// issuer, audience) colapsa a Unauthorized; el motivo solo se loguea.
type ExternalVerifier struct {
	resolver   KeyResolver
	issuer     string
	clientID   string
	algorithms []string
}

func NewExternalVerifier(resolver KeyResolver, issuer, clientID string, algorithms []string) *ExternalVerifier {
	if len(algorithms) == 0 {
		algorithms = []string{"RS256"}
	}
	return &ExternalVerifier{
		resolver:   resolver,
		issuer:     issuer,
		clientID:   clientID,
		algorithms: algorithms,
	}
}

// Verify valida el token y produce la identity claim normalizada.
func (v *ExternalVerifier) Verify(ctx context.Context, raw string) (*ExternalIdentityClaim, error) {
	log := logger.From(ctx).With(logger.Component("token.external"))

	claims := jwtv5.MapClaims{}
	keyfunc := func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("kid missing in token header")
		}
		return v.resolver.Resolve(ctx, kid)
	}

	tk, err := jwtv5.ParseWithClaims(raw, claims, keyfunc,
		jwtv5.WithValidMethods(v.algorithms),
		// Un token sin exp no expira nunca; no se acepta.
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tk.Valid {
		log.Warn("external token verification failed", logger.Err(err))
		return nil, apperr.ErrUnauthorized
	}

	iss, _ := claims["iss"].(string)
	if iss != v.issuer {
		log.Warn("external token issuer mismatch", logger.String("iss", iss))
		return nil, apperr.ErrUnauthorized
	}

	azp, _ := claims["azp"].(string)
	if !v.audienceMatches(azp, claims["aud"]) {
		log.Warn("external token audience mismatch", logger.String("azp", azp))
		return nil, apperr.ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		log.Warn("external token missing sub")
		return nil, apperr.ErrUnauthorized
	}

	email, _ := claims["email"].(string)
	if email == "" {
		email, _ = claims["preferred_username"].(string)
	}

	out := &ExternalIdentityClaim{
		Subject:         sub,
		Email:           email,
		AuthorizedParty: azp,
		Issuer:          iss,
	}
	if expf, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(expf), 0).UTC()
	}
	return out, nil
}

// audienceMatches acepta azp escalar, aud escalar, o pertenencia a un aud
// con forma de array.
func (v *ExternalVerifier) audienceMatches(azp string, aud any) bool {
	if azp != "" {
		return azp == v.clientID
	}
	switch a := aud.(type) {
	case string:
		return a == v.clientID
	case []any:
		for _, item := range a {
			if s, ok := item.(string); ok && s == v.clientID {
				return true
			}
		}
	case []string:
		for _, s := range a {
			if s == v.clientID {
				return true
			}
		}
	}
	return false
}

// Authenticate implementa Authenticator usando el path externo.
func (v *ExternalVerifier) Authenticate(ctx context.Context, raw string) (Identity, error) {
	claim, err := v.Verify(ctx, raw)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claim.Subject, Email: claim.Email}, nil
}

var _ Authenticator = (*ExternalVerifier)(nil)

// Sanity: el resolver es obligatorio en la variante externa.
func (v *ExternalVerifier) Validate() error {
	if v.resolver == nil {
		return fmt.Errorf("external verifier requires a key resolver")
	}
	if v.issuer == "" || v.clientID == "" {
		return fmt.Errorf("external verifier requires issuer and client id")
	}
	return nil
}
