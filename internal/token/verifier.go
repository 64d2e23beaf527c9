package token

import (
	"context"
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/authcore/internal/apperr"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
)

// Verifier valida tokens firmados localmente (HS256, secreto simétrico).
// Todas las fallas colapsan a Unauthorized hacia el caller; la causa real
// (firma, formato, expiración, typ) solo queda en logs.
type Verifier struct {
	accessSecret  []byte
	refreshSecret []byte
}

func NewVerifier(accessSecret, refreshSecret string) *Verifier {
	return &Verifier{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// VerifyAccess valida firma, expiración y typ=access.
func (v *Verifier) VerifyAccess(raw string) (*Claims, error) {
	return v.verify(raw, KindAccess, v.accessSecret)
}

// VerifyRefresh valida firma, expiración y typ=refresh.
func (v *Verifier) VerifyRefresh(raw string) (*Claims, error) {
	return v.verify(raw, KindRefresh, v.refreshSecret)
}

func (v *Verifier) verify(raw, kind string, secret []byte) (*Claims, error) {
	log := logger.Named("token.verifier")

	claims := &Claims{}
	tk, err := jwtv5.ParseWithClaims(raw, claims,
		func(t *jwtv5.Token) (any, error) { return secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !tk.Valid {
		// Distinguible en diagnóstico, nunca en la respuesta.
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			log.Debug("token expired", logger.String("kind", kind))
		} else {
			log.Debug("token invalid", logger.String("kind", kind), logger.Err(err))
		}
		return nil, apperr.ErrUnauthorized
	}
	if claims.Kind != kind {
		log.Warn("token type mismatch",
			logger.String("want", kind), logger.String("got", claims.Kind))
		return nil, apperr.ErrUnauthorized
	}
	return claims, nil
}

// LocalAuthenticator adapta VerifyAccess a la interfaz Authenticator usada
// por el middleware HTTP.
type LocalAuthenticator struct {
	Verifier *Verifier
}

func (a LocalAuthenticator) Authenticate(_ context.Context, raw string) (Identity, error) {
	claims, err := a.Verifier.VerifyAccess(raw)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.Subject, Email: claims.Email}, nil
}
