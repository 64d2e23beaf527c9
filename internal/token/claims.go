package token

import (
	"context"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Kind discrimina access de refresh. Un token de un tipo nunca puede
// usarse donde se espera el otro.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims son las claims embebidas en los tokens firmados localmente.
type Claims struct {
	Email string `json:"email"`
	Kind  string `json:"typ"`
	jwtv5.RegisteredClaims
}

// Identity is the normalized result of any successful verification,
// regardless of which trust path produced it.
type Identity struct {
	UserID string
	Email  string
}

// ExternalIdentityClaim carries the fields extracted from an
// externally-issued token. Never persisted.
type ExternalIdentityClaim struct {
	Subject         string
	Email           string
	AuthorizedParty string
	Issuer          string
	ExpiresAt       time.Time
}

// Authenticator valida un bearer token y devuelve la identidad que prueba.
// Hay dos implementaciones (firma local y clave externa); la variante de
// despliegue se elige una sola vez en el arranque.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (Identity, error)
}

// Pair es el par access/refresh que devuelven register/login/refresh.
type Pair struct {
	AccessToken  string
	RefreshToken string
}
