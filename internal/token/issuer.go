package token

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Issuer firma pares de tokens con HS256. Access y refresh usan secretos
// distintos y TTLs distintos (access en minutos, refresh en días).
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// IssuerConfig agrupa lo que el Issuer necesita de la configuración.
// Los TTL llegan ya como strings "<int><unit>" y se validan acá, en el
// arranque.
type IssuerConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     string
	RefreshTTL    string
}

func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("jwt secrets must be configured")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must be distinct")
	}
	accessTTL, err := ParseTTL(cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("access ttl: %w", err)
	}
	refreshTTL, err := ParseTTL(cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("refresh ttl: %w", err)
	}
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// MintPair emite un access y un refresh token independientes para el usuario.
func (i *Issuer) MintPair(userID, email string) (Pair, error) {
	access, err := i.sign(userID, email, KindAccess, i.accessTTL, i.accessSecret)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(userID, email, KindRefresh, i.refreshTTL, i.refreshSecret)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshExpiry devuelve el expiry absoluto para el registro persistido
// del refresh token.
func (i *Issuer) RefreshExpiry() time.Time {
	return i.now().Add(i.refreshTTL).UTC()
}

// RefreshCookieTTL es el TTL que la capa HTTP usa para la cookie.
func (i *Issuer) RefreshCookieTTL() time.Duration {
	return i.refreshTTL
}

func (i *Issuer) sign(userID, email, kind string, ttl time.Duration, secret []byte) (string, error) {
	now := i.now().UTC()
	claims := Claims{
		Email: email,
		Kind:  kind,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}
