// Package auth define los contratos JSON de los endpoints de credenciales.
package auth

import "github.com/dropDatabas3/authcore/internal/session"

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse se devuelve en register y login. El refresh token NUNCA
// viaja en el body: va en el cookie httpOnly.
type AuthResponse struct {
	User        session.Profile `json:"user"`
	AccessToken string          `json:"accessToken"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type ProfileResponse struct {
	User session.Profile `json:"user"`
}
