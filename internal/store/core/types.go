package core

import "time"

// User es el registro durable de identidad. El hash de password nunca
// sale de este paquete hacia un caller externo sin pasar por la
// sanitización del session manager.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken es el registro server-side de un refresh token. Se guarda
// el sha256 del token presentado, nunca el valor en claro.
type RefreshToken struct {
	TokenHash      string
	UserID         string
	ExpiresAt      time.Time
	CreatedAt      time.Time
	CreatedByIP    string
	RevokedAt      *time.Time
	RevokedByIP    string
	ReplacedByHash string
}

// Active: sin revocar y no expirado. Un registro revocado nunca vuelve
// a activarse.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// Preference es el blob JSON de preferencias de un usuario.
type Preference struct {
	UserID    string
	Data      []byte
	UpdatedAt time.Time
}

// Annotation es el blob JSON de anotaciones de un usuario sobre un study.
type Annotation struct {
	UserID    string
	StudyUID  string
	Data      []byte
	UpdatedAt time.Time
}
