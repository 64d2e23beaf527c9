package core

import "context"

// Repository agrupa los repos del storage. Contrato puro, sin lógica de
// negocio: el session manager es el único que decide qué significa cada
// operación.
type Repository interface {
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository
	State() StateRepository

	// Ping verifica que el backend esté accesible (readiness).
	Ping(ctx context.Context) error
	Close()
}

type UserRepository interface {
	// Create inserta el usuario. ErrDuplicate si el email ya existe.
	Create(ctx context.Context, u *User) error

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)

	// TouchLastLogin actualiza last_login_at al instante actual.
	TouchLastLogin(ctx context.Context, id string) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, t *RefreshToken) error

	// Get busca por token hash. ErrNotFound si no existe.
	Get(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Rotate revoca el token viejo y persiste el sucesor en una sola
	// transacción. El revoke es condicional (`revoked_at IS NULL`); cero
	// filas afectadas devuelve ErrPreconditionFailed sin insertar nada,
	// para que dos refresh concurrentes no puedan forkear la familia.
	Rotate(ctx context.Context, oldHash, revokedByIP string, next *RefreshToken) error

	// Revoke marca el token como revocado si todavía estaba activo.
	// Devuelve false si no había nada que revocar (ausente o ya revocado).
	Revoke(ctx context.Context, tokenHash, revokedByIP string) (bool, error)

	// RevokeAllForUser revoca todos los tokens activos del usuario.
	// Devuelve cuántos revocó.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)

	// DeleteExpired borra registros con expires_at en el pasado.
	// Corre desde el sweeper, nunca en el camino de un request.
	DeleteExpired(ctx context.Context) (int64, error)
}

type StateRepository interface {
	GetPreferences(ctx context.Context, userID string) (*Preference, error)
	UpsertPreferences(ctx context.Context, userID string, data []byte) error

	GetAnnotation(ctx context.Context, userID, studyUID string) (*Annotation, error)
	UpsertAnnotation(ctx context.Context, userID, studyUID string, data []byte) error
	DeleteAnnotation(ctx context.Context, userID, studyUID string) error
}
