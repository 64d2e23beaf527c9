package session

import (
	"time"

	"github.com/dropDatabas3/authcore/internal/store/core"
)

// Profile es la proyección de un User que puede cruzar el trust boundary.
type Profile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// sanitize es el ÚNICO lugar donde un core.User se convierte en algo que
// sale hacia un caller. El password hash no tiene campo acá.
func sanitize(u *core.User) Profile {
	return Profile{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
