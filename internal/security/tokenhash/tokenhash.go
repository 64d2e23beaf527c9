// Package tokenhash deriva el identificador persistible de un token.
package tokenhash

import (
	"crypto/sha256"
	"encoding/base64"
)

// Sum devuelve sha256(token) en base64url sin padding. Es lo único que se
// guarda en DB: el valor en claro nunca se persiste.
func Sum(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
