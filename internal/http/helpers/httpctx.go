package helpers

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dropDatabas3/authcore/internal/token"
)

type identityKey struct{}

// IdentityToContext guarda la identidad autenticada del request.
func IdentityToContext(ctx context.Context, id token.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extrae la identidad puesta por el middleware de auth.
func IdentityFrom(ctx context.Context) (token.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(token.Identity)
	return id, ok
}

// ClientIP resuelve la IP del cliente, respetando X-Forwarded-For si el
// servicio corre detrás de un proxy.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// BearerToken extrae el token del header Authorization. Devuelve "" si el
// header falta o no es Bearer.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
