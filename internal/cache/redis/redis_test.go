package redis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeysCarryPrefix(t *testing.T) {
	c := New("localhost:6379", 0, "viewer:")
	require.Equal(t, "viewer:jwks", c.key("jwks"))

	// Sin prefijo configurado: default del servicio.
	c = New("localhost:6379", 0, "")
	require.Equal(t, "authcore:cache:jwks", c.key("jwks"))
}
