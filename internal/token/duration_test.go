package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"12h", 12 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
	}
	for _, c := range cases {
		got, err := ParseTTL(c.in)
		require.NoError(t, err, c.in)
		require.Equal(t, c.want, got, c.in)
	}
}

func TestParseTTLRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "15", "m", "15M", "1.5h", "7w", "-1h", "15 m", "h15"} {
		_, err := ParseTTL(in)
		require.Error(t, err, "input %q", in)
	}
}
