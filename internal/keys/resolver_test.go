package keys

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cachemem "github.com/dropDatabas3/authcore/internal/cache/memory"
	"github.com/dropDatabas3/authcore/internal/rate"
)

func jwkFor(kid string, pub *rsa.PublicKey) JWK {
	e := big.NewInt(int64(pub.E))
	return JWK{
		KID: kid,
		Kty: "RSA",
		Alg: "RS256",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(e.Bytes()),
	}
}

func jwksServer(t *testing.T, fetches *int64, keys ...JWK) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(fetches, 1)
		_ = json.NewEncoder(w).Encode(JWKS{Keys: keys})
	}))
}

func newTestResolver(t *testing.T, url string, limit int) *Resolver {
	t.Helper()
	r, err := NewResolver(ResolverConfig{
		URL:      url,
		CacheTTL: time.Minute,
		Cache:    cachemem.New(time.Minute),
		Limiter:  rate.NewMemoryLimiter(limit, time.Minute),
	})
	require.NoError(t, err)
	return r
}

func TestResolveFetchesAndCaches(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var fetches int64
	srv := jwksServer(t, &fetches, jwkFor("k1", &priv.PublicKey))
	defer srv.Close()

	r := newTestResolver(t, srv.URL, 10)

	got, err := r.Resolve(context.Background(), "k1")
	require.NoError(t, err)
	require.Equal(t, 0, got.N.Cmp(priv.PublicKey.N))
	require.Equal(t, priv.PublicKey.E, got.E)

	// Segunda resolución: sale del cache, sin fetch nuevo.
	_, err = r.Resolve(context.Background(), "k1")
	require.NoError(t, err)
	require.Equal(t, int64(1), atomic.LoadInt64(&fetches))
}

func TestResolveUnknownKidRefetchesOnce(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)

	var fetches int64
	srv := jwksServer(t, &fetches, jwkFor("k1", &priv.PublicKey))
	defer srv.Close()

	r := newTestResolver(t, srv.URL, 10)

	_, err := r.Resolve(context.Background(), "k1")
	require.NoError(t, err)

	// kid que no existe: refresca una vez y falla igual, sin loop.
	_, err = r.Resolve(context.Background(), "missing")
	require.True(t, errors.Is(err, ErrKeyNotFound))
	require.Equal(t, int64(2), atomic.LoadInt64(&fetches))
}

func TestResolvePicksUpRotatedKey(t *testing.T) {
	privOld, _ := rsa.GenerateKey(rand.Reader, 2048)
	privNew, _ := rsa.GenerateKey(rand.Reader, 2048)

	var fetches int64
	var mu sync.Mutex
	current := []JWK{jwkFor("old", &privOld.PublicKey)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&fetches, 1)
		mu.Lock()
		defer mu.Unlock()
		_ = json.NewEncoder(w).Encode(JWKS{Keys: current})
	}))
	defer srv.Close()

	r := newTestResolver(t, srv.URL, 10)

	_, err := r.Resolve(context.Background(), "old")
	require.NoError(t, err)

	// El proveedor rota la clave: el kid nuevo no está en el documento
	// cacheado, el resolver refetchea y lo encuentra.
	mu.Lock()
	current = []JWK{jwkFor("new", &privNew.PublicKey)}
	mu.Unlock()

	got, err := r.Resolve(context.Background(), "new")
	require.NoError(t, err)
	require.Equal(t, 0, got.N.Cmp(privNew.PublicKey.N))
}

func TestResolveRateCeiling(t *testing.T) {
	var fetches int64
	srv := jwksServer(t, &fetches) // documento vacío: cada Resolve refetchea
	defer srv.Close()

	r := newTestResolver(t, srv.URL, 2)

	for i := 0; i < 2; i++ {
		_, err := r.Resolve(context.Background(), "missing")
		require.True(t, errors.Is(err, ErrKeyNotFound))
	}
	// Tercera: el limiter corta antes de tocar upstream.
	_, err := r.Resolve(context.Background(), "missing")
	require.True(t, errors.Is(err, ErrRateLimited))
	require.Equal(t, int64(2), atomic.LoadInt64(&fetches))
}

func TestResolveUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := newTestResolver(t, srv.URL, 10)
	_, err := r.Resolve(context.Background(), "k1")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrKeyNotFound))
}

func TestFindKeySkipsNonSigningKeys(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	enc := jwkFor("k1", &priv.PublicKey)
	enc.Use = "enc"
	raw, err := json.Marshal(JWKS{Keys: []JWK{enc}})
	require.NoError(t, err)

	_, err = findKey(raw, "k1")
	require.True(t, errors.Is(err, ErrKeyNotFound))
}
