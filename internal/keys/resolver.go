// Package keys resuelve claves de verificación para tokens emitidos por un
// identity provider externo, a partir de su endpoint JWKS.
//
// El documento JWKS se cachea con TTL, los fetches concurrentes se coalescen
// (un solo request upstream compartido por todos los waiters) y las llamadas
// al endpoint están limitadas por un fixed-window limiter.
package keys

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/authcore/internal/cache"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
	"github.com/dropDatabas3/authcore/internal/observability/metrics"
	"github.com/dropDatabas3/authcore/internal/rate"
)

const (
	cacheKey     = "jwks"
	limiterKey   = "jwks-fetch"
	maxJWKSBytes = 1 << 20 // 1MB
)

var (
	ErrKeyNotFound = errors.New("keys: no signing key for kid")
	ErrRateLimited = errors.New("keys: jwks fetch rate ceiling reached")
)

type Resolver struct {
	url     string
	ttl     time.Duration
	cache   cache.Cache
	limiter rate.Limiter
	client  *http.Client
	sf      singleflight.Group
}

type ResolverConfig struct {
	// URL del endpoint JWKS (ej: <realm>/protocol/openid-connect/certs).
	URL string

	// CacheTTL define cuánto vive el documento cacheado.
	CacheTTL time.Duration

	Cache   cache.Cache
	Limiter rate.Limiter

	// HTTPClient opcional; default con timeout de 10s.
	HTTPClient *http.Client
}

func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("keys: jwks url is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("keys: cache is required")
	}
	if cfg.Limiter == nil {
		return nil, fmt.Errorf("keys: limiter is required")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Resolver{
		url:     cfg.URL,
		ttl:     cfg.CacheTTL,
		cache:   cfg.Cache,
		limiter: cfg.Limiter,
		client:  client,
	}, nil
}

// Resolve devuelve la clave pública para el kid. Si el documento cacheado
// no lo contiene, refresca una vez desde upstream: un kid desconocido
// después de un fetch fresco es una falla de resolución.
func (r *Resolver) Resolve(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if raw, ok := r.cache.Get(cacheKey); ok {
		key, err := findKey(raw, kid)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrKeyNotFound) {
			return nil, err
		}
	}

	raw, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return findKey(raw, kid)
}

// fetch trae el JWKS de upstream, coalesciendo requests concurrentes y
// respetando el techo de rate.
func (r *Resolver) fetch(ctx context.Context) ([]byte, error) {
	v, err, _ := r.sf.Do(cacheKey, func() (any, error) {
		res, err := r.limiter.Allow(ctx, limiterKey)
		if err != nil {
			return nil, fmt.Errorf("keys: limiter: %w", err)
		}
		if !res.Allowed {
			return nil, ErrRateLimited
		}
		return r.fetchUpstream(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (r *Resolver) fetchUpstream(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		metrics.JWKSFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("keys: fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.JWKSFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("keys: jwks endpoint returned %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
	if err != nil {
		metrics.JWKSFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("keys: read jwks: %w", err)
	}
	metrics.JWKSFetches.WithLabelValues("ok").Inc()
	r.cache.Set(cacheKey, raw, r.ttl)
	return raw, nil
}

// Run refresca el JWKS en background cada TTL hasta que el contexto se
// cancele. Un fetch fallido conserva el documento anterior.
func (r *Resolver) Run(ctx context.Context) error {
	log := logger.Named("keys.resolver")
	ticker := time.NewTicker(r.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.fetch(ctx); err != nil {
				log.Warn("background jwks refresh failed", logger.Err(err))
			}
		}
	}
}
