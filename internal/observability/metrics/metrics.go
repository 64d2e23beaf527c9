// Package metrics registra las métricas prometheus del servicio.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_http_requests_total",
		Help: "Requests HTTP procesados.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authcore_http_request_duration_seconds",
		Help:    "Latencia de requests HTTP.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// ReuseDetected cuenta replays de refresh tokens ya rotados. Es un
	// evento de seguridad, no un error más.
	ReuseDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authcore_refresh_reuse_detected_total",
		Help: "Intentos de reuso de refresh tokens revocados.",
	})

	TokensSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authcore_tokens_swept_total",
		Help: "Refresh tokens expirados eliminados por el sweeper.",
	})

	JWKSFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_jwks_fetches_total",
		Help: "Fetches al endpoint JWKS upstream.",
	}, []string{"outcome"})
)

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
