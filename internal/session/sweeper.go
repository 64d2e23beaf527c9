package session

import (
	"context"
	"time"

	"github.com/dropDatabas3/authcore/internal/observability/logger"
	"github.com/dropDatabas3/authcore/internal/observability/metrics"
	"github.com/dropDatabas3/authcore/internal/store/core"
)

// Sweeper borra refresh tokens expirados en un timer propio, fuera de la
// latencia de los requests.
type Sweeper struct {
	Repo     core.Repository
	Interval time.Duration
}

func (s *Sweeper) Run(ctx context.Context) error {
	log := logger.Named("session.sweeper")
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := s.Repo.RefreshTokens().DeleteExpired(ctx)
			if err != nil {
				log.Error("expiry sweep failed", logger.Err(err))
				continue
			}
			if n > 0 {
				metrics.TokensSwept.Add(float64(n))
				log.Info("expired refresh tokens deleted", logger.Int64("count", n))
			}
		}
	}
}

// SweepOnce corre una pasada única (comando `authcore sweep`).
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	return s.Repo.RefreshTokens().DeleteExpired(ctx)
}
