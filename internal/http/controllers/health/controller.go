// Package health expone liveness y readiness.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/authcore/internal/http/helpers"
)

// Pinger es lo mínimo que health necesita del storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Controller struct {
	pinger Pinger
}

func NewController(pinger Pinger) *Controller {
	return &Controller{pinger: pinger}
}

func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	if c.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := c.pinger.Ping(ctx); err != nil {
			helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
