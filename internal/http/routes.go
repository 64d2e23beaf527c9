// Package http arma el router y el servidor del servicio.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctl "github.com/dropDatabas3/authcore/internal/http/controllers/auth"
	healthctl "github.com/dropDatabas3/authcore/internal/http/controllers/health"
	statectl "github.com/dropDatabas3/authcore/internal/http/controllers/state"
	"github.com/dropDatabas3/authcore/internal/observability/metrics"
	"github.com/dropDatabas3/authcore/internal/token"
)

type RouterDeps struct {
	Auth   *authctl.Controller
	State  *statectl.Controller
	Health *healthctl.Controller

	// Authn decide quién puede pasar por las rutas protegidas.
	Authn token.Authenticator

	CORSAllowedOrigins []string
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(WithRequestID)
	r.Use(WithRecover)
	r.Use(WithLogging)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", deps.Auth.Register)
		r.Post("/login", deps.Auth.Login)
		r.Post("/refresh", deps.Auth.Refresh)
		r.Post("/logout", deps.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(WithAuth(deps.Authn))
			r.Post("/logout-all", deps.Auth.LogoutAll)
			r.Get("/me", deps.Auth.Me)
		})
	})

	r.Route("/api/state", func(r chi.Router) {
		r.Use(WithAuth(deps.Authn))
		r.Get("/preferences", deps.State.GetPreferences)
		r.Put("/preferences", deps.State.PutPreferences)
		r.Route("/annotations/{studyUID}", func(r chi.Router) {
			r.Get("/", deps.State.GetAnnotation)
			r.Put("/", deps.State.PutAnnotation)
			r.Delete("/", deps.State.DeleteAnnotation)
		})
	})

	return WithCORS(r, deps.CORSAllowedOrigins)
}
