// Package app es el composition root: construye todo una sola vez a
// partir de la config y lo entrega cableado.
package app

import (
	"context"
	"fmt"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/authcore/internal/cache"
	cachemem "github.com/dropDatabas3/authcore/internal/cache/memory"
	cachered "github.com/dropDatabas3/authcore/internal/cache/redis"
	"github.com/dropDatabas3/authcore/internal/config"
	httpx "github.com/dropDatabas3/authcore/internal/http"
	authctl "github.com/dropDatabas3/authcore/internal/http/controllers/auth"
	healthctl "github.com/dropDatabas3/authcore/internal/http/controllers/health"
	statectl "github.com/dropDatabas3/authcore/internal/http/controllers/state"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
	"github.com/dropDatabas3/authcore/internal/keys"
	"github.com/dropDatabas3/authcore/internal/rate"
	"github.com/dropDatabas3/authcore/internal/security/password"
	"github.com/dropDatabas3/authcore/internal/session"
	"github.com/dropDatabas3/authcore/internal/state"
	"github.com/dropDatabas3/authcore/internal/store"
	"github.com/dropDatabas3/authcore/internal/store/core"
	"github.com/dropDatabas3/authcore/internal/token"
)

// App agrupa las piezas vivas del servicio.
type App struct {
	Config   *config.Config
	Repo     core.Repository
	Sessions *session.Service
	Sweeper  *session.Sweeper
	Server   *httpx.Server

	// Resolver es nil en modo local.
	Resolver *keys.Resolver
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	repo, err := store.Open(ctx, store.Config{
		Driver:   cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		MaxConns: int32(cfg.Storage.MaxConns),
	})
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	issuer, err := token.NewIssuer(token.IssuerConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})
	if err != nil {
		repo.Close()
		return nil, err
	}
	verifier := token.NewVerifier(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)

	sessions := session.New(session.Deps{
		Repo:     repo,
		Issuer:   issuer,
		Verifier: verifier,
		HashParams: password.Params{
			Memory:      cfg.Security.Argon2.MemoryKB,
			Time:        cfg.Security.Argon2.Time,
			Parallelism: cfg.Security.Argon2.Parallelism,
			KeyLen:      32,
		},
		Policy: password.Policy{
			MinLength:     cfg.Security.PasswordPolicy.MinLength,
			RequireUpper:  cfg.Security.PasswordPolicy.RequireUpper,
			RequireLower:  cfg.Security.PasswordPolicy.RequireLower,
			RequireDigit:  cfg.Security.PasswordPolicy.RequireDigit,
			RequireSymbol: cfg.Security.PasswordPolicy.RequireSymbol,
		},
	})

	authn, resolver, err := buildAuthenticator(cfg, verifier)
	if err != nil {
		repo.Close()
		return nil, err
	}

	authController := authctl.NewController(sessions, issuer, helpers.CookieConfig{
		Name:     cfg.Auth.Cookie.Name,
		Domain:   cfg.Auth.Cookie.Domain,
		Path:     cfg.Auth.Cookie.Path,
		SameSite: cfg.Auth.Cookie.SameSite,
		Secure:   cfg.Auth.Cookie.Secure,
	})
	stateController := statectl.NewController(state.New(repo))
	healthController := healthctl.NewController(repo)

	router := httpx.NewRouter(httpx.RouterDeps{
		Auth:               authController,
		State:              stateController,
		Health:             healthController,
		Authn:              authn,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	server := httpx.NewServer(httpx.ServerConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     config.MustDuration(cfg.Server.ReadTimeout),
		WriteTimeout:    config.MustDuration(cfg.Server.WriteTimeout),
		ShutdownTimeout: config.MustDuration(cfg.Server.ShutdownTimeout),
	}, router)

	return &App{
		Config:   cfg,
		Repo:     repo,
		Sessions: sessions,
		Sweeper: &session.Sweeper{
			Repo:     repo,
			Interval: config.MustDuration(cfg.Sweep.Interval),
		},
		Server:   server,
		Resolver: resolver,
	}, nil
}

// buildAuthenticator elige quién valida access tokens entrantes según el
// modo: los secrets locales o el identity provider externo vía JWKS.
func buildAuthenticator(cfg *config.Config, verifier *token.Verifier) (token.Authenticator, *keys.Resolver, error) {
	if cfg.Auth.Mode == "local" {
		return token.LocalAuthenticator{Verifier: verifier}, nil, nil
	}

	var c cache.Cache
	var limiter rate.Limiter
	fetchWindow := config.MustDuration(cfg.Auth.External.FetchWindow)
	switch cfg.Cache.Kind {
	case "redis":
		c = cachered.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		client := rdb.NewClient(&rdb.Options{Addr: cfg.Cache.Redis.Addr, DB: cfg.Cache.Redis.DB})
		limiter = rate.NewRedisLimiter(client, cfg.Cache.Redis.Prefix, cfg.Auth.External.FetchLimit, fetchWindow)
	default:
		c = cachemem.New(config.MustDuration(cfg.Cache.Memory.DefaultTTL))
		limiter = rate.NewMemoryLimiter(cfg.Auth.External.FetchLimit, fetchWindow)
	}

	resolver, err := keys.NewResolver(keys.ResolverConfig{
		URL:      cfg.Auth.External.JWKSURL,
		CacheTTL: config.MustDuration(cfg.Auth.External.JWKSCacheTTL),
		Cache:    c,
		Limiter:  limiter,
	})
	if err != nil {
		return nil, nil, err
	}

	ext := token.NewExternalVerifier(resolver, cfg.Auth.External.Issuer, cfg.Auth.External.ClientID, cfg.Auth.External.Algorithms)
	if err := ext.Validate(); err != nil {
		return nil, nil, err
	}
	return ext, resolver, nil
}

func (a *App) Close() {
	a.Repo.Close()
}
