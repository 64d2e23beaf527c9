package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/authcore/internal/app"
	"github.com/dropDatabas3/authcore/internal/config"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
)

var version = "dev"

func main() {
	var (
		cfgPath string
		envFile string
	)

	root := &cobra.Command{
		Use:     "authcore",
		Short:   "Servicio de credenciales: tokens, sesiones y estado de usuario",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env primero: la config lee overrides del entorno.
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			} else {
				_ = godotenv.Load()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("AUTHCORE_CONFIG", ""), "ruta al config.yaml (env AUTHCORE_CONFIG)")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "ruta a un archivo .env opcional")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP, el sweeper y el refresh de JWKS",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       envOr("LOG_LEVEL", "info"),
				ServiceName: "authcore",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()
			return serve(cmd.Context(), cfg)
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Borra refresh tokens expirados una sola vez y termina",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       envOr("LOG_LEVEL", "info"),
				ServiceName: "authcore",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()
			return sweepOnce(cmd.Context(), cfg)
		},
	}

	root.AddCommand(serveCmd, sweepCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.L().Error("command failed", logger.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	log := logger.Named("main")
	log.Info("starting",
		logger.String("addr", cfg.Server.Addr),
		logger.String("storage", cfg.Storage.Driver),
		logger.String("auth_mode", cfg.Auth.Mode),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Server.Run(gctx) })
	g.Go(func() error { return ignoreCanceled(a.Sweeper.Run(gctx)) })
	if a.Resolver != nil {
		g.Go(func() error { return ignoreCanceled(a.Resolver.Run(gctx)) })
	}

	err = g.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func sweepOnce(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Sweeper.SweepOnce(ctx)
	if err != nil {
		return err
	}
	logger.Named("main").Info("sweep finished", logger.Int64("deleted", n))
	return nil
}

func ignoreCanceled(err error) error {
	if err == context.Canceled {
		return nil
	}
	return err
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
