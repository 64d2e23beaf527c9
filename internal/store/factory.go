// Package store expone la fábrica de adapters del storage.
package store

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/authcore/internal/store/core"
	"github.com/dropDatabas3/authcore/internal/store/memory"
	"github.com/dropDatabas3/authcore/internal/store/pg"
)

type Config struct {
	Driver   string // "pg" | "memory"
	DSN      string
	MaxConns int32
}

// Open construye el adapter según el driver configurado. Para pg también
// asegura el schema.
func Open(ctx context.Context, cfg Config) (core.Repository, error) {
	switch cfg.Driver {
	case "pg", "postgres":
		s, err := pg.New(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("store: ensure schema: %w", err)
		}
		return s, nil
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
