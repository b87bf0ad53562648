package config

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/sqlerm/pkg/database"
)

type (
	configKey struct{}
	loggerKey struct{}
)

// WithConfig stores cfg in ctx for retrieval by commands.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from the command context, falling back
// to defaults when none was stored.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	cfg := &Config{BusyTimeout: database.DefaultBusyTimeout}
	ApplyDefaults(cfg)
	return cfg
}

// WithLogger stores logger in ctx for retrieval by commands.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
