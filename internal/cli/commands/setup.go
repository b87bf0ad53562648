// Package commands implements the sqlerm CLI subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlerm/internal/config"
	"github.com/leapstack-labs/sqlerm/pkg/core"
	"github.com/leapstack-labs/sqlerm/pkg/database"
	"github.com/leapstack-labs/sqlerm/pkg/registry"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Registry *registry.Registry
	DB       *database.Database
}

// NewCommandContextWithoutDB loads the table registry from the configured
// schema file, if any, without connecting.
func NewCommandContextWithoutDB(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	reg := registry.New()
	if cfg.Schema != "" {
		if err := reg.LoadSchemaFile(cfg.Schema); err != nil {
			return nil, fmt.Errorf("failed to load schema %s: %w", cfg.Schema, err)
		}
		logger.Debug("loaded schema", slog.String("path", cfg.Schema), slog.Int("tables", len(reg.Tables())))
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Registry: reg,
	}, nil
}

// NewCommandContext creates a CommandContext with an open database.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx, err := NewCommandContextWithoutDB(cmd)
	if err != nil {
		return nil, nil, err
	}

	db := database.New(
		database.WithLogger(cmdCtx.Logger),
		database.WithTypes(cmdCtx.Registry.Types()),
	)
	if err := db.Open(cmd.Context(), cmdCtx.Cfg.Settings()); err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", cmdCtx.Cfg.DataSource, err)
	}
	cmdCtx.DB = db

	cleanup := func() {
		if err := db.Close(); err != nil {
			cmdCtx.Logger.Warn("failed to close database", slog.String("error", err.Error()))
		}
	}
	return cmdCtx, cleanup, nil
}

// SelectTables returns the schema tables named, or all of them when names
// is empty.
func (c *CommandContext) SelectTables(names []string) ([]*core.TableDefinition, error) {
	all := c.Registry.Tables()
	if len(all) == 0 {
		return nil, fmt.Errorf("no tables defined (use --schema or set schema in sqlerm.yaml)")
	}
	if len(names) == 0 {
		return all, nil
	}

	defs := make([]*core.TableDefinition, 0, len(names))
	for _, name := range names {
		def, ok := c.Registry.Table(name)
		if !ok {
			known := make([]string, 0, len(all))
			for _, d := range all {
				known = append(known, d.Name())
			}
			slices.Sort(known)
			return nil, fmt.Errorf("table %q is not defined in the schema (known: %v)", name, known)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
