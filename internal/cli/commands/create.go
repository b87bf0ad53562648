package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create [table...]",
		Short: "Create schema tables in the database",
		Long: `Create each schema table that does not exist yet. Existing tables are
left untouched.`,
		Example: `  sqlerm create --schema tables.yaml --data-source game.sqlite
  sqlerm create Player`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			defs, err := cmdCtx.SelectTables(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			for _, def := range defs {
				exists, err := cmdCtx.DB.TableExists(ctx, def.Name())
				if err != nil {
					return err
				}
				if exists {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exists   %s\n", def.Name())
					continue
				}
				if err := cmdCtx.DB.CreateTable(ctx, def); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created  %s\n", def.Name())
			}
			return nil
		},
	}
}
