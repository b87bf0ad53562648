package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlerm/pkg/ddl"
)

// NewDDLCommand creates the ddl command.
func NewDDLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ddl [table...]",
		Short: "Print CREATE TABLE statements for schema tables",
		Long: `Print the CREATE TABLE statement generated for each table in the schema
file. Without arguments every table is printed, sorted by name.`,
		Example: `  sqlerm ddl --schema tables.yaml
  sqlerm ddl Player`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContextWithoutDB(cmd)
			if err != nil {
				return err
			}
			defs, err := cmdCtx.SelectTables(args)
			if err != nil {
				return err
			}

			for _, def := range defs {
				stmt, err := ddl.CreateTable(def)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), stmt)
			}
			return nil
		},
	}
}
