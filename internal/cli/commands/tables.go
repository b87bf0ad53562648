package commands

import (
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the database",
		Long: `List the user tables in the database catalog. When a schema is loaded,
each row also shows whether the table is defined in it, and schema tables
that are missing from the database are listed too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			names, err := cmdCtx.DB.Tables(cmd.Context())
			if err != nil {
				return err
			}

			cols, rows := tableRows(names, cmdCtx)
			return renderResults(cmd.OutOrStdout(), cols, rows, cmdCtx.Cfg.Output)
		},
	}
}

func tableRows(names []string, cmdCtx *CommandContext) ([]string, []map[string]any) {
	defs := cmdCtx.Registry.Tables()
	if len(defs) == 0 {
		rows := make([]map[string]any, 0, len(names))
		for _, name := range names {
			rows = append(rows, map[string]any{"name": name})
		}
		return []string{"name"}, rows
	}

	present := make(map[string]bool, len(names))
	rows := make([]map[string]any, 0, len(names)+len(defs))
	for _, name := range names {
		present[name] = true
		_, defined := cmdCtx.Registry.Table(name)
		rows = append(rows, map[string]any{"name": name, "exists": true, "defined": defined})
	}
	for _, def := range defs {
		if !present[def.Name()] {
			rows = append(rows, map[string]any{"name": def.Name(), "exists": false, "defined": true})
		}
	}
	return []string{"name", "exists", "defined"}, rows
}
