package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a query and print the rows",
		Long: `Run a query against the database and print the result rows.

The SQL is taken from the arguments, from --input, or from piped stdin.
Rows are rendered with the global --output format.`,
		Example: `  # Execute SQL directly
  sqlerm query "SELECT * FROM 'Player' WHERE name LIKE 'Timo%'"

  # Read SQL from a file
  sqlerm query --input report.sql

  # Pipe SQL and output as JSON
  echo "SELECT COUNT(*) FROM Player" | sqlerm query -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	sqlQuery, err := resolveSQL(cmd.InOrStdin(), args, opts.Input)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cols, rows, err := cmdCtx.DB.QueryMaps(cmd.Context(), sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return renderResults(cmd.OutOrStdout(), cols, rows, cmdCtx.Cfg.Output)
}

// resolveSQL picks the query text from args, an input file, or piped stdin.
func resolveSQL(stdin io.Reader, args []string, input string) (string, error) {
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case input != "":
		content, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(stdin):
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	}

	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return "", fmt.Errorf("no SQL given (pass it as an argument, with --input, or on stdin)")
	}
	return sqlQuery, nil
}

// isTerminal checks if r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
