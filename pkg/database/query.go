package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/leapstack-labs/sqlerm/pkg/core"
	"github.com/leapstack-labs/sqlerm/pkg/marshal"
)

// QueryScalar reads the first column of the first row as a T. found is false
// when the query returns no rows. Additional rows are ignored.
func QueryScalar[T any](ctx context.Context, d *Database, query string, args ...any) (value T, found bool, err error) {
	err = d.guard(func(db *sql.DB) error {
		stmt, err := prepare(ctx, db, query)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		err = stmt.QueryRowContext(ctx, args...).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return core.Wrap(core.CodeQueryExecution, "failed to query scalar", err)
		}
		found = true
		return nil
	})
	return value, found, err
}

// Query runs query and materializes every row into a T using def to read
// the columns. T is the mapped struct type or a pointer to it.
func Query[T any](ctx context.Context, d *Database, def *core.TableDefinition, query string, args ...any) ([]T, error) {
	if def == nil {
		return nil, core.New(core.CodeInvalidDefinition, "nil table definition")
	}

	var out []T
	err := d.guard(func(db *sql.DB) error {
		stmt, err := prepare(ctx, db, query)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		d.logger.Debug("querying", slog.String("table", def.Name()), slog.String("sql", query))
		//nolint:rowserrcheck // rows.Err() is checked by marshal.Collect
		rows, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return core.Wrap(core.CodeQueryExecution, "failed to execute query", err)
		}
		defer func() { _ = rows.Close() }()

		out, err = marshal.Collect[T](rows, def, d.types, d.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryMaps runs query and returns the column names and each row as a
// column name to value map, without any table definition.
func (d *Database) QueryMaps(ctx context.Context, query string, args ...any) ([]string, []map[string]any, error) {
	var (
		cols    []string
		results []map[string]any
	)
	err := d.guard(func(db *sql.DB) error {
		stmt, err := prepare(ctx, db, query)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		rows, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return core.Wrap(core.CodeQueryExecution, "failed to execute query", err)
		}
		defer func() { _ = rows.Close() }()

		cols, err = rows.Columns()
		if err != nil {
			return core.Wrap(core.CodeQueryExecution, "failed to read result columns", err)
		}

		for rows.Next() {
			values := make([]any, len(cols))
			valuePtrs := make([]any, len(cols))
			for i := range values {
				valuePtrs[i] = &values[i]
			}
			if err := rows.Scan(valuePtrs...); err != nil {
				return core.Wrap(core.CodeQueryExecution, "failed to scan row", err)
			}

			row := make(map[string]any, len(cols))
			for i, col := range cols {
				row[col] = values[i]
			}
			results = append(results, row)
		}
		if err := rows.Err(); err != nil {
			return core.Wrap(core.CodeQueryExecution, "error iterating rows", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return cols, results, nil
}
