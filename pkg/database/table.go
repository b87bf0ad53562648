package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/leapstack-labs/sqlerm/pkg/core"
	"github.com/leapstack-labs/sqlerm/pkg/ddl"
	"github.com/leapstack-labs/sqlerm/pkg/marshal"
	"github.com/leapstack-labs/sqlerm/pkg/registry"
)

// TableExists reports whether the catalog has a table named name.
func (d *Database) TableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := d.guard(func(db *sql.DB) error {
		var err error
		exists, err = tableExists(ctx, db, name)
		return err
	})
	return exists, err
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	stmt, err := prepare(ctx, db, "SELECT COUNT(*) AS Tables FROM sqlite_master WHERE type='table' AND name=?;")
	if err != nil {
		return false, err
	}
	defer func() { _ = stmt.Close() }()

	var count int64
	if err := stmt.QueryRowContext(ctx, name).Scan(&count); err != nil {
		return false, core.Wrap(core.CodeQueryExecution, "failed to query table catalog", err)
	}
	return count > 0, nil
}

// Tables lists the user tables in the catalog, sorted by name.
func (d *Database) Tables(ctx context.Context) ([]string, error) {
	var names []string
	err := d.guard(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name;")
		if err != nil {
			return core.Wrap(core.CodeQueryExecution, "failed to list tables", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return core.Wrap(core.CodeQueryExecution, "failed to scan table name", err)
			}
			names = append(names, name)
		}
		if err := rows.Err(); err != nil {
			return core.Wrap(core.CodeQueryExecution, "error iterating tables", err)
		}
		return nil
	})
	return names, err
}

// CreateTable issues the DDL for def unless a table with its name exists.
// The check and the statement run under one guard acquisition.
func (d *Database) CreateTable(ctx context.Context, def *core.TableDefinition) error {
	if def == nil {
		return core.New(core.CodeInvalidDefinition, "nil table definition")
	}
	stmt, err := ddl.CreateTable(def)
	if err != nil {
		return err
	}

	return d.guard(func(db *sql.DB) error {
		exists, err := tableExists(ctx, db, def.Name())
		if err != nil {
			return err
		}
		if exists {
			d.logger.Info("table already exists", slog.String("table", def.Name()))
			return nil
		}

		if _, err := d.exec(ctx, db, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", def.Name(), err)
		}
		d.logger.Debug("created table", slog.String("table", def.Name()))
		return nil
	})
}

// Insert writes instance as one row of def. Primary key columns are left to
// the engine. Every non-key column is bound through a ValueWrapper from
// types, or the Database's own registry when types is nil, and checked
// against the column's SQL type before anything is sent. It returns the
// number of affected rows.
func (d *Database) Insert(ctx context.Context, def *core.TableDefinition, instance any, types *registry.Types) (int64, error) {
	if def == nil {
		return 0, core.New(core.CodeInvalidDefinition, "nil table definition")
	}
	if types == nil {
		types = d.types
	}
	if instance == nil {
		return 0, core.New(core.CodeTypeMismatch, "cannot insert a nil instance")
	}

	info, err := types.Of(reflect.TypeOf(instance))
	if err != nil {
		return 0, err
	}
	if tn := def.TypeName(); tn != "" && tn != info.Name {
		return 0, core.Newf(core.CodeTypeMismatch, "table %s stores %s, not %s", def.Name(), tn, info.Name)
	}

	var (
		names []string
		marks []string
		args  []any
	)
	for _, col := range def.Columns() {
		if col.PrimaryKey {
			continue
		}
		w, err := marshal.Wrap(instance, col.SourceField, types)
		if err != nil {
			return 0, err
		}
		v, err := w.ValueFor(col)
		if err != nil {
			return 0, err
		}
		names = append(names, col.Name)
		marks = append(marks, "?")
		args = append(args, v)
	}

	query := fmt.Sprintf("INSERT INTO '%s' DEFAULT VALUES;", def.Name())
	if len(names) > 0 {
		query = fmt.Sprintf("INSERT INTO '%s' (%s) VALUES (%s);",
			def.Name(), strings.Join(names, ", "), strings.Join(marks, ", "))
	}

	return d.Execute(ctx, query, args...)
}
