// Package ddl renders CREATE TABLE statements from table definitions.
//
// Identifiers are interpolated into the statement text as given. Table and
// column names come from trusted metadata, never from user input.
package ddl

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlerm/pkg/core"
)

// CreateTable renders the CREATE TABLE statement for def, one clause per
// column in ascending declaration order.
func CreateTable(def *core.TableDefinition) (string, error) {
	if def == nil {
		return "", core.New(core.CodeInvalidDefinition, "nil table definition")
	}

	cols := def.Columns()
	clauses := make([]string, 0, len(cols))
	for _, col := range cols {
		clause, err := Column(col)
		if err != nil {
			return "", core.Wrap(core.CodeInvalidDefinition, "table "+def.Name(), err)
		}
		clauses = append(clauses, clause)
	}

	return fmt.Sprintf("CREATE TABLE '%s'(%s);", def.Name(), strings.Join(clauses, ",")), nil
}

// Column renders a single column clause, e.g. "deaths INTEGER NOT NULL".
func Column(col *core.ColumnDefinition) (string, error) {
	if err := col.Type.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(col.Name)

	t := col.Type
	switch t.Kind {
	case core.KindInteger:
		if col.PrimaryKey {
			b.WriteString(" INTEGER PRIMARY KEY AUTOINCREMENT")
			return b.String(), nil
		}
		b.WriteString(" INTEGER")
		notNull(&b, t)
	case core.KindUnsignedInteger:
		b.WriteString(" INTEGER")
		notNull(&b, t)
		fmt.Fprintf(&b, " CHECK(%s >= 0)", col.Name)
	case core.KindFloat:
		b.WriteString(" REAL")
		notNull(&b, t)
	case core.KindText:
		if col.HasMaxLength() {
			fmt.Fprintf(&b, " VARCHAR(%d)", col.MaxLength)
		} else {
			b.WriteString(" TEXT")
		}
		notNull(&b, t)
	case core.KindDate, core.KindDateTime:
		b.WriteString(" TEXT")
		notNull(&b, t)
	case core.KindTime:
		b.WriteString(" REAL")
		notNull(&b, t)
	case core.KindBlob:
		b.WriteString(" BLOB")
		notNull(&b, t)
	case core.KindBoolean:
		b.WriteString(" INTEGER")
		notNull(&b, t)
		fmt.Fprintf(&b, " CHECK(%s >= 0 AND %s < 2)", col.Name, col.Name)
	case core.KindOneToOne, core.KindManyToMany:
		return "", core.Newf(core.CodeUnsupportedType, "column %s: %s relationships have no DDL", col.Name, t.Kind)
	default:
		return "", core.Newf(core.CodeUnsupportedType, "column %s: unknown SQL type %s", col.Name, t.Kind)
	}

	return b.String(), nil
}

func notNull(b *strings.Builder, t core.SQLType) {
	if t.NotNull {
		b.WriteString(" NOT NULL")
	}
}
