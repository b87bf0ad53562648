package core

import (
	"slices"
	"strings"
)

// ColumnDefinition maps one source field to one SQL column.
type ColumnDefinition struct {
	SourceField string  // Field name on the mapped type
	Name        string  // SQL column name
	Type        SQLType // Column kind, width and nullability
	Order       int     // Declaration order, determines DDL column sequence
	PrimaryKey  bool
	MaxLength   int // Text columns only; 0 means unconstrained
}

// HasMaxLength reports whether a text length constraint is set.
func (c *ColumnDefinition) HasMaxLength() bool {
	return c.MaxLength > 0
}

// TableDefinition is the immutable mapping between a type and a SQL table.
type TableDefinition struct {
	name     string
	typeName string
	columns  []*ColumnDefinition
	bySQL    map[string]*ColumnDefinition
	bySource map[string]*ColumnDefinition
}

// NewTableDefinition validates the columns and builds a definition.
// typeName is the short name of the type stored in the table; it may be
// empty when the table is not bound to a single type.
func NewTableDefinition(name, typeName string, columns ...ColumnDefinition) (*TableDefinition, error) {
	if strings.TrimSpace(name) == "" {
		return nil, New(CodeInvalidDefinition, "table name is required")
	}
	if len(columns) == 0 {
		return nil, Newf(CodeInvalidDefinition, "table %s has no columns", name)
	}

	def := &TableDefinition{
		name:     name,
		typeName: typeName,
		columns:  make([]*ColumnDefinition, 0, len(columns)),
		bySQL:    make(map[string]*ColumnDefinition, len(columns)),
		bySource: make(map[string]*ColumnDefinition, len(columns)),
	}

	var key string
	for i := range columns {
		col := columns[i]
		if col.Name == "" {
			return nil, Newf(CodeInvalidDefinition, "table %s: column %d has no name", name, i)
		}
		if col.SourceField == "" {
			col.SourceField = col.Name
		}
		if err := col.Type.Validate(); err != nil {
			return nil, Wrap(CodeInvalidDefinition, "table "+name+": column "+col.Name, err)
		}
		if _, dup := def.bySQL[col.Name]; dup {
			return nil, Newf(CodeInvalidDefinition, "table %s: duplicate column %s", name, col.Name)
		}
		if _, dup := def.bySource[col.SourceField]; dup {
			return nil, Newf(CodeInvalidDefinition, "table %s: field %s mapped twice", name, col.SourceField)
		}
		if col.PrimaryKey {
			if key != "" {
				return nil, Newf(CodeInvalidDefinition, "table %s: multiple primary keys (%s, %s)", name, key, col.Name)
			}
			if col.Type.Kind != KindInteger {
				return nil, Newf(CodeInvalidDefinition, "table %s: primary key %s must be Integer, got %s", name, col.Name, col.Type.Kind)
			}
			key = col.Name
		}
		if col.MaxLength < 0 {
			return nil, Newf(CodeInvalidDefinition, "table %s: column %s has negative max length", name, col.Name)
		}

		c := &col
		def.columns = append(def.columns, c)
		def.bySQL[c.Name] = c
		def.bySource[c.SourceField] = c
	}

	slices.SortStableFunc(def.columns, func(a, b *ColumnDefinition) int {
		return a.Order - b.Order
	})

	return def, nil
}

// Name returns the SQL table name.
func (t *TableDefinition) Name() string { return t.name }

// TypeName returns the short name of the mapped type, or "".
func (t *TableDefinition) TypeName() string { return t.typeName }

// Len returns the number of columns.
func (t *TableDefinition) Len() int { return len(t.columns) }

// Columns returns the columns in ascending declaration order.
func (t *TableDefinition) Columns() []*ColumnDefinition {
	return slices.Clone(t.columns)
}

// Column looks up a column by SQL name.
func (t *TableDefinition) Column(sqlName string) (*ColumnDefinition, bool) {
	c, ok := t.bySQL[sqlName]
	return c, ok
}

// Field looks up a column by source field name.
func (t *TableDefinition) Field(sourceField string) (*ColumnDefinition, bool) {
	c, ok := t.bySource[sourceField]
	return c, ok
}

// Key returns the primary key column, if any.
func (t *TableDefinition) Key() (*ColumnDefinition, bool) {
	for _, c := range t.columns {
		if c.PrimaryKey {
			return c, true
		}
	}
	return nil, false
}
