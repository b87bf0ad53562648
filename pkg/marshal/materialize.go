package marshal

import (
	"database/sql"
	"log/slog"
	"reflect"

	"github.com/leapstack-labs/sqlerm/pkg/core"
	"github.com/leapstack-labs/sqlerm/pkg/registry"
)

// Rows is the subset of *sql.Rows the materializer reads from.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// Materializer turns result rows into instances of one registered type.
// Each result column is read at the width and nullability its column
// definition declares, staged under the field name and applied onto a zero
// instance.
type Materializer struct {
	info  *registry.TypeInfo
	slots []slot
	dests []any
}

type slot struct {
	field string
	read  func() (any, error) // nil for unmapped columns
}

// NewMaterializer prepares scan destinations for the given result columns.
// Columns without a definition are read and discarded with a warning.
func NewMaterializer(def *core.TableDefinition, info *registry.TypeInfo, columns []string, logger *slog.Logger) (*Materializer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := &Materializer{
		info:  info,
		slots: make([]slot, len(columns)),
		dests: make([]any, len(columns)),
	}

	for i, name := range columns {
		col, ok := def.Column(name)
		if !ok {
			logger.Warn("could not map column", slog.String("table", def.Name()), slog.String("column", name))
			m.dests[i] = new(any)
			continue
		}

		field, ok := info.Field(col.SourceField)
		if !ok {
			return nil, core.Newf(core.CodeTypeMismatch, "type %s has no field %s for column %s", info.Name, col.SourceField, col.Name)
		}

		dest, read, err := newReader(col, field.Type)
		if err != nil {
			return nil, err
		}
		m.slots[i] = slot{field: field.Name, read: read}
		m.dests[i] = dest
	}

	return m, nil
}

// Destinations returns the pointers to pass to Rows.Scan.
func (m *Materializer) Destinations() []any {
	return m.dests
}

// Materialize builds an instance from the most recently scanned row.
// The returned value is addressable.
func (m *Materializer) Materialize() (reflect.Value, error) {
	staged := make(map[string]any, len(m.slots))
	for _, s := range m.slots {
		if s.read == nil {
			continue
		}
		v, err := s.read()
		if err != nil {
			return reflect.Value{}, err
		}
		staged[s.field] = v
	}

	inst := m.info.New()
	if err := m.info.Apply(inst, staged); err != nil {
		return reflect.Value{}, err
	}
	return inst, nil
}

// Collect materializes every remaining row into a []T. T is the registered
// struct type or a pointer to it.
func Collect[T any](rows Rows, def *core.TableDefinition, types *registry.Types, logger *slog.Logger) ([]T, error) {
	target := reflect.TypeFor[T]()
	if target.Kind() == reflect.Pointer && target.Elem().Kind() != reflect.Struct {
		return nil, core.Newf(core.CodeUnsupportedType, "cannot materialize into %s", target)
	}
	info, err := types.Of(target)
	if err != nil {
		return nil, err
	}

	columns, err := rows.Columns()
	if err != nil {
		return nil, core.Wrap(core.CodeQueryExecution, "failed to read result columns", err)
	}

	m, err := NewMaterializer(def, info, columns, logger)
	if err != nil {
		return nil, err
	}

	var out []T
	for rows.Next() {
		if err := rows.Scan(m.Destinations()...); err != nil {
			return nil, core.Wrap(core.CodeQueryExecution, "failed to scan row", err)
		}
		inst, err := m.Materialize()
		if err != nil {
			return nil, err
		}
		if target.Kind() == reflect.Pointer {
			inst = inst.Addr()
		}
		out = append(out, inst.Interface().(T))
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.CodeQueryExecution, "error iterating rows", err)
	}

	return out, nil
}

var _ Rows = (*sql.Rows)(nil)
