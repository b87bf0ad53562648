// Package registry provides the metadata consumed by the marshaling layer:
// a runtime type registry (capability map) that constructs instances and
// reaches their fields by name, and a table registry that resolves table
// names to TableDefinitions.
//
// Table definitions come from three sources: struct tags via Register,
// YAML schema files via LoadSchema, or hand-built definitions via Define.
package registry

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/leapstack-labs/sqlerm/pkg/core"
)

// TagName is the struct tag read by Register.
const TagName = "erm"

// Registry maps table names to definitions and owns the type registry used
// to marshal instances of the registered types.
type Registry struct {
	mu     sync.RWMutex
	types  *Types
	tables map[string]*core.TableDefinition
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		types:  NewTypes(),
		tables: make(map[string]*core.TableDefinition),
	}
}

// Types returns the runtime type registry.
func (r *Registry) Types() *Types {
	return r.types
}

// Define publishes a definition under its table name.
func (r *Registry) Define(def *core.TableDefinition) error {
	if def == nil {
		return core.New(core.CodeInvalidDefinition, "nil table definition")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tables[def.Name()]; exists {
		return core.Newf(core.CodeInvalidDefinition, "table %s already registered", def.Name())
	}
	r.tables[def.Name()] = def
	return nil
}

// Table looks up a definition by table name.
func (r *Registry) Table(name string) (*core.TableDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tables[name]
	return def, ok
}

// Tables returns every definition sorted by table name.
func (r *Registry) Tables() []*core.TableDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]*core.TableDefinition, 0, len(r.tables))
	for _, def := range r.tables {
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b *core.TableDefinition) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return defs
}

// Option customizes Register.
type Option func(*registerOptions)

type registerOptions struct {
	tableName string
	naming    func(string) string
}

// WithTableName overrides the table name, which defaults to the short type name.
func WithTableName(name string) Option {
	return func(o *registerOptions) { o.tableName = name }
}

// WithNaming overrides how untagged field names become column names.
// The default is SnakeCase.
func WithNaming(fn func(string) string) Option {
	return func(o *registerOptions) { o.naming = fn }
}

// Register derives a table definition for T from its struct tags, registers
// T in the type registry and publishes the definition.
//
// Tag format: `erm:"column,key,maxlen=64,order=3"`. `erm:"-"` skips the field.
// Every option is optional; untagged exported fields are mapped with the
// naming convention and their declaration order.
func Register[T any](r *Registry, opts ...Option) (*core.TableDefinition, error) {
	return r.RegisterType(reflect.TypeFor[T](), opts...)
}

// RegisterType is the non-generic form of Register.
func (r *Registry) RegisterType(t reflect.Type, opts ...Option) (*core.TableDefinition, error) {
	o := registerOptions{naming: SnakeCase}
	for _, opt := range opts {
		opt(&o)
	}

	info, err := r.types.Of(t)
	if err != nil {
		return nil, err
	}
	if o.tableName == "" {
		o.tableName = info.Name
	}

	var cols []core.ColumnDefinition
	for i, f := range info.Fields() {
		sf, _ := info.Type.FieldByName(f.Name)
		col, skip, err := columnFromField(sf, i, o.naming)
		if err != nil {
			return nil, core.Wrap(core.CodeInvalidDefinition, "type "+info.Name, err)
		}
		if skip {
			continue
		}
		cols = append(cols, col)
	}

	def, err := core.NewTableDefinition(o.tableName, info.Name, cols...)
	if err != nil {
		return nil, err
	}
	if err := r.Define(def); err != nil {
		return nil, err
	}
	return def, nil
}

func columnFromField(sf reflect.StructField, order int, naming func(string) string) (core.ColumnDefinition, bool, error) {
	tag := sf.Tag.Get(TagName)
	if tag == "-" {
		return core.ColumnDefinition{}, true, nil
	}

	sqlType, err := InferSQLType(sf.Type)
	if err != nil {
		return core.ColumnDefinition{}, false, core.Wrap(core.CodeUnsupportedType, "field "+sf.Name, err)
	}

	col := core.ColumnDefinition{
		SourceField: sf.Name,
		Name:        naming(sf.Name),
		Type:        sqlType,
		Order:       order,
	}

	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		col.Name = parts[0]
	}
	for _, opt := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "":
		case "key":
			col.PrimaryKey = true
		case "maxlen":
			n, err := strconv.Atoi(value)
			if err != nil {
				return col, false, core.Newf(core.CodeInvalidDefinition, "field %s: bad maxlen %q", sf.Name, value)
			}
			col.MaxLength = n
		case "order":
			n, err := strconv.Atoi(value)
			if err != nil {
				return col, false, core.Newf(core.CodeInvalidDefinition, "field %s: bad order %q", sf.Name, value)
			}
			col.Order = n
		default:
			return col, false, core.Newf(core.CodeInvalidDefinition, "field %s: unknown tag option %q", sf.Name, key)
		}
	}

	return col, false, nil
}
