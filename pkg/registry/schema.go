package registry

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlerm/pkg/core"
)

// schemaFile is the YAML layout of a table definition file:
//
//	tables:
//	  - name: Player
//	    type: Player
//	    columns:
//	      - {name: id, type: integer, bits: 32, not_null: true, key: true}
//	      - {name: name, type: text, not_null: true, max_length: 64}
type schemaFile struct {
	Tables []tableDecl `yaml:"tables"`
}

type tableDecl struct {
	Name    string       `yaml:"name"`
	Type    string       `yaml:"type"`
	Columns []columnDecl `yaml:"columns"`
}

type columnDecl struct {
	Name      string `yaml:"name"`
	Field     string `yaml:"field"`
	Type      string `yaml:"type"`
	Bits      int    `yaml:"bits"`
	NotNull   bool   `yaml:"not_null"`
	Key       bool   `yaml:"key"`
	MaxLength int    `yaml:"max_length"`
	Order     *int   `yaml:"order"`
}

// ParseSchema decodes table definitions from YAML.
func ParseSchema(r io.Reader) ([]*core.TableDefinition, error) {
	var file schemaFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, core.Wrap(core.CodeInvalidDefinition, "failed to parse schema", err)
	}

	defs := make([]*core.TableDefinition, 0, len(file.Tables))
	for _, ts := range file.Tables {
		cols := make([]core.ColumnDefinition, 0, len(ts.Columns))
		for i, cs := range ts.Columns {
			sqlType, err := parseColumnType(cs)
			if err != nil {
				return nil, core.Wrap(core.CodeInvalidDefinition, fmt.Sprintf("table %s: column %s", ts.Name, cs.Name), err)
			}
			order := i
			if cs.Order != nil {
				order = *cs.Order
			}
			cols = append(cols, core.ColumnDefinition{
				SourceField: cs.Field,
				Name:        cs.Name,
				Type:        sqlType,
				Order:       order,
				PrimaryKey:  cs.Key,
				MaxLength:   cs.MaxLength,
			})
		}

		def, err := core.NewTableDefinition(ts.Name, ts.Type, cols...)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseColumnType(cs columnDecl) (core.SQLType, error) {
	bits := func(def int) int {
		if cs.Bits == 0 {
			return def
		}
		return cs.Bits
	}

	switch strings.ToLower(cs.Type) {
	case "integer", "int":
		return core.Integer(bits(64), cs.NotNull), nil
	case "unsigned", "unsigned_integer", "uint":
		return core.UnsignedInteger(bits(64), cs.NotNull), nil
	case "float", "real":
		return core.Float(bits(64), cs.NotNull), nil
	case "text", "string":
		return core.Text(cs.NotNull), nil
	case "date":
		return core.Date(cs.NotNull), nil
	case "time":
		return core.Time(cs.NotNull), nil
	case "datetime":
		return core.DateTime(cs.NotNull), nil
	case "blob":
		return core.Blob(cs.NotNull), nil
	case "boolean", "bool":
		return core.Boolean(cs.NotNull), nil
	}
	return core.SQLType{}, core.Newf(core.CodeUnsupportedType, "unknown column type %q", cs.Type)
}

// LoadSchema parses r and defines every table it declares.
func (r *Registry) LoadSchema(rd io.Reader) error {
	defs, err := ParseSchema(rd)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := r.Define(def); err != nil {
			return err
		}
	}
	return nil
}

// LoadSchemaFile reads a YAML schema file and defines its tables.
func (r *Registry) LoadSchemaFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // G304: path is operator supplied
	if err != nil {
		return fmt.Errorf("failed to open schema file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return r.LoadSchema(f)
}
