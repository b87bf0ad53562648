package registry

import (
	"reflect"

	"github.com/leapstack-labs/sqlerm/pkg/core"
)

// InferSQLType derives the column type for a Go field type. Pointer fields
// are nullable, everything else is NOT NULL.
func InferSQLType(t reflect.Type) (core.SQLType, error) {
	notNull := true
	if t.Kind() == reflect.Pointer {
		notNull = false
		t = t.Elem()
	}

	if core.IsBlobType(t) {
		return core.Blob(notNull), nil
	}

	switch t.Kind() {
	case reflect.Int8:
		return core.Integer(8, notNull), nil
	case reflect.Int16:
		return core.Integer(16, notNull), nil
	case reflect.Int32:
		return core.Integer(32, notNull), nil
	case reflect.Int, reflect.Int64:
		return core.Integer(64, notNull), nil
	case reflect.Uint8:
		return core.UnsignedInteger(8, notNull), nil
	case reflect.Uint16:
		return core.UnsignedInteger(16, notNull), nil
	case reflect.Uint32:
		return core.UnsignedInteger(32, notNull), nil
	case reflect.Uint, reflect.Uint64:
		return core.UnsignedInteger(64, notNull), nil
	case reflect.Float32:
		return core.Float(32, notNull), nil
	case reflect.Float64:
		return core.Float(64, notNull), nil
	case reflect.String:
		return core.Text(notNull), nil
	case reflect.Bool:
		return core.Boolean(notNull), nil
	}

	return core.SQLType{}, core.Newf(core.CodeUnsupportedType, "no SQL type for Go type %s", t)
}
