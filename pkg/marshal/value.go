// Package marshal converts between field values of registered types and
// the primitive values a SQL driver stores: ValueWrapper on the write path,
// Materializer on the read path.
package marshal

import (
	"database/sql/driver"
	"errors"
	"math"
	"reflect"

	"github.com/leapstack-labs/sqlerm/pkg/core"
	"github.com/leapstack-labs/sqlerm/pkg/registry"
)

// ValueWrapper borrows one field of one instance for a single bind. It is a
// driver.Valuer, so it can be passed straight to database/sql as an argument.
type ValueWrapper struct {
	typeName string
	field    *registry.FieldInfo
	value    reflect.Value
}

var _ driver.Valuer = (*ValueWrapper)(nil)

// Wrap resolves fieldName on instance through the type registry.
// instance is a struct or a non-nil pointer to one.
func Wrap(instance any, fieldName string, types *registry.Types) (*ValueWrapper, error) {
	v := reflect.ValueOf(instance)
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return nil, core.New(core.CodeTypeMismatch, "cannot wrap a nil instance")
	}

	info, err := types.Of(v.Type())
	if err != nil {
		return nil, err
	}
	field, ok := info.Field(fieldName)
	if !ok {
		return nil, core.Newf(core.CodeTypeMismatch, "type %s has no field %s", info.Name, fieldName)
	}

	return &ValueWrapper{
		typeName: info.Name,
		field:    field,
		value:    field.Get(v),
	}, nil
}

// Value converts the field's current value to int64, float64, string,
// []byte or nil. Types outside that closed set fail with CodeUnsupportedType.
func (w *ValueWrapper) Value() (driver.Value, error) {
	v, err := Primitive(w.value)
	if err != nil {
		code := core.CodeUnsupportedType
		var e *core.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		return nil, core.Wrap(code, "cannot convert "+w.typeName+"."+w.field.Name, err)
	}
	return v, nil
}

// Primitive converts a single Go value to its storage representation.
// Integers of every width widen to int64, floats to float64, bool becomes
// 0 or 1, vectors become blobs and a nil pointer becomes NULL.
func Primitive(v reflect.Value) (driver.Value, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	if core.IsBlobType(v.Type()) {
		return core.EncodeBlob(v.Interface())
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, core.Newf(core.CodeTypeMismatch, "unsigned value %d does not fit a 64-bit integer column", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		if v.Bool() {
			return int64(1), nil
		}
		return int64(0), nil
	}

	return nil, core.Newf(core.CodeUnsupportedType, "unsupported type %s", v.Type())
}

// ValueFor converts the field like Value and checks the result against the
// column type it is bound to. Integers must fit the column width, the
// primitive must match the column kind, and kinds without a storage
// mapping fail with CodeUnsupportedType. NULL passes for every bindable kind.
func (w *ValueWrapper) ValueFor(col *core.ColumnDefinition) (driver.Value, error) {
	t := col.Type
	if err := t.Validate(); err != nil {
		return nil, err
	}
	switch t.Kind {
	case core.KindDate, core.KindTime, core.KindDateTime, core.KindOneToOne, core.KindManyToMany:
		return nil, core.Newf(core.CodeUnsupportedType, "column %s: binding %s columns is not supported", col.Name, t.Kind)
	}

	v, err := w.Value()
	if err != nil || v == nil {
		return v, err
	}
	if err := checkBind(col, fieldKind(w.field.Type), v); err != nil {
		return nil, core.Wrap(core.CodeTypeMismatch, "cannot bind "+w.typeName+"."+w.field.Name, err)
	}
	return v, nil
}

// fieldKind is the kind of t after dereferencing pointers.
func fieldKind(t reflect.Type) reflect.Kind {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind()
}

// checkBind verifies that the primitive v of a field of kind k can be stored
// in col and read back into the same field.
func checkBind(col *core.ColumnDefinition, k reflect.Kind, v driver.Value) error {
	t := col.Type
	switch t.Kind {
	case core.KindInteger:
		n, ok := v.(int64)
		if !ok || k < reflect.Int || k > reflect.Int64 {
			break
		}
		if t.Bits < 64 {
			limit := int64(1) << (t.Bits - 1)
			if n < -limit || n >= limit {
				return core.Newf(core.CodeTypeMismatch, "column %s: %d overflows %d-bit integer", col.Name, n, t.Bits)
			}
		}
		return nil
	case core.KindUnsignedInteger:
		n, ok := v.(int64)
		if !ok || k < reflect.Uint || k > reflect.Uint64 {
			break
		}
		if n < 0 || (t.Bits < 64 && uint64(n) >= uint64(1)<<t.Bits) {
			return core.Newf(core.CodeTypeMismatch, "column %s: %d overflows %d-bit unsigned integer", col.Name, n, t.Bits)
		}
		return nil
	case core.KindFloat:
		f, ok := v.(float64)
		if !ok {
			break
		}
		if t.Bits == 32 && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return core.Newf(core.CodeTypeMismatch, "column %s: %g overflows 32-bit float", col.Name, f)
		}
		return nil
	case core.KindText:
		if _, ok := v.(string); ok {
			return nil
		}
	case core.KindBoolean:
		if n, ok := v.(int64); ok && k == reflect.Bool && (n == 0 || n == 1) {
			return nil
		}
	case core.KindBlob:
		if _, ok := v.([]byte); ok {
			return nil
		}
	}
	return core.Newf(core.CodeTypeMismatch, "column %s: %s value does not fit %s", col.Name, k, t)
}
