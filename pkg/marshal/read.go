package marshal

import (
	"database/sql"
	"reflect"

	"github.com/leapstack-labs/sqlerm/pkg/core"
)

type signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// newReader returns a scan destination for col and a function that turns the
// scanned value into the staged field value: T for NOT NULL columns, *T for
// nullable ones.
func newReader(col *core.ColumnDefinition, fieldType reflect.Type) (any, func() (any, error), error) {
	t := col.Type
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}

	switch t.Kind {
	case core.KindInteger:
		switch t.Bits {
		case 8:
			return readSigned[int8](col)
		case 16:
			return readSigned[int16](col)
		case 32:
			return readSigned[int32](col)
		default:
			return readSigned[int64](col)
		}
	case core.KindUnsignedInteger:
		switch t.Bits {
		case 8:
			return readUnsigned[uint8](col)
		case 16:
			return readUnsigned[uint16](col)
		case 32:
			return readUnsigned[uint32](col)
		default:
			return readUnsigned[uint64](col)
		}
	case core.KindFloat:
		var n sql.NullFloat64
		if t.Bits == 32 {
			return &n, func() (any, error) { return finish(col, float32(n.Float64), n.Valid) }, nil
		}
		return &n, func() (any, error) { return finish(col, n.Float64, n.Valid) }, nil
	case core.KindText:
		var n sql.NullString
		return &n, func() (any, error) { return finish(col, n.String, n.Valid) }, nil
	case core.KindBoolean:
		var n sql.NullInt64
		return &n, func() (any, error) {
			if n.Valid && n.Int64 != 0 && n.Int64 != 1 {
				return nil, core.Newf(core.CodeQueryExecution, "column %s: %d is not a boolean", col.Name, n.Int64)
			}
			return finish(col, n.Int64 == 1, n.Valid)
		}, nil
	case core.KindBlob:
		return readBlob(col, fieldType)
	case core.KindDate, core.KindTime, core.KindDateTime, core.KindOneToOne, core.KindManyToMany:
		return nil, nil, core.Newf(core.CodeUnsupportedType, "column %s: reading %s columns is not supported", col.Name, t.Kind)
	default:
		return nil, nil, core.Newf(core.CodeUnsupportedType, "column %s: unknown SQL type %s", col.Name, t.Kind)
	}
}

func readSigned[T signed](col *core.ColumnDefinition) (any, func() (any, error), error) {
	var n sql.NullInt64
	return &n, func() (any, error) {
		v := T(n.Int64)
		if n.Valid && int64(v) != n.Int64 {
			return nil, core.Newf(core.CodeQueryExecution, "column %s: %d overflows %d-bit integer", col.Name, n.Int64, col.Type.Bits)
		}
		return finish(col, v, n.Valid)
	}, nil
}

func readUnsigned[T unsigned](col *core.ColumnDefinition) (any, func() (any, error), error) {
	var n sql.NullInt64
	return &n, func() (any, error) {
		v := T(n.Int64)
		if n.Valid && (n.Int64 < 0 || uint64(v) != uint64(n.Int64)) {
			return nil, core.Newf(core.CodeQueryExecution, "column %s: %d overflows %d-bit unsigned integer", col.Name, n.Int64, col.Type.Bits)
		}
		return finish(col, v, n.Valid)
	}, nil
}

// readBlob dispatches on the declared field type: only the vector,
// quaternion and color types have a blob decoding.
func readBlob(col *core.ColumnDefinition, fieldType reflect.Type) (any, func() (any, error), error) {
	elem := fieldType
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if !core.IsBlobType(elem) {
		return nil, nil, core.Newf(core.CodeUnsupportedType, "column %s: cannot decode blob into field of type %s", col.Name, fieldType)
	}

	var b []byte
	return &b, func() (any, error) {
		if b == nil {
			if col.Type.NotNull {
				return nil, core.Newf(core.CodeQueryExecution, "column %s: unexpected NULL", col.Name)
			}
			return reflect.Zero(reflect.PointerTo(elem)).Interface(), nil
		}

		v, err := core.DecodeBlob(elem, b)
		if err != nil {
			return nil, core.Wrap(core.CodeQueryExecution, "column "+col.Name, err)
		}
		if col.Type.NotNull {
			return v, nil
		}
		p := reflect.New(elem)
		p.Elem().Set(reflect.ValueOf(v))
		return p.Interface(), nil
	}, nil
}

func finish[T any](col *core.ColumnDefinition, v T, valid bool) (any, error) {
	if !valid {
		if col.Type.NotNull {
			return nil, core.Newf(core.CodeQueryExecution, "column %s: unexpected NULL", col.Name)
		}
		return (*T)(nil), nil
	}
	if col.Type.NotNull {
		return v, nil
	}
	return &v, nil
}
