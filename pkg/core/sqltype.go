package core

import (
	"fmt"
	"reflect"
)

// SQLKind identifies one variant of SQLType.
type SQLKind int

// SQLType variants. The set is closed: every consumer switches over all of
// them and fails explicitly for the ones it does not implement.
const (
	KindInteger SQLKind = iota + 1
	KindUnsignedInteger
	KindFloat
	KindText
	KindDate
	KindTime
	KindDateTime
	KindBlob
	KindBoolean
	KindOneToOne
	KindManyToMany
)

var kindNames = map[SQLKind]string{
	KindInteger:         "Integer",
	KindUnsignedInteger: "UnsignedInteger",
	KindFloat:           "Float",
	KindText:            "Text",
	KindDate:            "Date",
	KindTime:            "Time",
	KindDateTime:        "DateTime",
	KindBlob:            "Blob",
	KindBoolean:         "Boolean",
	KindOneToOne:        "OneToOne",
	KindManyToMany:      "ManyToMany",
}

// String returns the variant name.
func (k SQLKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SQLKind(%d)", int(k))
}

// SQLType describes the kind, bit width and nullability of one column.
// Bits is only meaningful for Integer, UnsignedInteger and Float.
// Target is only meaningful for the relationship variants.
type SQLType struct {
	Kind    SQLKind
	Bits    int
	NotNull bool
	Target  reflect.Type
}

// Integer returns a signed integer column type.
func Integer(bits int, notNull bool) SQLType {
	return SQLType{Kind: KindInteger, Bits: bits, NotNull: notNull}
}

// UnsignedInteger returns an unsigned integer column type.
func UnsignedInteger(bits int, notNull bool) SQLType {
	return SQLType{Kind: KindUnsignedInteger, Bits: bits, NotNull: notNull}
}

// Float returns a floating point column type.
func Float(bits int, notNull bool) SQLType {
	return SQLType{Kind: KindFloat, Bits: bits, NotNull: notNull}
}

// Text returns a text column type.
func Text(notNull bool) SQLType { return SQLType{Kind: KindText, NotNull: notNull} }

// Date returns a date column type.
func Date(notNull bool) SQLType { return SQLType{Kind: KindDate, NotNull: notNull} }

// Time returns a time-of-day column type.
func Time(notNull bool) SQLType { return SQLType{Kind: KindTime, NotNull: notNull} }

// DateTime returns a timestamp column type.
func DateTime(notNull bool) SQLType { return SQLType{Kind: KindDateTime, NotNull: notNull} }

// Blob returns an opaque binary column type.
func Blob(notNull bool) SQLType { return SQLType{Kind: KindBlob, NotNull: notNull} }

// Boolean returns a boolean column type.
func Boolean(notNull bool) SQLType { return SQLType{Kind: KindBoolean, NotNull: notNull} }

// OneToOne returns a relationship column type pointing at target.
func OneToOne(target reflect.Type, notNull bool) SQLType {
	return SQLType{Kind: KindOneToOne, Target: target, NotNull: notNull}
}

// ManyToMany returns a relationship column type pointing at target.
func ManyToMany(target reflect.Type, notNull bool) SQLType {
	return SQLType{Kind: KindManyToMany, Target: target, NotNull: notNull}
}

// Validate reports a configuration error for widths outside the allowed set.
func (t SQLType) Validate() error {
	switch t.Kind {
	case KindInteger, KindUnsignedInteger:
		switch t.Bits {
		case 8, 16, 32, 64:
			return nil
		}
		return Newf(CodeInvalidDefinition, "%s width must be 8, 16, 32 or 64, got %d", t.Kind, t.Bits)
	case KindFloat:
		if t.Bits == 32 || t.Bits == 64 {
			return nil
		}
		return Newf(CodeInvalidDefinition, "Float width must be 32 or 64, got %d", t.Bits)
	case KindText, KindDate, KindTime, KindDateTime, KindBlob, KindBoolean:
		return nil
	case KindOneToOne, KindManyToMany:
		if t.Target == nil {
			return Newf(CodeInvalidDefinition, "%s requires a target type", t.Kind)
		}
		return nil
	default:
		return Newf(CodeInvalidDefinition, "unknown SQL type %s", t.Kind)
	}
}

// String renders the type the way it reads in a definition, e.g. "Integer(32, not null)".
func (t SQLType) String() string {
	null := "null"
	if t.NotNull {
		null = "not null"
	}
	switch t.Kind {
	case KindInteger, KindUnsignedInteger, KindFloat:
		return fmt.Sprintf("%s(%d, %s)", t.Kind, t.Bits, null)
	case KindOneToOne, KindManyToMany:
		return fmt.Sprintf("%s(%v, %s)", t.Kind, t.Target, null)
	default:
		return fmt.Sprintf("%s(%s)", t.Kind, null)
	}
}
