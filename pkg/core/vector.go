package core

import (
	"encoding/binary"
	"reflect"
)

// Vector and rotation types stored as BLOB columns. Each is encoded as its
// components in declaration order, little-endian, four bytes per component.

// Vec2 is a 2-component float vector.
type Vec2 struct{ X, Y float32 }

// Vec3 is a 3-component float vector.
type Vec3 struct{ X, Y, Z float32 }

// Vec4 is a 4-component float vector.
type Vec4 struct{ X, Y, Z, W float32 }

// IVec2 is a 2-component signed integer vector.
type IVec2 struct{ X, Y int32 }

// IVec3 is a 3-component signed integer vector.
type IVec3 struct{ X, Y, Z int32 }

// IVec4 is a 4-component signed integer vector.
type IVec4 struct{ X, Y, Z, W int32 }

// UVec2 is a 2-component unsigned integer vector.
type UVec2 struct{ X, Y uint32 }

// UVec3 is a 3-component unsigned integer vector.
type UVec3 struct{ X, Y, Z uint32 }

// UVec4 is a 4-component unsigned integer vector.
type UVec4 struct{ X, Y, Z, W uint32 }

// Quat is a rotation quaternion.
type Quat struct{ X, Y, Z, W float32 }

// Color is an sRGB color with alpha.
type Color struct{ R, G, B, A float32 }

var blobTypes = map[reflect.Type]struct{}{
	reflect.TypeFor[Vec2]():  {},
	reflect.TypeFor[Vec3]():  {},
	reflect.TypeFor[Vec4]():  {},
	reflect.TypeFor[IVec2](): {},
	reflect.TypeFor[IVec3](): {},
	reflect.TypeFor[IVec4](): {},
	reflect.TypeFor[UVec2](): {},
	reflect.TypeFor[UVec3](): {},
	reflect.TypeFor[UVec4](): {},
	reflect.TypeFor[Quat]():  {},
	reflect.TypeFor[Color](): {},
}

// IsBlobType reports whether t is one of the types with a blob encoding.
func IsBlobType(t reflect.Type) bool {
	_, ok := blobTypes[t]
	return ok
}

// EncodeBlob serializes a vector, quaternion or color.
func EncodeBlob(v any) ([]byte, error) {
	if v == nil || !IsBlobType(reflect.TypeOf(v)) {
		return nil, Newf(CodeUnsupportedType, "cannot encode %T as blob", v)
	}
	b, err := binary.Append(nil, binary.LittleEndian, v)
	if err != nil {
		return nil, Wrap(CodeUnsupportedType, "failed to encode blob", err)
	}
	return b, nil
}

// DecodeBlob decodes b into a new value of type t and returns it.
func DecodeBlob(t reflect.Type, b []byte) (any, error) {
	if !IsBlobType(t) {
		return nil, Newf(CodeUnsupportedType, "cannot decode blob into %v", t)
	}
	ptr := reflect.New(t)
	if size := binary.Size(ptr.Interface()); size != len(b) {
		return nil, Newf(CodeTypeMismatch, "blob for %v must be %d bytes, got %d", t, size, len(b))
	}
	if _, err := binary.Decode(b, binary.LittleEndian, ptr.Interface()); err != nil {
		return nil, Wrap(CodeTypeMismatch, "failed to decode blob", err)
	}
	return ptr.Elem().Interface(), nil
}
