package marshal

import (
	"database/sql/driver"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlerm/pkg/core"
	"github.com/leapstack-labs/sqlerm/pkg/registry"
)

type Player struct {
	ID     int32
	Name   string
	Deaths int32
	Email  string
}

type Kitchen struct {
	I8    int8
	I16   int16
	I32   int32
	I64   int64
	I     int
	U8    uint8
	U16   uint16
	U32   uint32
	U64   uint64
	F32   float32
	F64   float64
	S     string
	B     bool
	Pos   core.Vec3
	Grid  core.IVec2
	Rot   core.Quat
	Tint  core.Color
	Nick  *string
	Level *uint8
	Tags  []string
	Raw   []byte
	Big   uint64
}

func TestWrap_Player(t *testing.T) {
	types := registry.NewTypes()
	p := Player{ID: 2, Name: "Test"}

	w, err := Wrap(&p, "ID", types)
	require.NoError(t, err)
	v, err := w.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	w, err = Wrap(p, "name", types)
	require.NoError(t, err)
	v, err = w.Value()
	require.NoError(t, err)
	assert.Equal(t, "Test", v)
}

func TestWrap_Errors(t *testing.T) {
	types := registry.NewTypes()

	_, err := Wrap(nil, "ID", types)
	assert.ErrorIs(t, err, core.ErrTypeMismatch)

	_, err = Wrap((*Player)(nil), "ID", types)
	assert.ErrorIs(t, err, core.ErrTypeMismatch)

	_, err = Wrap(Player{}, "Missing", types)
	assert.ErrorIs(t, err, core.ErrTypeMismatch)

	_, err = Wrap(42, "ID", types)
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestValueWrapper_Conversions(t *testing.T) {
	nick := "ace"
	level := uint8(9)
	k := Kitchen{
		I8: -8, I16: -16, I32: -32, I64: -64, I: -1,
		U8: 8, U16: 16, U32: 32, U64: 64,
		F32: 1.5, F64: 2.25,
		S: "text", B: true,
		Pos:   core.Vec3{X: 1, Y: 2, Z: 3},
		Grid:  core.IVec2{X: -1, Y: 1},
		Rot:   core.Quat{W: 1},
		Tint:  core.Color{R: 1, A: 1},
		Nick:  &nick,
		Level: &level,
		Big:   math.MaxUint64,
	}

	mustBlob := func(v any) []byte {
		b, err := core.EncodeBlob(v)
		require.NoError(t, err)
		return b
	}

	tests := []struct {
		field string
		want  driver.Value
	}{
		{"I8", int64(-8)},
		{"I16", int64(-16)},
		{"I32", int64(-32)},
		{"I64", int64(-64)},
		{"I", int64(-1)},
		{"U8", int64(8)},
		{"U16", int64(16)},
		{"U32", int64(32)},
		{"U64", int64(64)},
		{"F32", float64(1.5)},
		{"F64", float64(2.25)},
		{"S", "text"},
		{"B", int64(1)},
		{"Pos", mustBlob(k.Pos)},
		{"Grid", mustBlob(k.Grid)},
		{"Rot", mustBlob(k.Rot)},
		{"Tint", mustBlob(k.Tint)},
		{"Nick", "ace"},
		{"Level", int64(9)},
	}

	types := registry.NewTypes()
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			w, err := Wrap(&k, tt.field, types)
			require.NoError(t, err)
			got, err := w.Value()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueWrapper_NilPointerIsNull(t *testing.T) {
	w, err := Wrap(Kitchen{}, "Nick", registry.NewTypes())
	require.NoError(t, err)
	v, err := w.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestValueWrapper_Unsupported(t *testing.T) {
	types := registry.NewTypes()
	k := Kitchen{Tags: []string{"a"}, Raw: []byte{1}, Big: math.MaxUint64}

	for _, field := range []string{"Tags", "Raw"} {
		w, err := Wrap(k, field, types)
		require.NoError(t, err)
		_, err = w.Value()
		require.Error(t, err, field)
		assert.ErrorIs(t, err, core.ErrUnsupportedType, field)
	}

	w, err := Wrap(k, "Big", types)
	require.NoError(t, err)
	_, err = w.Value()
	assert.ErrorIs(t, err, core.ErrTypeMismatch)
}

func TestPrimitive_NamedTypes(t *testing.T) {
	type Score int16
	type Label string

	v, err := Primitive(reflect.ValueOf(Score(7)))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	v, err = Primitive(reflect.ValueOf(Label("x")))
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = Primitive(reflect.ValueOf(false))
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestValueWrapper_ValueFor(t *testing.T) {
	types := registry.NewTypes()
	k := Kitchen{I16: 300, U16: 300, I: -1, F64: 1e300, S: "text", B: true, Pos: core.Vec3{X: 1}}

	tests := []struct {
		name    string
		field   string
		typ     core.SQLType
		want    driver.Value
		wantErr error
	}{
		{name: "signed fits", field: "I16", typ: core.Integer(16, true), want: int64(300)},
		{name: "signed overflows", field: "I16", typ: core.Integer(8, true), wantErr: core.ErrTypeMismatch},
		{name: "unsigned fits", field: "U16", typ: core.UnsignedInteger(16, true), want: int64(300)},
		{name: "unsigned overflows", field: "U16", typ: core.UnsignedInteger(8, true), wantErr: core.ErrTypeMismatch},
		{name: "signed into unsigned", field: "I", typ: core.UnsignedInteger(64, true), wantErr: core.ErrTypeMismatch},
		{name: "float64 into Float(64)", field: "F64", typ: core.Float(64, true), want: 1e300},
		{name: "float64 overflows Float(32)", field: "F64", typ: core.Float(32, true), wantErr: core.ErrTypeMismatch},
		{name: "bool", field: "B", typ: core.Boolean(true), want: int64(1)},
		{name: "bool into integer", field: "B", typ: core.Integer(64, true), wantErr: core.ErrTypeMismatch},
		{name: "vector blob", field: "Pos", typ: core.Blob(true), want: mustEncode(t, k.Pos)},
		{name: "text into blob", field: "S", typ: core.Blob(true), wantErr: core.ErrTypeMismatch},
		{name: "nil pointer is NULL", field: "Nick", typ: core.Text(false), want: nil},
		{name: "date", field: "S", typ: core.Date(true), wantErr: core.ErrUnsupportedType},
		{name: "datetime", field: "S", typ: core.DateTime(true), wantErr: core.ErrUnsupportedType},
		{name: "bad width", field: "I16", typ: core.Integer(12, true), wantErr: core.ErrInvalidDefinition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Wrap(k, tt.field, types)
			require.NoError(t, err)

			got, err := w.ValueFor(&core.ColumnDefinition{SourceField: tt.field, Name: "c", Type: tt.typ})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func mustEncode(t *testing.T, v any) []byte {
	t.Helper()
	b, err := core.EncodeBlob(v)
	require.NoError(t, err)
	return b
}
