package registry

import (
	"reflect"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/sqlerm/pkg/core"
)

// FieldInfo gets and sets one named field on instances of a registered type.
type FieldInfo struct {
	Name  string
	Type  reflect.Type
	index []int
}

// Get returns the field of instance. instance must be a struct value of the
// owning type or a pointer to one.
func (f *FieldInfo) Get(instance reflect.Value) reflect.Value {
	return reflect.Indirect(instance).FieldByIndex(f.index)
}

// Set assigns value to the field of instance, which must be addressable.
// A value of the field's element type is stored behind a new pointer, a
// pointer is dereferenced into a non-pointer field (nil leaves the zero
// value) and named types convert to and from their underlying kind.
func (f *FieldInfo) Set(instance reflect.Value, value any) error {
	dst := reflect.Indirect(instance).FieldByIndex(f.index)
	if !dst.CanSet() {
		return core.Newf(core.CodeTypeMismatch, "field %s is not settable", f.Name)
	}
	if value == nil {
		dst.SetZero()
		return nil
	}

	v := reflect.ValueOf(value)
	if assign(dst, v) {
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		src := v
		if src.Kind() == reflect.Pointer {
			if src.IsNil() {
				dst.SetZero()
				return nil
			}
			src = src.Elem()
		}
		p := reflect.New(dst.Type().Elem())
		if assign(p.Elem(), src) {
			dst.Set(p)
			return nil
		}
	}

	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			dst.SetZero()
			return nil
		}
		if assign(dst, v.Elem()) {
			return nil
		}
	}

	return core.Newf(core.CodeTypeMismatch, "cannot assign %s to field %s of type %s", v.Type(), f.Name, dst.Type())
}

// assign stores v in dst directly, or by conversion within one numeric
// family (signed, unsigned, float) when the value fits dst.
func assign(dst, v reflect.Value) bool {
	if v.Type().AssignableTo(dst.Type()) {
		dst.Set(v)
		return true
	}
	if !v.Type().ConvertibleTo(dst.Type()) {
		return false
	}

	switch {
	case v.Kind() == dst.Kind():
	case isSigned(v.Kind()) && isSigned(dst.Kind()):
		if dst.OverflowInt(v.Int()) {
			return false
		}
	case isUnsigned(v.Kind()) && isUnsigned(dst.Kind()):
		if dst.OverflowUint(v.Uint()) {
			return false
		}
	case isFloat(v.Kind()) && isFloat(dst.Kind()):
		if dst.OverflowFloat(v.Float()) {
			return false
		}
	default:
		return false
	}
	dst.Set(v.Convert(dst.Type()))
	return true
}

func isSigned(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUnsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// TypeInfo is the capability entry for one struct type: how to construct a
// default instance and how to reach its fields by name.
type TypeInfo struct {
	Name   string // Short type name, e.g. "Player"
	Type   reflect.Type
	fields []*FieldInfo
	byName map[string]*FieldInfo
	byFold map[string]*FieldInfo
}

// New returns an addressable zero value of the type.
func (t *TypeInfo) New() reflect.Value {
	return reflect.New(t.Type).Elem()
}

// Fields returns the exported fields in declaration order.
func (t *TypeInfo) Fields() []*FieldInfo {
	return append([]*FieldInfo(nil), t.fields...)
}

// Field looks up a field by Go name, falling back to a case-insensitive or
// snake_case match so that column-style names ("max_hp") resolve too.
func (t *TypeInfo) Field(name string) (*FieldInfo, bool) {
	if f, ok := t.byName[name]; ok {
		return f, true
	}
	f, ok := t.byFold[foldName(name)]
	return f, ok
}

// Apply sets every staged field on instance. Keys are field names.
func (t *TypeInfo) Apply(instance reflect.Value, staged map[string]any) error {
	for name, value := range staged {
		f, ok := t.Field(name)
		if !ok {
			return core.Newf(core.CodeTypeMismatch, "type %s has no field %s", t.Name, name)
		}
		if err := f.Set(instance, value); err != nil {
			return err
		}
	}
	return nil
}

func foldName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

// Types is the runtime type registry. Entries are built once per type and
// cached; concurrent first lookups of the same type share one build.
type Types struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*TypeInfo
	byName map[string]*TypeInfo
	group  singleflight.Group
}

// NewTypes creates an empty type registry.
func NewTypes() *Types {
	return &Types{
		byType: make(map[reflect.Type]*TypeInfo),
		byName: make(map[string]*TypeInfo),
	}
}

// TypeOf returns the capability entry for T.
func TypeOf[T any](r *Types) (*TypeInfo, error) {
	return r.Of(reflect.TypeFor[T]())
}

// Of returns the capability entry for t, building it on first use.
// Pointer types resolve to their element type.
func (r *Types) Of(t reflect.Type) (*TypeInfo, error) {
	if t == nil {
		return nil, core.New(core.CodeUnsupportedType, "cannot register a nil type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	r.mu.RLock()
	info, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return info, nil
	}

	v, err, _ := r.group.Do(t.PkgPath()+"."+t.String(), func() (any, error) {
		return r.build(t)
	})
	if err != nil {
		return nil, err
	}
	info = v.(*TypeInfo)
	if info.Type != t {
		return r.build(t)
	}
	return info, nil
}

// Lookup finds a previously built entry by short type name.
func (r *Types) Lookup(name string) (*TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byName[name]
	return info, ok
}

func (r *Types) build(t reflect.Type) (*TypeInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, core.Newf(core.CodeUnsupportedType, "type %s is not a struct", t)
	}

	info := &TypeInfo{
		Name:   ShortName(t),
		Type:   t,
		byName: make(map[string]*FieldInfo),
		byFold: make(map[string]*FieldInfo),
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		f := &FieldInfo{Name: sf.Name, Type: sf.Type, index: sf.Index}
		info.fields = append(info.fields, f)
		info.byName[f.Name] = f
		if _, taken := info.byFold[foldName(f.Name)]; !taken {
			info.byFold[foldName(f.Name)] = f
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byType[t]; ok {
		return existing, nil
	}
	r.byType[t] = info
	r.byName[info.Name] = info
	return info, nil
}

// ShortName returns the unqualified name of t ("Player" for *game.Player).
func ShortName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
