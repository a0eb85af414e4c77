// Package member enumerates the members of a struct type, and decides
// which of them take part in a diff.
package member

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Member is one readable field of a struct type.
type Member struct {
	Name string
	// Type is the declared type of the field.
	Type reflect.Type
	// Declaring is the struct type the field is declared in. It
	// differs from the enumerated type for fields promoted from an
	// embedded struct.
	Declaring reflect.Type
	// Index is the path of field indexes from the enumerated type.
	Index []int
}

// Value reads the member from a struct value (or pointer to one). It
// returns false when the member cannot be read: it is reached through
// a nil embedded pointer, or through an unexported embedded struct.
func (m Member) Value(v reflect.Value) (reflect.Value, bool) {
	v = indirect(v)
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	for i, x := range m.Index {
		if i > 0 {
			v = indirect(v)
			if !v.IsValid() {
				return reflect.Value{}, false
			}
		}
		v = v.Field(x)
	}
	if !v.CanInterface() {
		return reflect.Value{}, false
	}
	return v, true
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// Enumerator lists the members of a type, in a stable order.
type Enumerator interface {
	Members(t reflect.Type) []Member
}

// EnumeratorFunc adapts a func to an Enumerator.
type EnumeratorFunc func(reflect.Type) []Member

func (f EnumeratorFunc) Members(t reflect.Type) []Member {
	return f(t)
}

// Terminal reports whether a type is compared as a whole rather than
// member by member: scalar kinds, funcs, channels, types that define
// their own `Equal(T) bool`, and pointers to any of those.
func Terminal(t reflect.Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	case reflect.Ptr:
		if Terminal(t.Elem()) {
			return true
		}
	}
	_, ok := EqualMethod(t)
	return ok
}

// EqualMethod returns the `Equal(T) bool` method of t, if it has one.
func EqualMethod(t reflect.Type) (reflect.Method, bool) {
	m, ok := t.MethodByName("Equal")
	if !ok {
		return m, false
	}
	// the receiver is the first input of a method obtained from a type
	if m.Type.NumIn() != 2 || m.Type.NumOut() != 1 {
		return m, false
	}
	if m.Type.In(1) != t || m.Type.Out(0).Kind() != reflect.Bool {
		return m, false
	}
	return m, true
}

// Reflect is the default Enumerator. It lists exported fields in
// declaration order, inlining the fields of embedded structs at the
// position of the embedding, each reported with its declaring type.
// Shadowed fields of embedded structs are listed too.
type Reflect struct {
	cache sync.Map // reflect.Type -> []Member
}

func (r *Reflect) Members(t reflect.Type) []Member {
	t = structType(t)
	if t == nil {
		return nil
	}
	if ms, ok := r.cache.Load(t); ok {
		return ms.([]Member)
	}
	ms := collect(t, nil, map[reflect.Type]bool{})
	r.cache.Store(t, ms)
	return ms
}

func collect(t reflect.Type, prefix []int, seen map[reflect.Type]bool) []Member {
	if seen[t] {
		return nil
	}
	seen[t] = true
	defer delete(seen, t)

	var ms []Member
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(prefix[:len(prefix):len(prefix)], i)
		if f.Anonymous {
			if embedded := structType(f.Type); embedded != nil && !Terminal(f.Type) {
				ms = append(ms, collect(embedded, index, seen)...)
				continue
			}
		}
		if f.PkgPath != "" { // unexported
			continue
		}
		ms = append(ms, Member{
			Name:      f.Name,
			Type:      f.Type,
			Declaring: t,
			Index:     index,
		})
	}
	return ms
}

func structType(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// Definition restricts and orders the members used for a type.
type Definition struct {
	Type    reflect.Type
	Members []string
}

// Defined is an Enumerator that consults per-type definitions before
// falling back to another Enumerator.
type Defined struct {
	base    Enumerator
	members map[reflect.Type][]Member
}

// WithDefinitions returns an Enumerator using the given definitions.
// It is an error to define a type twice, or to name a member the base
// enumerator does not list.
func WithDefinitions(base Enumerator, defs ...Definition) (*Defined, error) {
	d := &Defined{base: base, members: map[reflect.Type][]Member{}}
	for _, def := range defs {
		t := structType(def.Type)
		if t == nil {
			return nil, errors.Errorf("member definition for %v: not a struct type", def.Type)
		}
		if _, ok := d.members[t]; ok {
			return nil, errors.Errorf("member definition for %v: defined more than once", t)
		}
		all := base.Members(t)
		var ms []Member
		for _, name := range def.Members {
			m, ok := find(all, name)
			if !ok {
				return nil, errors.Errorf("member definition for %v: no member %q", t, name)
			}
			ms = append(ms, m)
		}
		d.members[t] = ms
	}
	return d, nil
}

func find(ms []Member, name string) (Member, bool) {
	for _, m := range ms {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

func (d *Defined) Members(t reflect.Type) []Member {
	if ms, ok := d.members[structType(t)]; ok {
		return ms
	}
	return d.base.Members(t)
}
