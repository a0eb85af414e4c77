package diff

import (
	"reflect"

	"github.com/fluxcd/graphdiff/pkg/element"
	"github.com/fluxcd/graphdiff/pkg/key"
)

// Comparer is handed to a Generator so it can compare the values it
// holds with the same rules as the engine.
type Comparer interface {
	Compare(a, b reflect.Value) bool
	// Ignored reports whether the member (or string map key) name of
	// container, declared in declaring, is left out.
	Ignored(container, declaring reflect.Type, name string) bool
}

// Differ is handed to a Generator so it can recurse into the values
// it holds. It is only valid for the duration of the call it is
// passed to.
type Differ interface {
	Comparer
	// Diff diffs a held value; k is the key of the original value.
	// An invalid (zero) original means revised was added.
	Diff(name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error)
	GenerateKey(name interface{}, typ, container reflect.Type, v reflect.Value) key.Key
	// GenerateRevisedKey keys a value of the revised graph so that it
	// can be matched against keys generated for the original.
	GenerateRevisedKey(name interface{}, typ, container reflect.Type, v reflect.Value) key.Key
	// Counterpart returns what v has been paired with in the other
	// graph, if it is part of a composite being diffed, or v itself.
	Counterpart(v reflect.Value) reflect.Value
}

// Generator takes over comparing, diffing and keying values of a
// type: containers, or anything with its own notion of identity.
// A Generator registered for T is also used for *T: the pointer is
// followed, and the Generator is given the T.
type Generator interface {
	Compare(c Comparer, a, b reflect.Value) bool
	// Diff is given the key of original already generated; original
	// is invalid when revised is an addition.
	Diff(d Differ, name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error)
	GenerateKey(d Differ, name interface{}, typ, container reflect.Type, v reflect.Value) key.Key
}

// Registration binds a Generator to a type. When Type is an interface
// type the Generator is used for every type implementing it, unless a
// registration for the exact type exists. Of several interfaces a type
// implements, the most specific wins: one that implements all the
// others. Otherwise the first registered wins.
type Registration struct {
	Type      reflect.Type
	Generator Generator
}

// generator finds the Generator for a non-terminal type, or nil if its
// members are to be enumerated.
func (e *Engine) generator(t reflect.Type) Generator {
	if t == nil {
		return nil
	}
	if g, ok := e.exact[t]; ok {
		return g
	}
	if t.Kind() == reflect.Ptr {
		if _, ok := e.exact[t.Elem()]; ok {
			return pointer{}
		}
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return Ordered
	case reflect.Map:
		if isSet(t) {
			return Set
		}
		return Mapping
	case reflect.Ptr:
		if t.Elem().Kind() != reflect.Struct {
			return pointer{}
		}
	}

	return mostSpecific(t, e.ifaces)
}

func mostSpecific(t reflect.Type, ifaces []Registration) Generator {
	var candidates []Registration
	for _, reg := range ifaces {
		if t.Implements(reg.Type) {
			candidates = append(candidates, reg)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
next:
	for _, c := range candidates {
		for _, other := range candidates {
			if !c.Type.Implements(other.Type) {
				continue next
			}
		}
		return c.Generator
	}
	return candidates[0].Generator
}

// pointer follows pointers to anything but structs, and to types with
// an exact registration.
type pointer struct{}

func (pointer) Compare(c Comparer, a, b reflect.Value) bool {
	return c.Compare(a.Elem(), b.Elem())
}

func (pointer) Diff(d Differ, name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error) {
	o := reflect.Value{}
	if original.IsValid() && !original.IsNil() {
		o = original.Elem()
	}
	return d.Diff(name, o, revised.Elem(), typ.Elem(), container, k)
}

func (pointer) GenerateKey(d Differ, name interface{}, typ, container reflect.Type, v reflect.Value) key.Key {
	return d.GenerateKey(name, typ.Elem(), container, v.Elem())
}
