package diff

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/fluxcd/graphdiff/pkg/element"
	"github.com/fluxcd/graphdiff/pkg/key"
)

var (
	// Mapping is the Generator for maps: entries are matched by their
	// map key, and named by it.
	Mapping Generator = mapping{}
	// Set is the Generator for maps with zero-size values, such as
	// map[string]struct{}, which are diffed as sets of their keys.
	Set Generator = set{}
)

func isSet(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem().Kind() == reflect.Struct && t.Elem().Size() == 0
}

type mapping struct{}

func (mapping) Compare(c Comparer, a, b reflect.Value) bool {
	typ := a.Type()
	ka, kb := entries(c, typ, a), entries(c, typ, b)
	if len(ka) != len(kb) {
		return false
	}
	index, matched := newKeyIndex(c, kb), map[int]bool{}
	for _, k := range ka {
		j := index.find(k, matched)
		if j < 0 {
			return false
		}
		matched[j] = true
		if !c.Compare(a.MapIndex(k), b.MapIndex(kb[j])) {
			return false
		}
	}
	return true
}

func (mapping) GenerateKey(d Differ, name interface{}, typ, container reflect.Type, v reflect.Value) key.Key {
	var children []key.Key
	for _, mk := range entries(d, typ, v) {
		n := mk.Interface()
		kk := d.GenerateKey(n, typ.Key(), typ, mk)
		vk := d.GenerateKey(n, typ.Elem(), typ, v.MapIndex(mk))
		children = append(children, key.NewEntry(n, typ.Elem(), typ, kk, vk))
	}
	return key.NewUnorderedNode(name, typ, container, children)
}

// Diff walks the original entries in key order, then the entries only
// in revised.
func (mapping) Diff(d Differ, name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error) {
	elemTyp := typ.Elem()
	keys := keysByName(k)
	ko, kr := entries(d, typ, original), entries(d, typ, revised)
	index, matched := newKeyIndex(d, kr), map[int]bool{}

	var children []element.Element
	for _, mk := range ko {
		n := mk.Interface()
		vk, ok := keys[n]
		if !ok {
			vk = d.GenerateKey(n, elemTyp, typ, original.MapIndex(mk))
		}
		j := index.find(mk, matched)
		if j < 0 {
			children = append(children, element.NewLeaf(n, element.Modified, vk, nil))
			continue
		}
		matched[j] = true
		child, err := d.Diff(n, d.Counterpart(original.MapIndex(mk)), revised.MapIndex(kr[j]), elemTyp, typ, vk)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	for j, mk := range kr {
		if matched[j] {
			continue
		}
		n := mk.Interface()
		child, err := d.Diff(n, reflect.Value{}, revised.MapIndex(mk), elemTyp, typ, key.NewLeaf(n, elemTyp, typ, nil))
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return element.NewNode(name, element.Determine(children), k, children), nil
}

type set struct{}

func (set) Compare(c Comparer, a, b reflect.Value) bool {
	typ := a.Type()
	ka, kb := entries(c, typ, a), entries(c, typ, b)
	if len(ka) != len(kb) {
		return false
	}
	index, matched := newKeyIndex(c, kb), map[int]bool{}
	for _, k := range ka {
		j := index.find(k, matched)
		if j < 0 {
			return false
		}
		matched[j] = true
	}
	return true
}

func (set) GenerateKey(d Differ, name interface{}, typ, container reflect.Type, v reflect.Value) key.Key {
	var children []key.Key
	for _, mk := range entries(d, typ, v) {
		children = append(children, d.GenerateKey(mk.Interface(), typ.Key(), typ, mk))
	}
	return key.NewUnorderedNode(name, typ, container, children)
}

// Diff names every child by its element. Elements in both sets are
// diffed with each other, which matters only for elements that are
// matched by content rather than by value, such as pointers.
func (set) Diff(d Differ, name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error) {
	elemTyp := typ.Key()
	keys := keysByName(k)
	ko, kr := entries(d, typ, original), entries(d, typ, revised)
	index, matched := newKeyIndex(d, kr), map[int]bool{}

	var children []element.Element
	for _, mk := range ko {
		n := mk.Interface()
		ek, ok := keys[n]
		if !ok {
			ek = d.GenerateKey(n, elemTyp, typ, mk)
		}
		j := index.find(mk, matched)
		if j < 0 {
			children = append(children, element.NewLeaf(n, element.Modified, ek, nil))
			continue
		}
		matched[j] = true
		child, err := d.Diff(n, d.Counterpart(mk), kr[j], elemTyp, typ, ek)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	for j, mk := range kr {
		if matched[j] {
			continue
		}
		n := mk.Interface()
		child, err := d.Diff(n, reflect.Value{}, mk, elemTyp, typ, key.NewLeaf(n, elemTyp, typ, nil))
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return element.NewNode(name, element.Determine(children), k, children), nil
}

// entries returns the keys of m in a stable order, without string
// keys the Comparer ignores.
func entries(c Comparer, typ reflect.Type, m reflect.Value) []reflect.Value {
	if !m.IsValid() || m.IsNil() {
		return nil
	}
	keys := make([]reflect.Value, 0, m.Len())
	for _, k := range m.MapKeys() {
		if ck := concrete(k); ck.Kind() == reflect.String && c.Ignored(typ, typ, ck.String()) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Sort(sortedKeys(keys))
	return keys
}

// It helps to return the entries of a map in a stable order
type sortedKeys []reflect.Value

func (s sortedKeys) Len() int {
	return len(s)
}

func (s sortedKeys) Less(i, j int) bool {
	a, b := concrete(s[i]), concrete(s[j])
	if a.IsValid() && b.IsValid() && a.Kind() == b.Kind() {
		switch a.Kind() {
		case reflect.String:
			return a.String() < b.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return a.Uint() < b.Uint()
		case reflect.Float32, reflect.Float64:
			return a.Float() < b.Float()
		case reflect.Bool:
			return !a.Bool() && b.Bool()
		}
	}
	return fmt.Sprintf("%T/%v", valueOf(a), valueOf(a)) < fmt.Sprintf("%T/%v", valueOf(b), valueOf(b))
}

func (s sortedKeys) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// keyIndex finds, for a map key of one snapshot, the matching key of
// the other. Scalar keys match by value; anything else, pointers in
// particular, by deep equality.
type keyIndex struct {
	c      Comparer
	keys   []reflect.Value
	direct map[interface{}]int
}

func newKeyIndex(c Comparer, keys []reflect.Value) *keyIndex {
	x := &keyIndex{c: c, keys: keys, direct: map[interface{}]int{}}
	for i, k := range keys {
		if scalarKey(k) {
			x.direct[k.Interface()] = i
		}
	}
	return x
}

func (x *keyIndex) find(k reflect.Value, matched map[int]bool) int {
	if scalarKey(k) {
		if i, ok := x.direct[k.Interface()]; ok && !matched[i] {
			return i
		}
		return -1
	}
	for i, other := range x.keys {
		if !matched[i] && !scalarKey(other) && x.c.Compare(k, other) {
			return i
		}
	}
	return -1
}

func scalarKey(k reflect.Value) bool {
	switch concrete(k).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// keysByName indexes the child keys of a container key by name; for
// map entries, the key of the mapped value.
func keysByName(k key.Key) map[interface{}]key.Key {
	keys := map[interface{}]key.Key{}
	n, ok := k.(*key.Node)
	if !ok {
		return keys
	}
	for _, c := range n.Children() {
		if e, ok := c.(*key.Entry); ok {
			keys[e.Name()] = e.ValueKey()
			continue
		}
		keys[c.Name()] = c
	}
	return keys
}
