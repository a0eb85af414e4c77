package diff

import (
	"reflect"

	"github.com/fluxcd/graphdiff/pkg/element"
	"github.com/fluxcd/graphdiff/pkg/key"
)

var (
	// Ordered is the Generator for slices and arrays: elements are
	// matched by position.
	Ordered Generator = ordered{}
	// Unordered treats a slice type as a multiset: elements are
	// matched by their structural key, wherever they sit. It is used
	// only for the types it is registered for.
	Unordered Generator = unordered{}
)

type ordered struct{}

func (ordered) Compare(c Comparer, a, b reflect.Value) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !c.Compare(a.Index(i), b.Index(i)) {
			return false
		}
	}
	return true
}

func (ordered) GenerateKey(d Differ, name interface{}, typ, container reflect.Type, v reflect.Value) key.Key {
	return key.NewNode(name, typ, container, elementKeys(d, typ, v))
}

// diff each element, report over- or underbite
func (ordered) Diff(d Differ, name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error) {
	elemTyp := typ.Elem()
	keys := childKeys(d, k, typ, original)

	n := length(original)
	if revised.Len() > n {
		n = revised.Len()
	}
	children := make([]element.Element, 0, n)
	for i := 0; i < n; i++ {
		var o, v reflect.Value
		ek := key.Key(key.NewLeaf(i, elemTyp, typ, nil))
		if i < length(original) {
			o, ek = original.Index(i), keys[i]
		}
		if i < revised.Len() {
			v = revised.Index(i)
		}
		child, err := d.Diff(i, d.Counterpart(o), v, elemTyp, typ, ek)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return element.NewNode(name, element.Determine(children), k, children), nil
}

type unordered struct{}

// Compare matches every element of a with a distinct equal element
// of b.
func (unordered) Compare(c Comparer, a, b reflect.Value) bool {
	if a.Len() != b.Len() {
		return false
	}
	matched := make([]bool, b.Len())
next:
	for i := 0; i < a.Len(); i++ {
		for j := 0; j < b.Len(); j++ {
			if !matched[j] && c.Compare(a.Index(i), b.Index(j)) {
				matched[j] = true
				continue next
			}
		}
		return false
	}
	return true
}

func (unordered) GenerateKey(d Differ, name interface{}, typ, container reflect.Type, v reflect.Value) key.Key {
	return key.NewUnorderedNode(name, typ, container, elementKeys(d, typ, v))
}

// Diff pairs original and revised elements with equal keys, and then
// any left over that compare equal. Elements still left over are
// removals (named by their original position) and additions (named by
// their revised position).
func (unordered) Diff(d Differ, name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error) {
	elemTyp := typ.Elem()
	keys := childKeys(d, k, typ, original)
	revisedKeys := make([]key.Key, revised.Len())
	for j := range revisedKeys {
		revisedKeys[j] = d.GenerateRevisedKey(j, elemTyp, typ, revised.Index(j))
	}

	pairs := make([]int, length(original))
	matched := make([]bool, revised.Len())
	for i := range pairs {
		pairs[i] = matchKey(keys[i], revisedKeys, matched)
		if pairs[i] >= 0 {
			matched[pairs[i]] = true
		}
	}
	for i, j := range pairs {
		if j >= 0 {
			continue
		}
		for c := range matched {
			if !matched[c] && d.Compare(original.Index(i), revised.Index(c)) {
				pairs[i], matched[c] = c, true
				break
			}
		}
	}

	var children []element.Element
	for i, j := range pairs {
		if j < 0 {
			children = append(children, element.NewLeaf(i, element.Modified, keys[i], nil))
			continue
		}
		child, err := d.Diff(i, d.Counterpart(original.Index(i)), revised.Index(j), elemTyp, typ, keys[i])
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	for j := 0; j < revised.Len(); j++ {
		if matched[j] {
			continue
		}
		child, err := d.Diff(j, reflect.Value{}, revised.Index(j), elemTyp, typ, key.NewLeaf(j, elemTyp, typ, nil))
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return element.NewNode(name, element.Determine(children), k, children), nil
}

func elementKeys(d Differ, typ reflect.Type, v reflect.Value) []key.Key {
	keys := make([]key.Key, length(v))
	for i := range keys {
		keys[i] = d.GenerateKey(i, typ.Elem(), typ, v.Index(i))
	}
	return keys
}

// childKeys reuses the element keys held by the container key k when
// there is one for each element, and generates them otherwise.
func childKeys(d Differ, k key.Key, typ reflect.Type, v reflect.Value) []key.Key {
	if n, ok := k.(*key.Node); ok && len(n.Children()) == length(v) {
		return n.Children()
	}
	return elementKeys(d, typ, v)
}

func length(v reflect.Value) int {
	if !v.IsValid() {
		return 0
	}
	return v.Len()
}
