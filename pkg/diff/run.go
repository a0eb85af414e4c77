package diff

import (
	"math"
	"reflect"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/fluxcd/graphdiff/pkg/circular"
	"github.com/fluxcd/graphdiff/pkg/clone"
	"github.com/fluxcd/graphdiff/pkg/element"
	"github.com/fluxcd/graphdiff/pkg/key"
	"github.com/fluxcd/graphdiff/pkg/member"
)

// run is the state of one top-level Diff or Compare call. It is the
// Differ handed to generators.
type run struct {
	engine   *Engine
	registry *circular.Registry
	// node keys of member-enumerated values, so each is built once
	built map[circular.Ref]*key.Node

	// non-zero while keying values of the revised graph
	revising int

	depth int
	err   error
}

func (r *run) enter() (leave func(), ok bool) {
	if r.depth >= r.engine.maxDepth {
		if r.err == nil {
			r.err = errors.Wrapf(ErrMaxDepth, "limit is %d", r.engine.maxDepth)
		}
		return nil, false
	}
	r.depth++
	return func() { r.depth-- }, true
}

func (r *run) Compare(a, b reflect.Value) bool {
	return r.compare(a, b)
}

func (r *run) Diff(name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error) {
	return r.diff(name, original, revised, typ, container, k)
}

func (r *run) GenerateKey(name interface{}, typ, container reflect.Type, v reflect.Value) key.Key {
	return r.generateKey(name, typ, container, v)
}

func (r *run) GenerateRevisedKey(name interface{}, typ, container reflect.Type, v reflect.Value) key.Key {
	r.revising++
	defer func() { r.revising-- }()
	return r.generateKey(name, typ, container, v)
}

func (r *run) Counterpart(v reflect.Value) reflect.Value {
	return r.registry.Counterpart(v)
}

func (r *run) Ignored(container, declaring reflect.Type, name string) bool {
	return r.engine.ignore.IsIgnored(container, declaring, name)
}

// generateKey builds the structural key of v. Values met again while
// their own key is being built become circular leaves, attached to
// the node key once it is finished.
//
// While keying the revised graph, a value paired with an original
// that is being descended into is a circular leaf as well, just as
// the original was when its key was built. Nothing found on that side
// is recorded as a root or cached.
func (r *run) generateKey(name interface{}, typ, container reflect.Type, v reflect.Value) key.Key {
	v = concrete(v)
	if null(v) || typ == nil || member.Terminal(v.Type()) {
		return key.NewLeaf(name, typ, container, valueOf(v))
	}
	if r.revising > 0 {
		c := r.registry.Counterpart(v)
		if _, ok := r.registry.Root(v); ok || r.registry.Visiting(c) || r.registry.Keying(c) {
			return key.NewCircularLeaf(name, typ, container)
		}
	}
	if root, ok := r.registry.Root(v); ok {
		l := key.NewCircularLeaf(name, typ, container)
		root.RegisterCircularKey(l)
		return l
	}
	if r.registry.Visiting(v) || r.registry.Keying(v) {
		l := key.NewCircularLeaf(name, typ, container)
		r.registry.AddPending(v, l)
		return l
	}

	t := v.Type()
	ref, hasRef := circular.RefOf(v)
	if n, ok := r.built[ref]; hasRef && ok {
		return key.NewNode(name, t, container, n.Children())
	}

	leave, ok := r.enter()
	if !ok {
		return key.NewLeaf(name, typ, container, nil)
	}
	defer leave()

	pop := r.registry.PushKey(v)
	if g := r.engine.generator(t); g != nil {
		k := g.GenerateKey(r, name, t, container, v)
		pop()
		return k
	}

	var children []key.Key
	for _, m := range r.engine.members.Members(t) {
		if r.Ignored(t, m.Declaring, m.Name) {
			continue
		}
		mv, ok := m.Value(v)
		if !ok {
			continue
		}
		children = append(children, r.generateKey(m.Name, m.Type, m.Declaring, mv))
	}
	pop()

	n := key.NewNode(name, t, container, children)
	for _, l := range r.registry.TakePending(v) {
		n.RegisterCircularKey(l)
	}
	switch {
	case r.revising > 0:
	case n.IsCircular():
		r.registry.SetRoot(v, n)
	case hasRef:
		r.built[ref] = n
	}
	return n
}

// compare is deep equality. A value re-entered while it is being
// compared is taken to be equal.
func (r *run) compare(a, b reflect.Value) bool {
	a, b = concrete(a), concrete(b)
	if circular.Same(a, b) {
		return true
	}
	if null(a) || null(b) {
		return false
	}
	t := a.Type()
	if t != b.Type() {
		return false
	}
	if member.Terminal(t) {
		return scalarEqual(a, b)
	}
	if r.registry.Visiting(a) {
		return true
	}

	leave, ok := r.enter()
	if !ok {
		return false
	}
	defer leave()
	defer r.registry.PushValue(a)()

	if g := r.engine.generator(t); g != nil {
		return g.Compare(r, a, b)
	}
	for _, m := range r.engine.members.Members(t) {
		if r.Ignored(t, m.Declaring, m.Name) {
			continue
		}
		ma, okA := m.Value(a)
		mb, okB := m.Value(b)
		if okA != okB {
			return false
		}
		if okA && !r.compare(ma, mb) {
			return false
		}
	}
	return true
}

func (r *run) diff(name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error) {
	o, v := concrete(original), concrete(revised)

	leave, ok := r.enter()
	if !ok {
		return nil, r.err
	}
	defer leave()

	if circular.Same(o, v) {
		return r.identical(name, v, typ, container, k)
	}
	if null(o) {
		return r.added(name, v, container, k)
	}
	if null(v) {
		return element.NewLeaf(name, element.Modified, k, nil), nil
	}

	t := o.Type()
	if t != v.Type() {
		if typ != nil && typ.Kind() == reflect.Interface {
			return element.NewLeaf(name, element.Modified, k, clone.Value(v).Interface()), nil
		}
		level.Warn(r.engine.logger).Log("msg", "shape mismatch", "name", name, "original", t, "revised", v.Type())
		return nil, errors.Wrapf(ErrShapeMismatch, "%v and %v", t, v.Type())
	}

	if member.Terminal(t) {
		status := element.Modified
		if scalarEqual(o, v) {
			status = element.Equal
		}
		return element.NewLeaf(name, status, k, valueOf(v)), nil
	}

	if r.registry.Visiting(o) {
		return r.circularLeaf(name, o, k), nil
	}

	defer r.registry.PushValue(o)()
	if g := r.engine.generator(t); g != nil {
		return g.Diff(r, name, o, v, t, container, k)
	}

	defer r.registry.Pair(o, v)()
	var children []element.Element
	for _, m := range r.engine.members.Members(t) {
		if r.Ignored(t, m.Declaring, m.Name) {
			continue
		}
		om, okO := m.Value(o)
		vm, okV := m.Value(v)
		if !okO && !okV {
			level.Debug(r.engine.logger).Log("msg", "skipping unreadable member", "type", t, "member", m.Name)
			continue
		}
		mk := r.generateKey(m.Name, m.Type, m.Declaring, om)
		child, err := r.diff(m.Name, r.registry.Counterpart(om), vm, m.Type, m.Declaring, mk)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return element.NewNode(name, element.Determine(children), k, children), nil
}

// identical diffs a value against itself, or nil against nil.
// Containers still go through their generator so that every element
// gets its own key.
func (r *run) identical(name interface{}, v reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error) {
	if null(v) || member.Terminal(v.Type()) || r.registry.Visiting(v) {
		return element.NewLeaf(name, element.Equal, k, valueOf(v)), nil
	}
	t := v.Type()
	if g := r.engine.generator(t); g != nil {
		defer r.registry.PushValue(v)()
		return g.Diff(r, name, v, v, t, container, k)
	}
	if _, ok := r.registry.Root(v); ok && r.registry.Paired(v) {
		return r.diff(name, r.registry.Counterpart(v), v, typ, container, k)
	}
	return element.NewLeaf(name, element.Equal, k, valueOf(v)), nil
}

// added diffs a value with no original. Its generator still gets to
// lay out its elements; anything else is carried as a snapshot.
func (r *run) added(name interface{}, v reflect.Value, container reflect.Type, k key.Key) (element.Element, error) {
	t := v.Type()
	if !member.Terminal(t) {
		if r.registry.Visiting(v) {
			return r.circularLeaf(name, v, k), nil
		}
		if g := r.engine.generator(t); g != nil {
			defer r.registry.PushValue(v)()
			return g.Diff(r, name, reflect.Value{}, v, t, container, k)
		}
		if _, ok := r.registry.Root(v); ok && r.registry.PairedAsOriginal(v) {
			return r.circularLeaf(name, v, k), nil
		}
	}
	return element.NewLeaf(name, element.Modified, k, clone.Value(v).Interface()), nil
}

// circularLeaf stands in for a re-entered cycle through v.
func (r *run) circularLeaf(name interface{}, v reflect.Value, k key.Key) *element.Leaf {
	el := element.NewLeaf(name, element.Modified, k, key.Circular)
	if root, ok := r.registry.Root(v); ok {
		root.RegisterCircularElement(el)
	}
	return el
}

// concrete looks through interfaces to the dynamic value.
func concrete(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func null(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func valueOf(v reflect.Value) interface{} {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

// scalarEqual compares two terminal values of the same type, using
// their Equal method if they have one.
func scalarEqual(a, b reflect.Value) bool {
	for {
		if a.Kind() == reflect.Ptr && (a.IsNil() || b.IsNil()) {
			return a.IsNil() && b.IsNil()
		}
		if m, ok := member.EqualMethod(a.Type()); ok && a.CanInterface() && b.CanInterface() {
			return m.Func.Call([]reflect.Value{a, b})[0].Bool()
		}
		if a.Kind() != reflect.Ptr {
			break
		}
		a, b = a.Elem(), b.Elem()
	}
	switch a.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Float32, reflect.Float64:
		return floatEqual(a.Float(), b.Float())
	case reflect.Complex64, reflect.Complex128:
		x, y := a.Complex(), b.Complex()
		return floatEqual(real(x), real(y)) && floatEqual(imag(x), imag(y))
	}
	if !a.CanInterface() || !b.CanInterface() || !a.Type().Comparable() {
		return false
	}
	return a.Interface() == b.Interface()
}

// floatEqual holds NaN equal to itself, so that every value equals
// itself.
func floatEqual(x, y float64) bool {
	return x == y || (math.IsNaN(x) && math.IsNaN(y))
}
