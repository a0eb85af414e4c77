// Package circular keeps the bookkeeping that makes recursion over a
// cyclic graph terminate: which values are being descended into,
// which are having their keys computed, which keys stand in for nodes
// not finished yet, and which original and revised values have been
// paired with each other.
//
// A Registry belongs to exactly one top-level diff or compare call.
package circular

import (
	"reflect"

	"github.com/fluxcd/graphdiff/pkg/key"
)

// Ref is the identity of a reference value: a non-nil pointer, map or
// slice. Values of other kinds have no identity and cannot take part
// in a cycle.
type Ref struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// RefOf returns the identity of v, if it has one. Interfaces are
// looked through.
func RefOf(v reflect.Value) (Ref, bool) {
	if !v.IsValid() {
		return Ref{}, false
	}
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return Ref{}, false
		}
		return RefOf(v.Elem())
	case reflect.Ptr, reflect.Map:
		if v.IsNil() {
			return Ref{}, false
		}
		return Ref{typ: v.Type(), ptr: v.Pointer()}, true
	case reflect.Slice:
		if v.IsNil() {
			return Ref{}, false
		}
		return Ref{typ: v.Type(), ptr: v.Pointer(), len: v.Len()}, true
	}
	return Ref{}, false
}

// Same reports whether a and b are the same reference, or both nil.
func Same(a, b reflect.Value) bool {
	aNil, bNil := isNil(a), isNil(b)
	if aNil || bNil {
		return aNil && bNil
	}
	ra, okA := RefOf(a)
	rb, okB := RefOf(b)
	return okA && okB && ra == rb
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

type stack []Ref

func (s *stack) push(r Ref) func() {
	*s = append(*s, r)
	n := len(*s)
	return func() {
		*s = (*s)[:n-1]
	}
}

func (s stack) contains(r Ref) bool {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == r {
			return true
		}
	}
	return false
}

type Registry struct {
	visitedValues stack
	visitedKeys   stack

	pending map[Ref][]*key.Leaf
	roots   map[Ref]*key.Node

	originalToRevised map[Ref]reflect.Value
	revisedToOriginal map[Ref]reflect.Value
}

func New() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset drops everything recorded. It is called at the start and end
// of every top-level call.
func (r *Registry) Reset() {
	r.visitedValues = r.visitedValues[:0]
	r.visitedKeys = r.visitedKeys[:0]
	r.pending = make(map[Ref][]*key.Leaf)
	r.roots = make(map[Ref]*key.Node)
	r.originalToRevised = make(map[Ref]reflect.Value)
	r.revisedToOriginal = make(map[Ref]reflect.Value)
}

// Drained reports whether the stacks and the cross-reference maps are
// empty, which holds between any two frames of a call.
func (r *Registry) Drained() bool {
	return len(r.visitedValues) == 0 && len(r.visitedKeys) == 0 &&
		len(r.originalToRevised) == 0 && len(r.revisedToOriginal) == 0
}

// Empty reports whether nothing at all is recorded.
func (r *Registry) Empty() bool {
	return r.Drained() && len(r.pending) == 0 && len(r.roots) == 0
}

// PushValue marks v as being descended into. The returned func pops
// it; values without identity give a no-op.
func (r *Registry) PushValue(v reflect.Value) (pop func()) {
	ref, ok := RefOf(v)
	if !ok {
		return func() {}
	}
	return r.visitedValues.push(ref)
}

// Visiting reports whether v is being descended into.
func (r *Registry) Visiting(v reflect.Value) bool {
	ref, ok := RefOf(v)
	return ok && r.visitedValues.contains(ref)
}

// PushKey marks v as having its key computed.
func (r *Registry) PushKey(v reflect.Value) (pop func()) {
	ref, ok := RefOf(v)
	if !ok {
		return func() {}
	}
	return r.visitedKeys.push(ref)
}

// Keying reports whether v is having its key computed.
func (r *Registry) Keying(v reflect.Value) bool {
	ref, ok := RefOf(v)
	return ok && r.visitedKeys.contains(ref)
}

// AddPending records a stand-in key created for v before v's node key
// exists.
func (r *Registry) AddPending(v reflect.Value, l *key.Leaf) {
	if ref, ok := RefOf(v); ok {
		r.pending[ref] = append(r.pending[ref], l)
	}
}

// TakePending removes and returns the stand-in keys recorded for v.
func (r *Registry) TakePending(v reflect.Value) []*key.Leaf {
	ref, ok := RefOf(v)
	if !ok {
		return nil
	}
	ls := r.pending[ref]
	delete(r.pending, ref)
	return ls
}

// Root returns the finalized node key of v, if there is one.
func (r *Registry) Root(v reflect.Value) (*key.Node, bool) {
	ref, ok := RefOf(v)
	if !ok {
		return nil, false
	}
	n, ok := r.roots[ref]
	return n, ok
}

// SetRoot records the finalized node key of v.
func (r *Registry) SetRoot(v reflect.Value, n *key.Node) {
	if ref, ok := RefOf(v); ok {
		r.roots[ref] = n
	}
}

// Pair records that original and revised correspond to each other.
// The returned func restores whatever pairings they had before.
func (r *Registry) Pair(original, revised reflect.Value) (unpair func()) {
	var undo []func()
	if o, ok := RefOf(original); ok {
		undo = append(undo, pair(r.originalToRevised, o, revised))
	}
	if v, ok := RefOf(revised); ok {
		undo = append(undo, pair(r.revisedToOriginal, v, original))
	}
	return func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}
}

func pair(m map[Ref]reflect.Value, ref Ref, to reflect.Value) (undo func()) {
	prev, had := m[ref]
	m[ref] = to
	return func() {
		if had {
			m[ref] = prev
		} else {
			delete(m, ref)
		}
	}
}

// PairedAsOriginal reports whether v has been paired as an original.
func (r *Registry) PairedAsOriginal(v reflect.Value) bool {
	ref, ok := RefOf(v)
	if !ok {
		return false
	}
	_, paired := r.originalToRevised[ref]
	return paired
}

// Paired reports whether v has been paired on either side.
func (r *Registry) Paired(v reflect.Value) bool {
	ref, ok := RefOf(v)
	if !ok {
		return false
	}
	if _, paired := r.originalToRevised[ref]; paired {
		return true
	}
	_, paired := r.revisedToOriginal[ref]
	return paired
}

// Counterpart returns whatever v has been paired with, looking first
// at v as an original and then as a revised value, or v itself.
func (r *Registry) Counterpart(v reflect.Value) reflect.Value {
	ref, ok := RefOf(v)
	if !ok {
		return v
	}
	if c, paired := r.originalToRevised[ref]; paired {
		return c
	}
	if c, paired := r.revisedToOriginal[ref]; paired {
		return c
	}
	return v
}
