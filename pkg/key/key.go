// Package key holds structural identity descriptors for values in an
// object graph. A key is derived from a value's content rather than
// its address, so the same logical element in two snapshots of a
// graph gets matching keys even when it has moved inside an unordered
// container.
package key

import (
	"reflect"
	"sync"
)

type sentinel string

func (s sentinel) String() string {
	return string(s)
}

var (
	// Root names the top element and key of a diff.
	Root interface{} = sentinel("<root>")
	// Circular stands in for a value that refers back to a node
	// which is still being (or has already been) processed.
	Circular interface{} = sentinel("<circular>")
)

// Key is a structural identity descriptor.
type Key interface {
	// Name is the member or position identifier under the parent.
	Name() interface{}
	// Type is the declared type the key was generated for; nil for
	// untyped nil values.
	Type() reflect.Type
	// Container is the type holding the member, or nil at the top.
	Container() reflect.Type
	// Fingerprint is the canonical content hash of the key. It does
	// not include the key's own name.
	Fingerprint() string
}

// Equal reports whether two keys describe the same content.
func Equal(a, b Key) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Fingerprint() == b.Fingerprint()
}

type header struct {
	name      interface{}
	typ       reflect.Type
	container reflect.Type

	once        sync.Once
	fingerprint string
}

func (h *header) Name() interface{} {
	return h.name
}

func (h *header) Type() reflect.Type {
	return h.typ
}

func (h *header) Container() reflect.Type {
	return h.container
}

func (h *header) memo(encode func(w *canonWriter)) string {
	h.once.Do(func() {
		w := newCanonWriter()
		encode(w)
		h.fingerprint = w.Sum()
	})
	return h.fingerprint
}

// Leaf wraps a terminal value, or the Circular sentinel when it is a
// stand-in for a node key.
type Leaf struct {
	header
	value  interface{}
	target *Node
}

// NewLeaf returns a key wrapping a terminal value.
func NewLeaf(name interface{}, typ, container reflect.Type, value interface{}) *Leaf {
	return &Leaf{
		header: header{name: name, typ: typ, container: container},
		value:  value,
	}
}

// NewCircularLeaf returns a stand-in key for a value whose node key
// is, or will be, registered elsewhere.
func NewCircularLeaf(name interface{}, typ, container reflect.Type) *Leaf {
	return NewLeaf(name, typ, container, Circular)
}

func (l *Leaf) Value() interface{} {
	return l.value
}

// IsCircular reports whether the leaf is a stand-in for a node key.
func (l *Leaf) IsCircular() bool {
	return l.value == Circular
}

// Target is the node key a circular leaf was resolved against, or nil
// if it has not been registered (yet).
func (l *Leaf) Target() *Node {
	return l.target
}

func (l *Leaf) Fingerprint() string {
	return l.memo(func(w *canonWriter) { l.encode(w) })
}

func (l *Leaf) encode(w *canonWriter) {
	if l.IsCircular() {
		w.WriteString(`{"$cycle":`)
		w.WriteQuoted(typeName(l.typ))
		w.WriteByte('}')
		return
	}
	w.WriteString(Canonical(l.typ, l.value))
}

// Node wraps the keys of a value's members. Ordered nodes (structs,
// slices, arrays) compare children position by position, together
// with their names; unordered nodes (maps, sets) compare them as a
// multiset.
type Node struct {
	header
	children  []Key
	unordered bool

	mu        sync.Mutex
	circulars []*Leaf
	elements  []interface{}
}

// NewNode returns a key over member keys whose order is significant.
func NewNode(name interface{}, typ, container reflect.Type, children []Key) *Node {
	return &Node{
		header:   header{name: name, typ: typ, container: container},
		children: children,
	}
}

// NewUnorderedNode returns a key over element keys whose order is not
// significant.
func NewUnorderedNode(name interface{}, typ, container reflect.Type, children []Key) *Node {
	n := NewNode(name, typ, container, children)
	n.unordered = true
	return n
}

func (n *Node) Children() []Key {
	return n.children
}

func (n *Node) Unordered() bool {
	return n.unordered
}

// RegisterCircularKey records a stand-in leaf that refers back to
// this node, and points the leaf at it.
func (n *Node) RegisterCircularKey(l *Leaf) {
	n.mu.Lock()
	defer n.mu.Unlock()
	l.target = n
	n.circulars = append(n.circulars, l)
}

// CircularKeys are the stand-in leaves registered against this node.
func (n *Node) CircularKeys() []*Leaf {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*Leaf(nil), n.circulars...)
}

// RegisterCircularElement records an output element that stands in
// for a re-entered cycle through this node.
func (n *Node) RegisterCircularElement(e interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.elements = append(n.elements, e)
}

// CircularElements are the elements registered against this node.
func (n *Node) CircularElements() []interface{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]interface{}(nil), n.elements...)
}

// IsCircular reports whether anything was found to refer back to the
// node.
func (n *Node) IsCircular() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.circulars) > 0 || len(n.elements) > 0
}

func (n *Node) Fingerprint() string {
	return n.memo(func(w *canonWriter) { n.encode(w) })
}

func (n *Node) encode(w *canonWriter) {
	w.WriteByte('{')
	w.WriteString(`"type":`)
	w.WriteQuoted(typeName(n.typ))
	if n.unordered {
		w.WriteString(`,"elements":`)
		encodeUnordered(n.children, w)
		w.WriteByte('}')
		return
	}
	w.WriteString(`,"members":[`)
	for i, c := range n.children {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteQuoted(nameString(c.Name()))
		w.WriteByte(':')
		w.WriteString(c.Fingerprint())
	}
	w.WriteString("]}")
}

// Entry is the key of one map entry: the key of the map key, and the
// key of the mapped value.
type Entry struct {
	header
	keyKey   Key
	valueKey Key
}

// NewEntry returns the key of a map entry.
func NewEntry(name interface{}, typ, container reflect.Type, keyKey, valueKey Key) *Entry {
	return &Entry{
		header:   header{name: name, typ: typ, container: container},
		keyKey:   keyKey,
		valueKey: valueKey,
	}
}

func (e *Entry) KeyKey() Key {
	return e.keyKey
}

func (e *Entry) ValueKey() Key {
	return e.valueKey
}

func (e *Entry) Fingerprint() string {
	return e.memo(func(w *canonWriter) {
		w.WriteString(`{"entry":[`)
		w.WriteString(fingerprintOrNil(e.keyKey))
		w.WriteByte(',')
		w.WriteString(fingerprintOrNil(e.valueKey))
		w.WriteString("]}")
	})
}

func fingerprintOrNil(k Key) string {
	if k == nil {
		return "null"
	}
	return k.Fingerprint()
}
