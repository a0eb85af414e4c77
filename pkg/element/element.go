// Package element is the output of a diff: a tree mirroring the
// original value, where every subtree and leaf is labelled EQUAL or
// MODIFIED.
package element

import (
	"github.com/fluxcd/graphdiff/pkg/key"
)

type Status int

const (
	Equal Status = iota
	Modified
)

func (s Status) String() string {
	switch s {
	case Equal:
		return "EQUAL"
	case Modified:
		return "MODIFIED"
	default:
		return "UNKNOWN"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Element is a node of the output tree.
type Element interface {
	// Name is the member or position identifier under the parent,
	// or key.Root for the top element.
	Name() interface{}
	Status() Status
	// Key is the structural key computed for the original value.
	Key() key.Key
}

// Leaf is a terminal element. It carries the revised value, a clone
// of a value with no original counterpart, nil for a deletion, or
// key.Circular for a re-entered cycle.
type Leaf struct {
	name   interface{}
	status Status
	key    key.Key
	value  interface{}
}

func NewLeaf(name interface{}, status Status, k key.Key, value interface{}) *Leaf {
	return &Leaf{name: name, status: status, key: k, value: value}
}

func (l *Leaf) Name() interface{}  { return l.name }
func (l *Leaf) Status() Status     { return l.status }
func (l *Leaf) Key() key.Key       { return l.key }
func (l *Leaf) Value() interface{} { return l.value }

// IsCircular reports whether the leaf stands in for a re-entered cycle.
func (l *Leaf) IsCircular() bool {
	return l.value == key.Circular
}

// Node is a composite element with one child per member or position.
type Node struct {
	name     interface{}
	status   Status
	key      key.Key
	children []Element
}

func NewNode(name interface{}, status Status, k key.Key, children []Element) *Node {
	return &Node{name: name, status: status, key: k, children: children}
}

func (n *Node) Name() interface{}   { return n.name }
func (n *Node) Status() Status      { return n.status }
func (n *Node) Key() key.Key        { return n.key }
func (n *Node) Children() []Element { return n.children }

// Child returns the first child with the given name.
func (n *Node) Child(name interface{}) (Element, bool) {
	for _, c := range n.children {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Determine is the status of a composite: MODIFIED if any child is.
func Determine(children []Element) Status {
	for _, c := range children {
		if c.Status() != Equal {
			return Modified
		}
	}
	return Equal
}

// Walk visits e and its descendants depth first, with the path of
// names from the root. Returning false from fn skips the children of
// the element.
func Walk(e Element, fn func(path []interface{}, e Element) bool) {
	walk(nil, e, fn)
}

func walk(path []interface{}, e Element, fn func([]interface{}, Element) bool) {
	if e == nil {
		return
	}
	if !fn(path, e) {
		return
	}
	if n, ok := e.(*Node); ok {
		for _, c := range n.children {
			walk(append(path[:len(path):len(path)], c.Name()), c, fn)
		}
	}
}
