package key

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	intType    = reflect.TypeOf(0)
	stringType = reflect.TypeOf("")
)

func TestLeafFingerprintIgnoresName(t *testing.T) {
	a := NewLeaf("a", intType, nil, 5)
	b := NewLeaf("b", intType, nil, 5)
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, NewLeaf("a", intType, nil, 6)))
}

func TestLeafFingerprintIsTypeStrict(t *testing.T) {
	var iface = reflect.TypeOf((*interface{})(nil)).Elem()
	assert.False(t, Equal(NewLeaf(nil, iface, nil, 1), NewLeaf(nil, iface, nil, int64(1))))
	assert.False(t, Equal(NewLeaf(nil, iface, nil, 1), NewLeaf(nil, iface, nil, 1.0)))
	assert.False(t, Equal(NewLeaf(nil, iface, nil, 1), NewLeaf(nil, iface, nil, "1")))
}

func TestLeafFingerprintFollowsPointers(t *testing.T) {
	x, y := 3, 3
	typ := reflect.TypeOf(&x)
	assert.True(t, Equal(NewLeaf(nil, typ, nil, &x), NewLeaf(nil, typ, nil, &y)))

	var nilPtr *int
	assert.True(t, Equal(NewLeaf(nil, typ, nil, nilPtr), NewLeaf(nil, typ, nil, nil)))
}

func TestLeafFingerprintOfTimeIsTheInstant(t *testing.T) {
	typ := reflect.TypeOf(time.Time{})
	utc := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	east := utc.In(time.FixedZone("east", 3*60*60))
	assert.True(t, Equal(NewLeaf(nil, typ, nil, utc), NewLeaf(nil, typ, nil, east)))
	assert.False(t, Equal(NewLeaf(nil, typ, nil, utc), NewLeaf(nil, typ, nil, utc.Add(time.Nanosecond))))
}

func TestLeafFingerprintOfNaN(t *testing.T) {
	typ := reflect.TypeOf(0.0)
	assert.True(t, Equal(NewLeaf(nil, typ, nil, math.NaN()), NewLeaf(nil, typ, nil, math.NaN())))
}

func TestNodeMembersArePositionalByName(t *testing.T) {
	typ := reflect.TypeOf(struct{ A, B string }{})
	n1 := NewNode(Root, typ, nil, []Key{
		NewLeaf("A", stringType, typ, "x"),
		NewLeaf("B", stringType, typ, "y"),
	})
	n2 := NewNode("elsewhere", typ, nil, []Key{
		NewLeaf("A", stringType, typ, "x"),
		NewLeaf("B", stringType, typ, "y"),
	})
	swapped := NewNode(Root, typ, nil, []Key{
		NewLeaf("A", stringType, typ, "y"),
		NewLeaf("B", stringType, typ, "x"),
	})
	renamed := NewNode(Root, typ, nil, []Key{
		NewLeaf("A", stringType, typ, "x"),
		NewLeaf("C", stringType, typ, "y"),
	})

	assert.True(t, Equal(n1, n2))
	assert.False(t, Equal(n1, swapped))
	assert.False(t, Equal(n1, renamed))
}

func TestUnorderedNodeIgnoresOrderButKeepsDuplicates(t *testing.T) {
	typ := reflect.TypeOf([]int{})
	mk := func(vs ...int) *Node {
		var children []Key
		for i, v := range vs {
			children = append(children, NewLeaf(i, intType, typ, v))
		}
		return NewUnorderedNode(Root, typ, nil, children)
	}

	assert.True(t, Equal(mk(1, 2, 3, 4), mk(4, 3, 2, 1)))
	assert.False(t, Equal(mk(1, 2, 3, 4), mk(1, 2, 3, 5)))
	assert.False(t, Equal(mk(1, 1, 2), mk(1, 2, 2)))
}

func TestEntryKey(t *testing.T) {
	typ := reflect.TypeOf(map[string]int{})
	e1 := NewEntry("a", typ, nil, NewLeaf(nil, stringType, typ, "a"), NewLeaf("a", intType, typ, 1))
	e2 := NewEntry("b", typ, nil, NewLeaf(nil, stringType, typ, "a"), NewLeaf("a", intType, typ, 1))
	e3 := NewEntry("a", typ, nil, NewLeaf(nil, stringType, typ, "a"), NewLeaf("a", intType, typ, 2))
	assert.True(t, Equal(e1, e2))
	assert.False(t, Equal(e1, e3))
}

func TestCircularRegistration(t *testing.T) {
	typ := reflect.TypeOf(struct{ Next interface{} }{})
	stand := NewCircularLeaf("Next", typ, typ)
	assert.True(t, stand.IsCircular())
	assert.Nil(t, stand.Target())

	node := NewNode(Root, typ, nil, []Key{stand})
	assert.False(t, node.IsCircular())
	node.RegisterCircularKey(stand)
	assert.True(t, node.IsCircular())
	assert.Same(t, node, stand.Target())
	assert.Len(t, node.CircularKeys(), 1)

	// the stand-in must not drag its target's content into the fingerprint
	assert.NotEmpty(t, node.Fingerprint())
	assert.True(t, Equal(stand, NewCircularLeaf("other", typ, nil)))
}

func TestEqualNil(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, NewLeaf(nil, nil, nil, nil)))
}
