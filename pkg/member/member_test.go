package member

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Base struct {
	ID     string
	Parent *Base
	hidden int
}

type Child struct {
	Base
	Name    string
	Created time.Time
	Parent1 *Child
	secret  string
}

type WithPointer struct {
	*Base
	Count int
}

func names(ms []Member) []string {
	var ns []string
	for _, m := range ms {
		ns = append(ns, m.Name)
	}
	return ns
}

func TestReflectInlinesEmbeddedStructs(t *testing.T) {
	r := &Reflect{}
	ms := r.Members(reflect.TypeOf(Child{}))
	assert.Equal(t, []string{"ID", "Parent", "Name", "Created", "Parent1"}, names(ms))

	baseType := reflect.TypeOf(Base{})
	childType := reflect.TypeOf(Child{})
	assert.Equal(t, baseType, ms[0].Declaring)
	assert.Equal(t, baseType, ms[1].Declaring)
	assert.Equal(t, childType, ms[2].Declaring)

	// pointers to structs enumerate the same
	assert.Equal(t, ms, r.Members(reflect.TypeOf(&Child{})))
	assert.Nil(t, r.Members(reflect.TypeOf(3)))
}

func TestMemberValue(t *testing.T) {
	r := &Reflect{}
	c := &Child{Base: Base{ID: "b"}, Name: "c"}
	ms := r.Members(reflect.TypeOf(c))

	v, ok := ms[0].Value(reflect.ValueOf(c))
	require.True(t, ok)
	assert.Equal(t, "b", v.Interface())

	v, ok = ms[2].Value(reflect.ValueOf(*c))
	require.True(t, ok)
	assert.Equal(t, "c", v.Interface())
}

func TestMemberThroughNilEmbeddedPointerIsUnreadable(t *testing.T) {
	r := &Reflect{}
	ms := r.Members(reflect.TypeOf(WithPointer{}))
	require.Equal(t, []string{"ID", "Parent", "Count"}, names(ms))

	_, ok := ms[0].Value(reflect.ValueOf(WithPointer{Count: 1}))
	assert.False(t, ok)
	v, ok := ms[2].Value(reflect.ValueOf(WithPointer{Count: 1}))
	assert.True(t, ok)
	assert.Equal(t, 1, v.Interface())

	v, ok = ms[0].Value(reflect.ValueOf(WithPointer{Base: &Base{ID: "x"}}))
	assert.True(t, ok)
	assert.Equal(t, "x", v.Interface())
}

func TestTerminal(t *testing.T) {
	for _, v := range []interface{}{1, int64(1), "s", 1.5, true, time.Time{}, &time.Time{}, new(int)} {
		assert.True(t, Terminal(reflect.TypeOf(v)), "%T", v)
	}
	for _, v := range []interface{}{Base{}, &Base{}, []int{}, map[string]int{}} {
		assert.False(t, Terminal(reflect.TypeOf(v)), "%T", v)
	}
	assert.True(t, Terminal(nil))
}

func TestDefinitions(t *testing.T) {
	d, err := WithDefinitions(&Reflect{}, Definition{
		Type:    reflect.TypeOf(Child{}),
		Members: []string{"Name", "ID"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "ID"}, names(d.Members(reflect.TypeOf(&Child{}))))
	assert.Equal(t, []string{"ID", "Parent"}, names(d.Members(reflect.TypeOf(Base{}))))

	_, err = WithDefinitions(&Reflect{}, Definition{Type: reflect.TypeOf(Child{}), Members: []string{"Nope"}})
	assert.Error(t, err)
	_, err = WithDefinitions(&Reflect{}, Definition{Type: reflect.TypeOf(0)})
	assert.Error(t, err)
	_, err = WithDefinitions(&Reflect{},
		Definition{Type: reflect.TypeOf(Child{})},
		Definition{Type: reflect.TypeOf(&Child{})})
	assert.Error(t, err)
}
