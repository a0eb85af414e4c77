package diff

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcd/graphdiff/pkg/element"
	"github.com/fluxcd/graphdiff/pkg/key"
)

type Label struct {
	Value string
}

type Document struct {
	Title     string
	Label     Label
	LabelStar *Label
}

// caseInsensitive treats labels differing only in case as the same.
type caseInsensitive struct{}

func labelValue(v reflect.Value) string {
	return reflect.Indirect(v).FieldByName("Value").String()
}

func (caseInsensitive) Compare(c Comparer, a, b reflect.Value) bool {
	return strings.EqualFold(labelValue(a), labelValue(b))
}

func (g caseInsensitive) Diff(d Differ, name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error) {
	status := element.Modified
	if original.IsValid() && g.Compare(d, original, revised) {
		status = element.Equal
	}
	return element.NewLeaf(name, status, k, revised.Interface()), nil
}

func (caseInsensitive) GenerateKey(d Differ, name interface{}, typ, container reflect.Type, v reflect.Value) key.Key {
	return key.NewLeaf(name, typ, container, strings.ToLower(labelValue(v)))
}

func TestCustomGenerator(t *testing.T) {
	e := mustEngine(t, Config{
		Generators: []Registration{{Type: reflect.TypeOf(Label{}), Generator: caseInsensitive{}}},
	})

	a := Document{Title: "t", Label: Label{"ABC"}, LabelStar: &Label{"ABC"}}
	b := Document{Title: "t", Label: Label{"abc"}, LabelStar: &Label{"Abc"}}
	assert.True(t, e.Compare(a, b))
	assert.Equal(t, element.Equal, mustDiff(t, e, a, b).Status())

	b.LabelStar = &Label{"abd"}
	assert.False(t, e.Compare(a, b))
	assert.Equal(t, []string{".LabelStar"}, Paths(mustDiff(t, e, a, b)))

	plain := mustEngine(t, Config{})
	assert.False(t, plain.Compare(Document{Label: Label{"ABC"}}, Document{Label: Label{"abc"}}))
}

func TestCustomGeneratorKeysMatchInUnorderedContainers(t *testing.T) {
	e := mustEngine(t, Config{
		Generators: []Registration{
			{Type: reflect.TypeOf(Label{}), Generator: caseInsensitive{}},
			{Type: reflect.TypeOf([]Label{}), Generator: Unordered},
		},
	})
	a := []Label{{"One"}, {"Two"}}
	b := []Label{{"two"}, {"ONE"}}
	assert.Equal(t, element.Equal, mustDiff(t, e, a, b).Status())
}

type named string

func (n named) String() string {
	return string(n)
}

type Tagged struct {
	Name named
}

func (t Tagged) String() string {
	return string(t.Name)
}

// byString compares anything by its String method.
type byString struct {
	calls *int
}

func (g byString) Compare(c Comparer, a, b reflect.Value) bool {
	*g.calls++
	return fmt.Sprint(a.Interface()) == fmt.Sprint(b.Interface())
}

func (g byString) Diff(d Differ, name interface{}, original, revised reflect.Value, typ, container reflect.Type, k key.Key) (element.Element, error) {
	status := element.Modified
	if original.IsValid() && g.Compare(d, original, revised) {
		status = element.Equal
	}
	return element.NewLeaf(name, status, k, fmt.Sprint(revised.Interface())), nil
}

func (byString) GenerateKey(d Differ, name interface{}, typ, container reflect.Type, v reflect.Value) key.Key {
	return key.NewLeaf(name, typ, container, fmt.Sprint(v.Interface()))
}

func TestInterfaceRegistrationOrder(t *testing.T) {
	stringer := reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	var first, second int
	e := mustEngine(t, Config{
		Generators: []Registration{
			{Type: stringer, Generator: byString{&first}},
			{Type: stringer, Generator: byString{&second}},
		},
	})

	assert.True(t, e.Compare(Tagged{"a"}, Tagged{"a"}))
	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)

	el := mustDiff(t, e, Tagged{"a"}, Tagged{"b"})
	require.IsType(t, &element.Leaf{}, el)
	assert.Equal(t, "b", el.(*element.Leaf).Value())
}

type fancy interface {
	fmt.Stringer
	Fancy() bool
}

type Fancied struct {
	Name named
}

func (f Fancied) String() string {
	return string(f.Name)
}

func (Fancied) Fancy() bool {
	return true
}

func TestMostSpecificInterfaceWins(t *testing.T) {
	stringer := reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	fancyType := reflect.TypeOf((*fancy)(nil)).Elem()
	var plain, special int
	e := mustEngine(t, Config{
		Generators: []Registration{
			{Type: stringer, Generator: byString{&plain}},
			{Type: fancyType, Generator: byString{&special}},
		},
	})

	assert.True(t, e.Compare(Fancied{"a"}, Fancied{"a"}))
	assert.Equal(t, 0, plain)
	assert.Equal(t, 1, special)

	assert.True(t, e.Compare(Tagged{"a"}, Tagged{"a"}))
	assert.Equal(t, 1, plain)
	assert.Equal(t, 1, special)
}

func TestExactRegistrationWinsOverInterface(t *testing.T) {
	stringer := reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	var calls int
	e := mustEngine(t, Config{
		Generators: []Registration{
			{Type: stringer, Generator: byString{&calls}},
			{Type: reflect.TypeOf(Tagged{}), Generator: Ordered},
		},
	})
	assert.Equal(t, Ordered, e.generator(reflect.TypeOf(Tagged{})))
	assert.Equal(t, pointer{}, e.generator(reflect.TypeOf(&Tagged{})))
	assert.Equal(t, Mapping, e.generator(reflect.TypeOf(map[string]int{})))
	assert.Equal(t, Set, e.generator(reflect.TypeOf(map[int]struct{}{})))
	assert.Nil(t, e.generator(reflect.TypeOf(Document{})))
}

func TestInvalidRegistrations(t *testing.T) {
	_, err := New(Config{Generators: []Registration{{Type: reflect.TypeOf(Label{})}}})
	assert.Error(t, err)

	_, err = New(Config{Generators: []Registration{
		{Type: reflect.TypeOf(Label{}), Generator: caseInsensitive{}},
		{Type: reflect.TypeOf(Label{}), Generator: caseInsensitive{}},
	}})
	assert.Error(t, err)
}
