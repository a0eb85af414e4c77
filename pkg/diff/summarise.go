package diff

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fluxcd/graphdiff/pkg/element"
)

// Change is a modified leaf of an element tree.
type Change struct {
	Path  string      `json:"path" yaml:"path"`
	Value interface{} `json:"value" yaml:"value"`
	// Circular is set for leaves standing in for a re-entered cycle.
	Circular bool `json:"circular,omitempty" yaml:"circular,omitempty"`
}

// Changes lists the modified leaves under e, depth first.
func Changes(e element.Element) []Change {
	var changes []Change
	collectChanges("", e, &changes)
	return changes
}

func collectChanges(path string, e element.Element, changes *[]Change) {
	if e == nil || e.Status() == element.Equal {
		return
	}
	switch e := e.(type) {
	case *element.Leaf:
		if path == "" {
			path = "."
		}
		*changes = append(*changes, Change{
			Path:     path,
			Value:    e.Value(),
			Circular: e.IsCircular(),
		})
	case *element.Node:
		for _, c := range e.Children() {
			collectChanges(path+pathElement(c), c, changes)
		}
	}
}

// Paths lists the paths of the modified leaves under e.
func Paths(e element.Element) []string {
	var paths []string
	for _, c := range Changes(e) {
		paths = append(paths, c.Path)
	}
	return paths
}

// Summarise writes one line per modified leaf under e.
func Summarise(out io.Writer, e element.Element) {
	for _, c := range Changes(e) {
		switch {
		case c.Circular:
			fmt.Fprintf(out, "%s: circular reference\n", c.Path)
		case c.Value == nil:
			fmt.Fprintf(out, "%s: removed\n", c.Path)
		default:
			fmt.Fprintf(out, "%s: %#v\n", c.Path, c.Value)
		}
	}
}

// pathElement renders a member name as `.Name`, a position as `[2]`
// and a map key as `["key"]`.
func pathElement(e element.Element) string {
	switch n := e.Name().(type) {
	case int:
		return fmt.Sprintf("[%d]", n)
	case string:
		if k := e.Key(); k != nil && k.Container() != nil && k.Container().Kind() == reflect.Map {
			return fmt.Sprintf("[%q]", n)
		}
		return "." + n
	default:
		return fmt.Sprintf("[%v]", n)
	}
}
