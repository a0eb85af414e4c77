package config

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"
)

// TypeResolver maps the type names used in a config file to Go types.
// The names object, array, string, number and bool are always known;
// they are the types YAML and JSON documents decode to.
type TypeResolver struct {
	types map[string]reflect.Type
}

func NewTypeResolver() *TypeResolver {
	return &TypeResolver{
		types: map[string]reflect.Type{
			"object": reflect.TypeOf(map[string]interface{}{}),
			"array":  reflect.TypeOf([]interface{}{}),
			"string": reflect.TypeOf(""),
			"number": reflect.TypeOf(float64(0)),
			"bool":   reflect.TypeOf(false),
		},
	}
}

// Register makes t known by name. Names are registered once.
func (r *TypeResolver) Register(name string, t reflect.Type) error {
	if name == "" || t == nil {
		return errors.New("a type needs both a name and a Go type")
	}
	if existing, ok := r.types[name]; ok {
		return errors.Errorf("type name %q already refers to %v", name, existing)
	}
	r.types[name] = t
	return nil
}

func (r *TypeResolver) Resolve(name string) (reflect.Type, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, errors.Errorf("unknown type %q", name)
	}
	return t, nil
}

// Names returns the known type names, sorted.
func (r *TypeResolver) Names() []string {
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
