package member

import (
	"reflect"

	"github.com/pkg/errors"
)

// This is to represent the "is this member left out" predicate,
// consulted for every member of a struct (and every entry of a string
// keyed map) before it is diffed.

type Ignorer interface {
	IsIgnored(container, declaring reflect.Type, name string) bool
}

type IgnorerFunc func(container, declaring reflect.Type, name string) bool

func (f IgnorerFunc) IsIgnored(container, declaring reflect.Type, name string) bool {
	return f(container, declaring, name)
}

var NeverIgnore = IgnorerFunc(func(reflect.Type, reflect.Type, string) bool { return false })

// IgnoredMembers lists the members left out when diffing values of
// one container type. Patterns given to Ignore apply to members the
// type declares itself; patterns for members promoted from an
// embedded struct are given per declaring type with Declaring.
type IgnoredMembers struct {
	Type     reflect.Type
	Members  []Pattern
	Declared map[reflect.Type][]Pattern
}

// Ignore returns the ignored members of t; see NewPattern for the
// pattern syntax.
func Ignore(t reflect.Type, patterns ...string) *IgnoredMembers {
	return &IgnoredMembers{
		Type:     normalise(t),
		Members:  compile(patterns),
		Declared: map[reflect.Type][]Pattern{},
	}
}

// Declaring adds patterns for members of t that are declared by the
// (embedded) type declaring.
func (i *IgnoredMembers) Declaring(declaring reflect.Type, patterns ...string) *IgnoredMembers {
	declaring = normalise(declaring)
	i.Declared[declaring] = append(i.Declared[declaring], compile(patterns)...)
	return i
}

func compile(patterns []string) []Pattern {
	ps := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		ps = append(ps, NewPattern(p))
	}
	return ps
}

func normalise(t reflect.Type) reflect.Type {
	if s := structType(t); s != nil {
		return s
	}
	return t
}

// Validate returns an error naming the first invalid pattern.
func (i *IgnoredMembers) Validate() error {
	if i.Type == nil {
		return errors.Errorf("ignored members: no type given")
	}
	for _, p := range i.Members {
		if err := p.Err(); err != nil {
			return errors.Errorf("ignored members of %v: %v", i.Type, err)
		}
	}
	for t, ps := range i.Declared {
		for _, p := range ps {
			if err := p.Err(); err != nil {
				return errors.Errorf("ignored members of %v declared by %v: %v", i.Type, t, err)
			}
		}
	}
	return nil
}

// IsIgnored implements Ignorer using the logic:
//  - members of other container types are never ignored here
//  - members the type declares itself are matched against Members
//  - promoted members are matched against the patterns of their declaring type.
func (i *IgnoredMembers) IsIgnored(container, declaring reflect.Type, name string) bool {
	if normalise(container) != i.Type {
		return false
	}
	patterns := i.Members
	if declaring = normalise(declaring); declaring != nil && declaring != i.Type {
		patterns = i.Declared[declaring]
	}
	for _, p := range patterns {
		if p.Matches(name) {
			return true
		}
	}
	return false
}

// IgnoreList is an Ignorer over several container types.
type IgnoreList []*IgnoredMembers

func (l IgnoreList) IsIgnored(container, declaring reflect.Type, name string) bool {
	for _, i := range l {
		if i.IsIgnored(container, declaring, name) {
			return true
		}
	}
	return false
}

func (l IgnoreList) Validate() error {
	for _, i := range l {
		if err := i.Validate(); err != nil {
			return err
		}
	}
	return nil
}
