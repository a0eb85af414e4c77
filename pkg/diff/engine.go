package diff

import (
	"reflect"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/fluxcd/graphdiff/pkg/circular"
	"github.com/fluxcd/graphdiff/pkg/element"
	"github.com/fluxcd/graphdiff/pkg/key"
	"github.com/fluxcd/graphdiff/pkg/member"
)

const DefaultMaxDepth = 10000

// Config assembles an Engine. The zero value is usable: it diffs
// exported struct fields, ignores nothing, and logs nowhere.
type Config struct {
	// Enumerator lists struct members; member.Reflect if nil.
	Enumerator member.Enumerator
	// Definitions restrict and order the members used for some types.
	Definitions []member.Definition
	// Ignore leaves members out of diffs and comparisons.
	Ignore member.Ignorer
	// Generators are consulted, by exact type and then by interface
	// in the order given, before members are enumerated.
	Generators []Registration
	Logger     log.Logger
	// MaxDepth bounds recursion; DefaultMaxDepth if zero.
	MaxDepth int
}

// Engine diffs and compares object graphs. It is not changed by its
// use, so may be shared between goroutines; every call keeps its own
// state.
type Engine struct {
	members  member.Enumerator
	ignore   member.Ignorer
	exact    map[reflect.Type]Generator
	ifaces   []Registration
	logger   log.Logger
	maxDepth int
}

type validator interface {
	Validate() error
}

// New validates the config and returns an Engine.
func New(c Config) (*Engine, error) {
	e := &Engine{
		members:  c.Enumerator,
		ignore:   c.Ignore,
		exact:    map[reflect.Type]Generator{},
		logger:   c.Logger,
		maxDepth: c.MaxDepth,
	}
	if e.members == nil {
		e.members = &member.Reflect{}
	}
	if len(c.Definitions) > 0 {
		defined, err := member.WithDefinitions(e.members, c.Definitions...)
		if err != nil {
			return nil, errors.Wrap(err, "invalid member definitions")
		}
		e.members = defined
	}
	if e.ignore == nil {
		e.ignore = member.NeverIgnore
	}
	if v, ok := e.ignore.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid ignore configuration")
		}
	}
	if e.logger == nil {
		e.logger = log.NewNopLogger()
	}
	switch {
	case e.maxDepth < 0:
		return nil, errors.Errorf("invalid max depth %d", e.maxDepth)
	case e.maxDepth == 0:
		e.maxDepth = DefaultMaxDepth
	}

	for i, reg := range c.Generators {
		if reg.Type == nil || reg.Generator == nil {
			return nil, errors.Errorf("generator registration %d: type and generator are both required", i)
		}
		if reg.Type.Kind() == reflect.Interface {
			e.ifaces = append(e.ifaces, reg)
			continue
		}
		if _, ok := e.exact[reg.Type]; ok {
			return nil, errors.Errorf("generator registration %d: type %v registered more than once", i, reg.Type)
		}
		e.exact[reg.Type] = reg.Generator
	}
	return e, nil
}

// Diff computes the element tree of the differences between original
// and revised. The only errors are ErrShapeMismatch, when the two
// are (or hold, where a concrete type is declared) values of
// different types, and ErrMaxDepth.
func (e *Engine) Diff(original, revised interface{}) (element.Element, error) {
	r := e.newRun()
	defer r.registry.Reset()

	o, v := reflect.ValueOf(original), reflect.ValueOf(revised)
	var typ reflect.Type
	switch {
	case o.IsValid():
		typ = o.Type()
	case v.IsValid():
		typ = v.Type()
	}

	k := r.generateKey(key.Root, typ, nil, o)
	el, err := r.diff(key.Root, o, v, typ, nil, k)
	if err == nil {
		err = r.err
	}
	if err != nil {
		return nil, err
	}
	return el, nil
}

// Compare reports whether a and b are deeply equal, member by member.
// Values of different types are never equal. Cycles are assumed to be
// equal when re-entered.
func (e *Engine) Compare(a, b interface{}) bool {
	r := e.newRun()
	defer r.registry.Reset()

	equal := r.compare(reflect.ValueOf(a), reflect.ValueOf(b))
	if r.err != nil {
		level.Warn(e.logger).Log("method", "Compare", "err", r.err)
		return false
	}
	return equal
}

func (e *Engine) newRun() *run {
	return &run{
		engine:   e,
		registry: circular.New(),
		built:    map[circular.Ref]*key.Node{},
	}
}
