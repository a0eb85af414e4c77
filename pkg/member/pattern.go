package member

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/ryanuber/go-glob"
)

// Pattern matches member names, and the string keys of maps.
type Pattern interface {
	Matches(name string) bool
	// String returns the pattern with its prefix.
	String() string
	// Err is non-nil for a pattern that can't be used; such a
	// pattern matches nothing.
	Err() error
}

// parsers by prefix; a pattern with none of these is a glob.
var parsers = []struct {
	prefix string
	parse  func(string) Pattern
}{
	{"glob:", func(s string) Pattern { return GlobPattern(s) }},
	{"exact:", func(s string) Pattern { return ExactPattern(s) }},
	{"regexp:", newRegexpPattern},
	{"regex:", newRegexpPattern},
}

// NewPattern parses pattern according to its prefix: `glob:` (the
// default), `exact:`, or `regexp:` (also `regex:`). Regular
// expressions are unanchored, so `regexp:^status$` is needed to match
// exactly status.
func NewPattern(pattern string) Pattern {
	for _, p := range parsers {
		if strings.HasPrefix(pattern, p.prefix) {
			return p.parse(strings.TrimPrefix(pattern, p.prefix))
		}
	}
	return GlobPattern(pattern)
}

// GlobPattern matches with `*` as a wildcard for any run of characters.
type GlobPattern string

func (g GlobPattern) Matches(name string) bool {
	return glob.Glob(string(g), name)
}

func (g GlobPattern) String() string {
	return "glob:" + string(g)
}

func (g GlobPattern) Err() error {
	return nil
}

// ExactPattern matches only the name itself, for names holding `*`.
type ExactPattern string

func (e ExactPattern) Matches(name string) bool {
	return string(e) == name
}

func (e ExactPattern) String() string {
	return "exact:" + string(e)
}

func (e ExactPattern) Err() error {
	return nil
}

type RegexpPattern struct {
	source string
	re     *regexp.Regexp
	err    error
}

func newRegexpPattern(source string) Pattern {
	re, err := regexp.Compile(source)
	return RegexpPattern{source: source, re: re, err: errors.Wrapf(err, "regexp %q", source)}
}

func (r RegexpPattern) Matches(name string) bool {
	return r.re != nil && r.re.MatchString(name)
}

func (r RegexpPattern) String() string {
	return "regexp:" + r.source
}

func (r RegexpPattern) Err() error {
	return r.err
}
