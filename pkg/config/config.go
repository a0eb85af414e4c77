// config is the package containing the configuration file of
// graphdiff, and its translation into the options of a diff engine.
package config

import (
	"bytes"
	"io/ioutil"
	"reflect"

	"github.com/Masterminds/semver/v3"
	jsonyaml "github.com/ghodss/yaml"
	"github.com/go-kit/kit/log"
	"github.com/hashicorp/go-multierror"
	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v2"

	"github.com/fluxcd/graphdiff/pkg/diff"
	"github.com/fluxcd/graphdiff/pkg/member"
)

const (
	ConfigName = "graphdiff.yaml"
	// ConfigVersions is the range of `version` values understood.
	ConfigVersions = "~1"
)

// IgnoreRule leaves out the members of one type that match any of
// Members. Declared gives patterns for members promoted from the
// named embedded types.
type IgnoreRule struct {
	Type     string              `yaml:"type"`
	Members  []string            `yaml:"members"`
	Declared map[string][]string `yaml:"declared"`
}

// Definition lists the members compared for a type, in order.
type Definition struct {
	Type    string   `yaml:"type"`
	Members []string `yaml:"members"`
}

type Config struct {
	// The value determines how the config file is interpreted: if
	// it is not in the range ConfigVersions, it is considered an
	// invalid configuration.
	Version string `yaml:"version"`

	LogFormat string `yaml:"logFormat"`
	MaxDepth  int    `yaml:"maxDepth"`

	// Unordered names slice types diffed as multisets.
	Unordered   []string     `yaml:"unordered"`
	Ignore      []IgnoreRule `yaml:"ignore"`
	Definitions []Definition `yaml:"definitions"`
}

// Defaults fill in whatever a config file leaves out.
var Defaults = Config{
	Version:   "1",
	LogFormat: "fmt",
	MaxDepth:  diff.DefaultMaxDepth,
}

// Default returns a copy of Defaults.
func Default() *Config {
	c := Defaults
	return &c
}

func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates a config file and decodes it, filling in defaults.
// All the problems found by validation are returned together.
func Parse(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Default(), nil
	}
	if err := validate(data); err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := mergo.Merge(&c, Defaults); err != nil {
		return nil, errors.Wrap(err, "applying config defaults")
	}
	if err := c.IsValid(); err != nil {
		return nil, err
	}
	return &c, nil
}

func validate(data []byte) error {
	doc, err := jsonyaml.YAMLToJSON(data)
	if err != nil {
		return errors.Wrap(err, "decoding config")
	}
	if string(doc) == "null" {
		doc = []byte("{}")
	}
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.Wrap(err, "validating config")
	}
	if result.Valid() {
		return nil
	}
	var errs *multierror.Error
	for _, e := range result.Errors() {
		errs = multierror.Append(errs, errors.New(e.String()))
	}
	return errs.ErrorOrNil()
}

func (c Config) IsValid() error {
	v, err := semver.NewVersion(c.Version)
	if err != nil {
		return errors.Wrapf(err, "config version %q", c.Version)
	}
	constraint, err := semver.NewConstraint(ConfigVersions)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return errors.Errorf("config version %s is not supported; expected a version in %s", v, ConfigVersions)
	}
	return nil
}

// Engine translates the config into the options of a diff engine,
// resolving type names with types. Every name that can't be resolved,
// and every type used in a way it can't be, is reported.
func (c *Config) Engine(types *TypeResolver, logger log.Logger) (diff.Config, error) {
	var errs *multierror.Error
	dc := diff.Config{
		Logger:   logger,
		MaxDepth: c.MaxDepth,
	}

	var ignore member.IgnoreList
	for i, rule := range c.Ignore {
		t, err := types.Resolve(rule.Type)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "ignore %d", i))
			continue
		}
		ignored := member.Ignore(t, rule.Members...)
		for name, patterns := range rule.Declared {
			declaring, err := types.Resolve(name)
			if err != nil {
				errs = multierror.Append(errs, errors.Wrapf(err, "ignore %d: declared", i))
				continue
			}
			ignored.Declaring(declaring, patterns...)
		}
		if err := ignored.Validate(); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "ignore %d", i))
			continue
		}
		ignore = append(ignore, ignored)
	}
	if len(ignore) > 0 {
		dc.Ignore = ignore
	}

	for i, def := range c.Definitions {
		t, err := types.Resolve(def.Type)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "definition %d", i))
			continue
		}
		dc.Definitions = append(dc.Definitions, member.Definition{Type: t, Members: def.Members})
	}

	seen := map[string]bool{}
	for _, name := range c.Unordered {
		if seen[name] {
			errs = multierror.Append(errs, errors.Errorf("unordered: %q given more than once", name))
			continue
		}
		seen[name] = true
		t, err := types.Resolve(name)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "unordered"))
			continue
		}
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			errs = multierror.Append(errs, errors.Errorf("unordered: %q is not a list type", name))
			continue
		}
		dc.Generators = append(dc.Generators, diff.Registration{Type: t, Generator: diff.Unordered})
	}

	return dc, errs.ErrorOrNil()
}
