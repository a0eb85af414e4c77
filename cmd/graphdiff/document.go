package main

import (
	"io"
	"io/ioutil"

	"github.com/Jeffail/gabs"
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	gderrors "github.com/fluxcd/graphdiff/pkg/errors"
)

// loadDocuments reads the two documents named in args, and selects
// path from each if it is given. A document named "-" is read from in.
func loadDocuments(in io.Reader, args []string, path string) (original, revised interface{}, err error) {
	if len(args) != 2 {
		return nil, nil, errorWantedTwoArgs
	}
	if args[0] == "-" && args[1] == "-" {
		return nil, nil, newUsageError("only one document can be read from stdin")
	}
	if original, err = loadDocument(in, args[0], path); err != nil {
		return nil, nil, err
	}
	if revised, err = loadDocument(in, args[1], path); err != nil {
		return nil, nil, err
	}
	return original, revised, nil
}

func loadDocument(in io.Reader, name, path string) (interface{}, error) {
	var bytes []byte
	var err error
	if name == "-" {
		bytes, err = ioutil.ReadAll(in)
	} else {
		bytes, err = ioutil.ReadFile(name)
	}
	if err != nil {
		return nil, gderrors.MissingDocument(name, err)
	}

	// YAML is decoded by way of JSON, so objects are always
	// map[string]interface{} and numbers float64.
	var doc interface{}
	if err := yaml.Unmarshal(bytes, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", name)
	}
	return selectPath(doc, path)
}

func selectPath(doc interface{}, path string) (interface{}, error) {
	if path == "" {
		return doc, nil
	}
	container, err := gabs.Consume(doc)
	if err != nil {
		return nil, err
	}
	if !container.ExistsP(path) {
		return nil, gderrors.MissingPath(path)
	}
	return container.Path(path).Data(), nil
}
