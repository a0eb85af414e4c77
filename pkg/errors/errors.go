package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Representation of errors reported to people running graphdiff.
// These are divided into a small number of categories, essentially
// distinguished by whose fault the error is; i.e., is this error:
//  - a bug or resource limit inside graphdiff itself?
//  - a file or path that doesn't exist?
//  - not going to work until the user changes their input or config?
type Error struct {
	Type Type
	// a message that can be printed out for the user
	Help string `json:"help"`
	// the underlying error that can be e.g., logged for developers to look at
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Cause() error {
	return e.Err
}

type Type string

const (
	// The input looked fine, but something went wrong while diffing it
	Server Type = "server"
	// The document or path you mentioned just doesn't exist
	Missing = "missing"
	// The input was read, but can't be diffed as given (e.g., the
	// config file is invalid, or the documents have different shapes)
	User = "user"
)

func IsMissing(err error) bool {
	if err, ok := err.(*Error); ok && err.Type == Missing {
		return true
	}
	return false
}

func IsUser(err error) bool {
	if err, ok := err.(*Error); ok && err.Type == User {
		return true
	}
	return false
}

// wireError is an Error as written by `graphdiff diff -o json`.
type wireError struct {
	Type Type   `json:"type"`
	Help string `json:"help"`
	Err  string `json:"error,omitempty"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	w := wireError{Type: e.Type, Help: e.Help}
	if e.Err != nil {
		w.Err = e.Err.Error()
	}
	return json.Marshal(w)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	var w wireError
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Error{Type: w.Type, Help: w.Help}
	if w.Err != "" {
		e.Err = errors.New(w.Err)
	}
	return nil
}

func MissingDocument(path string, err error) *Error {
	return &Error{
		Type: Missing,
		Err:  err,
		Help: `Could not read the document at

    ` + path + `

Check that the file exists and is readable. Use "-" to read a document
from standard input.
`,
	}
}

func MissingPath(path string) *Error {
	return &Error{
		Type: Missing,
		Err:  fmt.Errorf("path %q not found", path),
		Help: `The path

    ` + path + `

does not exist in one of the documents. Paths are dot separated keys
of nested objects, for example "spec.template.metadata".
`,
	}
}

func InvalidConfig(path string, err error) *Error {
	return &Error{
		Type: User,
		Err:  err,
		Help: `The config file ` + path + ` is not valid:

    ` + err.Error() + `

A config file looks like

    version: "1"
    maxDepth: 1000
    unordered: [array]
    ignore:
    - type: object
      members: ["metadata.*", "regexp:^status$"]

and may be left out altogether to diff with the defaults.
`,
	}
}

func ShapeMismatch(err error) *Error {
	return &Error{
		Type: User,
		Err:  err,
		Help: `The documents can't be diffed: ` + err.Error() + `

This happens when a value is, for example, an object in one document
and a list in the other. Use --path to diff the parts of the documents
that have the same shape.
`,
	}
}

func DepthExceeded(err error) *Error {
	return &Error{
		Type: Server,
		Err:  err,
		Help: `The documents are nested too deeply to diff: ` + err.Error() + `

Raise maxDepth in the config file to allow deeper documents.
`,
	}
}

func CoverAllError(err error) *Error {
	return &Error{
		Type: User,
		Err:  err,
		Help: `Error: ` + err.Error() + `

We don't have a specific help message for the error above.

It would help us remedy this if you log an issue at

    https://github.com/fluxcd/graphdiff/issues

saying what you were doing when you saw this, and quoting the message
at the top.
`,
	}
}
