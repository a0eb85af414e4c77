package diff

import (
	"github.com/pkg/errors"
)

var (
	// ErrShapeMismatch is returned when the revised value is not of the
	// type the original value (or the member holding it) declares.
	ErrShapeMismatch = errors.New("diff objects must have the same type")
	// ErrMaxDepth is returned when a diff recurses deeper than the
	// configured limit.
	ErrMaxDepth = errors.New("maximum recursion depth exceeded")
)
