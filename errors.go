package deepdiff

import (
	"errors"
	"fmt"
	"strings"
)

// PathError is returned when a path is malformed or does not resolve against
// a value
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %s: %s", e.Path, e.Reason)
}

// TypeExclusionError lists exclude_types tags that don't name a known kind.
// It is informational: unrecognized tags are kept as opaque type labels and
// still match opaque values whose Go type name is equal to the tag
type TypeExclusionError struct {
	Tags []string
}

func (e *TypeExclusionError) Error() string {
	return fmt.Sprintf("unrecognized exclude type(s) %s, treating as opaque type names", strings.Join(e.Tags, ", "))
}

// ResourceLimitError is returned when a traversal exceeds one of the
// configured bounds
type ResourceLimitError struct {
	Path  string
	Limit string
	Value int
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("%s: %s limit of %d exceeded", e.Path, e.Limit, e.Value)
}

// DeltaApplicationError reports a delta that could not be applied
type DeltaApplicationError struct {
	Path string
	Op   Operation
	Err  error
}

func (e *DeltaApplicationError) Error() string {
	return fmt.Sprintf("applying %s at %s: %s", e.Op, e.Path, e.Err)
}

func (e *DeltaApplicationError) Unwrap() error { return e.Err }

// UnsupportedValueError is returned for values that can't be classified into
// any kind, like channels & functions
type UnsupportedValueError struct {
	Path string
	Type string
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("%s: unsupported value of type %s", e.Path, e.Type)
}

var (
	// ErrNotFound is wrapped by a DeltaApplicationError when the target of an
	// operation doesn't exist
	ErrNotFound = errors.New("target does not exist")
	// ErrConflict is wrapped by a DeltaApplicationError when an operation would
	// overwrite an existing target
	ErrConflict = errors.New("target already exists")
)
