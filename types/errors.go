package types

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by hierarchy operations. Match them with errors.Is.
var (
	// ErrNotFound is returned when an operation references an absent id.
	ErrNotFound = errors.New("node not found")

	// ErrNotFolder is returned when an operation expects a folder but gets a leaf.
	ErrNotFolder = errors.New("node is not a folder")

	// ErrInvalidParent is returned when a parent id is absent or not a folder.
	ErrInvalidParent = errors.New("invalid parent")

	// ErrCycle is returned when a move would make a folder its own ancestor.
	ErrCycle = errors.New("move would create a cycle")

	// ErrMalformedRecord marks a persisted node record that could not be decoded.
	ErrMalformedRecord = errors.New("malformed node record")

	// ErrDanglingReference marks a listed id that has no node behind it.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrAmbiguous is returned when an id prefix matches more than one node.
	ErrAmbiguous = errors.New("ambiguous id prefix")
)

// NodeError ties a structural error to the operation and node that caused it
type NodeError struct {
	Op  string // Operation name, e.g. "move"
	ID  string // The node the operation was about
	Err error  // One of the sentinel errors above
}

func (e *NodeError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

// Unwrap returns the underlying sentinel error for errors.Is
func (e *NodeError) Unwrap() error {
	return e.Err
}

// NewNodeError builds a NodeError
func NewNodeError(op, id string, err error) *NodeError {
	return &NodeError{Op: op, ID: id, Err: err}
}
