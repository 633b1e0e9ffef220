package labeled

import "errors"

var (
	// ErrAxisNotFound is returned when an operation names an axis the array
	// does not carry.
	ErrAxisNotFound = errors.New("axis not found")
	// ErrLabelNotFound is returned when a label is absent from an axis.
	ErrLabelNotFound = errors.New("label not found")
	// ErrShape is returned when array extents or axes do not line up.
	ErrShape = errors.New("shape mismatch")
)
