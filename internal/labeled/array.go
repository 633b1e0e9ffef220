package labeled

import (
	"context"
	"fmt"
)

// Array is an immutable labeled array. Implementations never mutate the
// data they were built from.
type Array interface {
	// Axes returns the ordered axes of the array.
	Axes() []Axis
	// Take restricts an axis to the index range [lo, hi).
	Take(axis string, lo, hi int) (Array, error)
	// Eval materializes the array.
	Eval(ctx context.Context) (*Dense, error)
}

// Has reports whether a carries the named axis.
func Has(a Array, axis string) bool {
	return axisIndex(a.Axes(), axis) >= 0
}

// Labels returns the named axis of a, the equivalent of enumerating the
// labels along it.
func Labels(a Array, axis string) (Axis, error) {
	axes := a.Axes()
	k := axisIndex(axes, axis)
	if k < 0 {
		return Axis{}, fmt.Errorf("%w: %q", ErrAxisNotFound, axis)
	}
	return axes[k], nil
}

// Len returns the extent of a along axis.
func Len(a Array, axis string) (int, error) {
	ax, err := Labels(a, axis)
	if err != nil {
		return 0, err
	}
	return ax.Len(), nil
}

// Shape returns the extents of all axes of a.
func Shape(a Array) []int {
	return shapeOf(a.Axes())
}

// Scalar evaluates a zero-dimensional array.
func Scalar(ctx context.Context, a Array) (float64, error) {
	d, err := a.Eval(ctx)
	if err != nil {
		return 0, err
	}
	return d.Scalar()
}

// checkTake validates a Take request against axes and returns the axis
// position.
func checkTake(axes []Axis, axis string, lo, hi int) (int, error) {
	k := axisIndex(axes, axis)
	if k < 0 {
		return 0, fmt.Errorf("%w: %q", ErrAxisNotFound, axis)
	}
	if lo < 0 || hi > axes[k].Len() || lo > hi {
		return 0, fmt.Errorf("%w: range [%d, %d) outside axis %s", ErrShape, lo, hi, axes[k])
	}
	return k, nil
}
