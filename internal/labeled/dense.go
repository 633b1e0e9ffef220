package labeled

import (
	"context"
	"fmt"

	"github.com/ctessum/sparse"
)

// Dense is a materialized array stored in row-major order.
type Dense struct {
	axes []Axis
	data *sparse.DenseArray
}

// NewDense wraps values laid out in row-major order along axes. The slice is
// owned by the returned array.
func NewDense(axes []Axis, values []float64) (*Dense, error) {
	if err := checkUnique(axes); err != nil {
		return nil, err
	}
	shape := shapeOf(axes)
	n := 1
	for _, s := range shape {
		n *= s
	}
	if len(values) != n {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShape, len(values), shape)
	}
	return &Dense{axes: copyAxes(axes), data: newStorage(shape, values)}, nil
}

// newStorage returns a dense array of the given shape. A nil values slice
// allocates zeros; otherwise values is adopted and must match the shape.
func newStorage(shape []int, values []float64) *sparse.DenseArray {
	if values == nil {
		return sparse.ZerosDense(shape...)
	}
	data := &sparse.DenseArray{Shape: shape, Elements: values}
	data.Fix()
	return data
}

// Full returns an array filled with value.
func Full(value float64, axes ...Axis) (*Dense, error) {
	if len(axes) == 0 {
		return NewDense(nil, []float64{value})
	}
	if err := checkUnique(axes); err != nil {
		return nil, err
	}
	data := newStorage(shapeOf(axes), nil)
	for i := range data.Elements {
		data.Elements[i] = value
	}
	return &Dense{axes: copyAxes(axes), data: data}, nil
}

// Axes implements Array.
func (d *Dense) Axes() []Axis { return copyAxes(d.axes) }

// Shape returns the extent of every axis.
func (d *Dense) Shape() []int { return append([]int(nil), d.data.Shape...) }

// Values returns the row-major storage. Callers must not modify it.
func (d *Dense) Values() []float64 { return d.data.Elements }

// At returns the element at the given index.
func (d *Dense) At(idx ...int) float64 {
	if len(idx) == 0 {
		return d.data.Elements[0]
	}
	return d.data.Get(idx...)
}

// Scalar returns the single value of a zero-dimensional array.
func (d *Dense) Scalar() (float64, error) {
	if len(d.axes) != 0 {
		return 0, fmt.Errorf("%w: scalar requested from axes %v", ErrShape, d.axes)
	}
	return d.data.Elements[0], nil
}

// Eval implements Array.
func (d *Dense) Eval(context.Context) (*Dense, error) { return d, nil }

// Take implements Array. The result is a copy.
func (d *Dense) Take(axis string, lo, hi int) (Array, error) {
	k, err := checkTake(d.axes, axis, lo, hi)
	if err != nil {
		return nil, err
	}
	return d.take(k, lo, hi), nil
}

func (d *Dense) take(k, lo, hi int) *Dense {
	outer, n, inner := split(d.data.Shape, k)
	m := hi - lo
	axes := replaced(d.axes, k, d.axes[k].Slice(lo, hi))
	data := newStorage(shapeOf(axes), nil)
	out, src := data.Elements, d.data.Elements
	for o := 0; o < outer; o++ {
		copy(out[o*m*inner:(o+1)*m*inner], src[(o*n+lo)*inner:(o*n+hi)*inner])
	}
	return &Dense{axes: axes, data: data}
}

// drop removes an axis of extent one.
func (d *Dense) drop(k int) *Dense {
	axes := without(d.axes, k)
	return &Dense{axes: axes, data: newStorage(shapeOf(axes), d.data.Elements)}
}

// collapse reduces axis k with fn.
func (d *Dense) collapse(k int, fn func([]float64) float64) *Dense {
	outer, n, inner := split(d.data.Shape, k)
	axes := without(d.axes, k)
	data := newStorage(shapeOf(axes), nil)
	out := data.Elements
	lane := make([]float64, n)
	src := d.data.Elements
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*n*inner + in
			for i := 0; i < n; i++ {
				lane[i] = src[base+i*inner]
			}
			out[o*inner+in] = fn(lane)
		}
	}
	return &Dense{axes: axes, data: data}
}

// split returns the product of extents before k, the extent of k and the
// product of extents after k.
func split(shape []int, k int) (outer, n, inner int) {
	outer, inner = 1, 1
	for i, s := range shape {
		switch {
		case i < k:
			outer *= s
		case i > k:
			inner *= s
		}
	}
	return outer, shape[k], inner
}

// concat joins arrays that share all axes but k along k.
func concat(parts []*Dense, k int) (*Dense, error) {
	if len(parts) == 1 {
		return parts[0], nil
	}
	first := parts[0].axes
	labels := make([]Axis, len(parts))
	total := 0
	for i, p := range parts {
		if len(p.axes) != len(first) {
			return nil, fmt.Errorf("%w: concatenating arrays of rank %d and %d", ErrShape, len(first), len(p.axes))
		}
		for j := range first {
			if j != k && !p.axes[j].Equal(first[j]) {
				return nil, fmt.Errorf("%w: axis %s differs between chunks", ErrShape, first[j])
			}
		}
		labels[i] = p.axes[k]
		total += p.axes[k].Len()
	}
	outer, _, inner := split(parts[0].data.Shape, k)
	out := make([]float64, 0, outer*total*inner)
	for o := 0; o < outer; o++ {
		for _, p := range parts {
			m := p.axes[k].Len()
			out = append(out, p.data.Elements[o*m*inner:(o+1)*m*inner]...)
		}
	}
	axes := replaced(first, k, concatAxes(labels))
	return &Dense{axes: axes, data: newStorage(shapeOf(axes), out)}, nil
}
