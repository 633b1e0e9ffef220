package labeled

import (
	"context"
	"fmt"
)

// Xs selects the slice of a at label along axis. The axis is removed from
// the result.
func Xs(a Array, axis, label string) (Array, error) {
	axes := a.Axes()
	k := axisIndex(axes, axis)
	if k < 0 {
		return nil, fmt.Errorf("%w: %q", ErrAxisNotFound, axis)
	}
	i, ok := axes[k].Index(label)
	if !ok {
		return nil, fmt.Errorf("%w: %q along %q", ErrLabelNotFound, label, axis)
	}
	return &xsNode{src: a, axis: axis, idx: i, axes: without(axes, k)}, nil
}

type xsNode struct {
	src  Array
	axis string
	idx  int
	axes []Axis
}

func (n *xsNode) Axes() []Axis { return copyAxes(n.axes) }

func (n *xsNode) Take(axis string, lo, hi int) (Array, error) {
	if _, err := checkTake(n.axes, axis, lo, hi); err != nil {
		return nil, err
	}
	src, err := n.src.Take(axis, lo, hi)
	if err != nil {
		return nil, err
	}
	return &xsNode{src: src, axis: n.axis, idx: n.idx, axes: without(src.Axes(), axisIndex(src.Axes(), n.axis))}, nil
}

func (n *xsNode) Eval(ctx context.Context) (*Dense, error) {
	sub, err := n.src.Take(n.axis, n.idx, n.idx+1)
	if err != nil {
		return nil, err
	}
	d, err := sub.Eval(ctx)
	if err != nil {
		return nil, err
	}
	return d.drop(axisIndex(d.axes, n.axis)), nil
}

// Derived combines the slices of a at labels along axis elementwise with fn.
// The axis is removed from the result.
func Derived(a Array, axis string, labels []string, fn func(v ...float64) float64) (Array, error) {
	axes := a.Axes()
	k := axisIndex(axes, axis)
	if k < 0 {
		return nil, fmt.Errorf("%w: %q", ErrAxisNotFound, axis)
	}
	idxs := make([]int, len(labels))
	for i, label := range labels {
		j, ok := axes[k].Index(label)
		if !ok {
			return nil, fmt.Errorf("%w: %q along %q", ErrLabelNotFound, label, axis)
		}
		idxs[i] = j
	}
	return &derivedNode{src: a, axis: axis, idxs: idxs, fn: fn, axes: without(axes, k)}, nil
}

type derivedNode struct {
	src  Array
	axis string
	idxs []int
	fn   func(v ...float64) float64
	axes []Axis
}

func (n *derivedNode) Axes() []Axis { return copyAxes(n.axes) }

func (n *derivedNode) Take(axis string, lo, hi int) (Array, error) {
	if _, err := checkTake(n.axes, axis, lo, hi); err != nil {
		return nil, err
	}
	src, err := n.src.Take(axis, lo, hi)
	if err != nil {
		return nil, err
	}
	sa := src.Axes()
	return &derivedNode{src: src, axis: n.axis, idxs: n.idxs, fn: n.fn, axes: without(sa, axisIndex(sa, n.axis))}, nil
}

func (n *derivedNode) Eval(ctx context.Context) (*Dense, error) {
	inputs := make([][]float64, len(n.idxs))
	for i, idx := range n.idxs {
		sub, err := n.src.Take(n.axis, idx, idx+1)
		if err != nil {
			return nil, err
		}
		d, err := sub.Eval(ctx)
		if err != nil {
			return nil, err
		}
		inputs[i] = d.Values()
	}
	size := 1
	for _, s := range shapeOf(n.axes) {
		size *= s
	}
	out := make([]float64, size)
	args := make([]float64, len(inputs))
	for j := range out {
		for i, in := range inputs {
			args[i] = in[j]
		}
		out[j] = n.fn(args...)
	}
	return NewDense(n.axes, out)
}

// Apply maps fn over every element of a.
func Apply(a Array, fn func(float64) float64) Array {
	return &applyNode{src: a, fn: fn}
}

type applyNode struct {
	src Array
	fn  func(float64) float64
}

func (n *applyNode) Axes() []Axis { return n.src.Axes() }

func (n *applyNode) Take(axis string, lo, hi int) (Array, error) {
	src, err := n.src.Take(axis, lo, hi)
	if err != nil {
		return nil, err
	}
	return &applyNode{src: src, fn: n.fn}, nil
}

func (n *applyNode) Eval(ctx context.Context) (*Dense, error) {
	d, err := n.src.Eval(ctx)
	if err != nil {
		return nil, err
	}
	in := d.Values()
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = n.fn(v)
	}
	return NewDense(d.axes, out)
}

// Collapse reduces axis of a with fn, which receives the values along the
// axis for every remaining position.
func Collapse(a Array, axis string, fn func([]float64) float64) (Array, error) {
	axes := a.Axes()
	k := axisIndex(axes, axis)
	if k < 0 {
		return nil, fmt.Errorf("%w: %q", ErrAxisNotFound, axis)
	}
	return &collapseNode{src: a, axis: axis, fn: fn, axes: without(axes, k)}, nil
}

type collapseNode struct {
	src  Array
	axis string
	fn   func([]float64) float64
	axes []Axis
}

func (n *collapseNode) Axes() []Axis { return copyAxes(n.axes) }

func (n *collapseNode) Take(axis string, lo, hi int) (Array, error) {
	if _, err := checkTake(n.axes, axis, lo, hi); err != nil {
		return nil, err
	}
	src, err := n.src.Take(axis, lo, hi)
	if err != nil {
		return nil, err
	}
	sa := src.Axes()
	return &collapseNode{src: src, axis: n.axis, fn: n.fn, axes: without(sa, axisIndex(sa, n.axis))}, nil
}

func (n *collapseNode) Eval(ctx context.Context) (*Dense, error) {
	d, err := n.src.Eval(ctx)
	if err != nil {
		return nil, err
	}
	return d.collapse(axisIndex(d.axes, n.axis), n.fn), nil
}

// Mean averages a along axis. When a is slabbed along the same axis the mean
// is accumulated chunk by chunk.
func Mean(a Array, axis string) (Array, error) {
	axes := a.Axes()
	k := axisIndex(axes, axis)
	if k < 0 {
		return nil, fmt.Errorf("%w: %q", ErrAxisNotFound, axis)
	}
	return &meanNode{src: a, axis: axis, axes: without(axes, k)}, nil
}

type meanNode struct {
	src  Array
	axis string
	axes []Axis
}

func (n *meanNode) Axes() []Axis { return copyAxes(n.axes) }

func (n *meanNode) Take(axis string, lo, hi int) (Array, error) {
	if _, err := checkTake(n.axes, axis, lo, hi); err != nil {
		return nil, err
	}
	src, err := n.src.Take(axis, lo, hi)
	if err != nil {
		return nil, err
	}
	sa := src.Axes()
	return &meanNode{src: src, axis: n.axis, axes: without(sa, axisIndex(sa, n.axis))}, nil
}

func (n *meanNode) Eval(ctx context.Context) (*Dense, error) {
	slab, ok := n.src.(*slabNode)
	if !ok || slab.axis != n.axis {
		d, err := n.src.Eval(ctx)
		if err != nil {
			return nil, err
		}
		return d.collapse(axisIndex(d.axes, n.axis), sum).scale(1 / float64(d.axes[axisIndex(d.axes, n.axis)].Len())), nil
	}
	var acc []float64
	count := 0
	err := slab.chunks(ctx, func(d *Dense) error {
		s := d.collapse(axisIndex(d.axes, n.axis), sum).Values()
		if acc == nil {
			acc = make([]float64, len(s))
		}
		for i, v := range s {
			acc[i] += v
		}
		count += d.axes[axisIndex(d.axes, n.axis)].Len()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: mean over empty axis %q", ErrShape, n.axis)
	}
	for i := range acc {
		acc[i] /= float64(count)
	}
	return NewDense(n.axes, acc)
}

func sum(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}

func (d *Dense) scale(f float64) *Dense {
	return &Dense{axes: d.axes, data: d.data.ScaleCopy(f)}
}

// Slabbed returns a view of a that is evaluated in contiguous chunks of size
// along axis.
func Slabbed(a Array, axis string, size int) (Array, error) {
	if size <= 0 {
		panic(fmt.Sprintf("labeled: slab size must be positive, got %d", size))
	}
	if !Has(a, axis) {
		return nil, fmt.Errorf("%w: %q", ErrAxisNotFound, axis)
	}
	return &slabNode{src: a, axis: axis, size: size}, nil
}

type slabNode struct {
	src  Array
	axis string
	size int
}

func (n *slabNode) Axes() []Axis { return n.src.Axes() }

func (n *slabNode) Take(axis string, lo, hi int) (Array, error) {
	src, err := n.src.Take(axis, lo, hi)
	if err != nil {
		return nil, err
	}
	return &slabNode{src: src, axis: n.axis, size: n.size}, nil
}

// chunks evaluates the source one slab at a time.
func (n *slabNode) chunks(ctx context.Context, fn func(*Dense) error) error {
	total, err := Len(n.src, n.axis)
	if err != nil {
		return err
	}
	for lo := 0; lo < total; lo += n.size {
		if err := ctx.Err(); err != nil {
			return err
		}
		hi := min(lo+n.size, total)
		sub, err := n.src.Take(n.axis, lo, hi)
		if err != nil {
			return err
		}
		d, err := sub.Eval(ctx)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

func (n *slabNode) Eval(ctx context.Context) (*Dense, error) {
	total, err := Len(n.src, n.axis)
	if err != nil {
		return nil, err
	}
	if total <= n.size {
		return n.src.Eval(ctx)
	}
	var parts []*Dense
	err = n.chunks(ctx, func(d *Dense) error {
		parts = append(parts, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return concat(parts, axisIndex(parts[0].axes, n.axis))
}
