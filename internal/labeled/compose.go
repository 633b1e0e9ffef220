package labeled

import (
	"context"
	"fmt"
)

// Loader returns the i-th item of a stack.
type Loader func(ctx context.Context, i int) (Array, error)

type pendingTake struct {
	axis   string
	lo, hi int
}

// Stack assembles items along a new leading axis. Item i is obtained from
// load(i) only when the stack is evaluated, and every item must have the
// inner axes.
func Stack(axis Axis, inner []Axis, load Loader) (Array, error) {
	if err := checkUnique(append([]Axis{axis}, inner...)); err != nil {
		return nil, err
	}
	idx := make([]int, axis.Len())
	for i := range idx {
		idx[i] = i
	}
	return &stackNode{axis: axis, inner: copyAxes(inner), load: load, idx: idx}, nil
}

type stackNode struct {
	axis    Axis
	inner   []Axis
	load    Loader
	idx     []int
	pending []pendingTake
}

func (n *stackNode) Axes() []Axis {
	return append([]Axis{n.axis}, n.inner...)
}

func (n *stackNode) Take(axis string, lo, hi int) (Array, error) {
	k, err := checkTake(n.Axes(), axis, lo, hi)
	if err != nil {
		return nil, err
	}
	out := *n
	if k == 0 {
		out.axis = n.axis.Slice(lo, hi)
		out.idx = append([]int(nil), n.idx[lo:hi]...)
		return &out, nil
	}
	out.inner = replaced(n.inner, k-1, n.inner[k-1].Slice(lo, hi))
	out.pending = append(append([]pendingTake(nil), n.pending...), pendingTake{axis: axis, lo: lo, hi: hi})
	return &out, nil
}

func (n *stackNode) Eval(ctx context.Context) (*Dense, error) {
	size := 1
	for _, ax := range n.inner {
		size *= ax.Len()
	}
	out := make([]float64, 0, size*len(n.idx))
	for _, i := range n.idx {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, err := n.load(ctx, i)
		if err != nil {
			return nil, err
		}
		for _, p := range n.pending {
			if item, err = item.Take(p.axis, p.lo, p.hi); err != nil {
				return nil, err
			}
		}
		d, err := item.Eval(ctx)
		if err != nil {
			return nil, err
		}
		if len(d.axes) != len(n.inner) {
			return nil, fmt.Errorf("%w: stack item %d has axes %v, want %v", ErrShape, i, d.axes, n.inner)
		}
		for j, ax := range d.axes {
			if ax.Name != n.inner[j].Name || ax.Len() != n.inner[j].Len() {
				return nil, fmt.Errorf("%w: stack item %d has axes %v, want %v", ErrShape, i, d.axes, n.inner)
			}
		}
		out = append(out, d.Values()...)
	}
	return NewDense(n.Axes(), out)
}

// MapAxis replaces axis of a by out. For every position of the other axes,
// fn receives the values along axis and returns the out.Len() values along
// the new axis.
func MapAxis(a Array, axis string, out Axis, fn func([]float64) []float64) (Array, error) {
	axes := a.Axes()
	k := axisIndex(axes, axis)
	if k < 0 {
		return nil, fmt.Errorf("%w: %q", ErrAxisNotFound, axis)
	}
	res := replaced(axes, k, out)
	if err := checkUnique(res); err != nil {
		return nil, err
	}
	return &mapNode{src: a, axis: axis, out: out, fn: fn, axes: res}, nil
}

type mapNode struct {
	src  Array
	axis string
	out  Axis
	fn   func([]float64) []float64
	axes []Axis
}

func (n *mapNode) Axes() []Axis { return copyAxes(n.axes) }

func (n *mapNode) Take(axis string, lo, hi int) (Array, error) {
	k, err := checkTake(n.axes, axis, lo, hi)
	if err != nil {
		return nil, err
	}
	if axis == n.out.Name {
		// Lanes need the whole source axis: evaluate first, restrict after.
		return &evalTakeNode{src: n, k: k, lo: lo, hi: hi}, nil
	}
	src, err := n.src.Take(axis, lo, hi)
	if err != nil {
		return nil, err
	}
	return &mapNode{src: src, axis: n.axis, out: n.out, fn: n.fn, axes: replaced(n.axes, k, n.axes[k].Slice(lo, hi))}, nil
}

func (n *mapNode) Eval(ctx context.Context) (*Dense, error) {
	d, err := n.src.Eval(ctx)
	if err != nil {
		return nil, err
	}
	k := axisIndex(d.axes, n.axis)
	outer, m, inner := split(d.data.Shape, k)
	p := n.out.Len()
	res := make([]float64, outer*p*inner)
	lane := make([]float64, m)
	src := d.Values()
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			for i := 0; i < m; i++ {
				lane[i] = src[o*m*inner+i*inner+in]
			}
			mapped := n.fn(lane)
			if len(mapped) != p {
				return nil, fmt.Errorf("%w: transform of %q returned %d values, want %d", ErrShape, n.axis, len(mapped), p)
			}
			for i, v := range mapped {
				res[o*p*inner+i*inner+in] = v
			}
		}
	}
	return NewDense(replaced(d.axes, k, n.out), res)
}

type evalTakeNode struct {
	src    Array
	k      int
	lo, hi int
}

func (n *evalTakeNode) Axes() []Axis {
	axes := n.src.Axes()
	return replaced(axes, n.k, axes[n.k].Slice(n.lo, n.hi))
}

func (n *evalTakeNode) Take(axis string, lo, hi int) (Array, error) {
	if _, err := checkTake(n.Axes(), axis, lo, hi); err != nil {
		return nil, err
	}
	if axis == n.src.Axes()[n.k].Name {
		return &evalTakeNode{src: n.src, k: n.k, lo: n.lo + lo, hi: n.lo + hi}, nil
	}
	src, err := n.src.Take(axis, lo, hi)
	if err != nil {
		return nil, err
	}
	return &evalTakeNode{src: src, k: n.k, lo: n.lo, hi: n.hi}, nil
}

func (n *evalTakeNode) Eval(ctx context.Context) (*Dense, error) {
	d, err := n.src.Eval(ctx)
	if err != nil {
		return nil, err
	}
	return d.take(n.k, n.lo, n.hi), nil
}

// Broadcast combines every element of a with the element of ref at the same
// labels. The axes of ref must be a subset of the axes of a with the same
// extents.
func Broadcast(a, ref Array, fn func(v, r float64) float64) (Array, error) {
	axes := a.Axes()
	for _, rax := range ref.Axes() {
		k := axisIndex(axes, rax.Name)
		if k < 0 {
			return nil, fmt.Errorf("%w: reference axis %q", ErrAxisNotFound, rax.Name)
		}
		if axes[k].Len() != rax.Len() {
			return nil, fmt.Errorf("%w: axis %q has %d labels, reference has %d", ErrShape, rax.Name, axes[k].Len(), rax.Len())
		}
	}
	return &broadcastNode{src: a, ref: ref, fn: fn}, nil
}

type broadcastNode struct {
	src Array
	ref Array
	fn  func(v, r float64) float64
}

func (n *broadcastNode) Axes() []Axis { return n.src.Axes() }

func (n *broadcastNode) Take(axis string, lo, hi int) (Array, error) {
	src, err := n.src.Take(axis, lo, hi)
	if err != nil {
		return nil, err
	}
	ref := n.ref
	if Has(ref, axis) {
		if ref, err = ref.Take(axis, lo, hi); err != nil {
			return nil, err
		}
	}
	return &broadcastNode{src: src, ref: ref, fn: n.fn}, nil
}

func (n *broadcastNode) Eval(ctx context.Context) (*Dense, error) {
	d, err := n.src.Eval(ctx)
	if err != nil {
		return nil, err
	}
	r, err := n.ref.Eval(ctx)
	if err != nil {
		return nil, err
	}
	shape := d.data.Shape
	// Stride of every axis of d inside r, zero when r lacks the axis.
	rstrides := make([]int, len(shape))
	rshape := r.data.Shape
	for i, ax := range d.axes {
		j := axisIndex(r.axes, ax.Name)
		if j < 0 {
			continue
		}
		s := 1
		for _, e := range rshape[j+1:] {
			s *= e
		}
		rstrides[i] = s
	}
	src, rv := d.Values(), r.Values()
	out := make([]float64, len(src))
	idx := make([]int, len(shape))
	off := 0
	for i := range src {
		out[i] = n.fn(src[i], rv[off])
		for ax := len(shape) - 1; ax >= 0; ax-- {
			idx[ax]++
			off += rstrides[ax]
			if idx[ax] < shape[ax] {
				break
			}
			off -= rstrides[ax] * shape[ax]
			idx[ax] = 0
		}
	}
	return NewDense(d.axes, out)
}
