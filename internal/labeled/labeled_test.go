package labeled

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(t *testing.T, axes ...Axis) *Dense {
	t.Helper()
	n := 1
	for _, ax := range axes {
		n *= ax.Len()
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	d, err := NewDense(axes, values)
	require.NoError(t, err)
	return d
}

func TestNewDense_RejectsBadShapes(t *testing.T) {
	t.Parallel()

	_, err := NewDense([]Axis{Coord("x1", []float64{1, 2})}, []float64{1})
	require.ErrorIs(t, err, ErrShape)

	_, err = NewDense([]Axis{Coord("x1", []float64{1}), Coord("x1", []float64{2})}, []float64{1})
	require.ErrorIs(t, err, ErrShape)
}

func TestXs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// --- Arrange ---
	raw := ramp(t, Categorical("var", "density", "vel_1"), Coord("x1", []float64{0.5, 1.5, 2.5}))

	// --- Act ---
	vel, err := Xs(raw, "var", "vel_1")
	require.NoError(t, err)
	d, err := vel.Eval(ctx)
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, []float64{3, 4, 5}, d.Values())
	require.Len(t, d.Axes(), 1)
	assert.Equal(t, "x1", d.Axes()[0].Name)

	_, err = Xs(raw, "var", "pressure")
	require.ErrorIs(t, err, ErrLabelNotFound)
	_, err = Xs(raw, "time", "0")
	require.ErrorIs(t, err, ErrAxisNotFound)
}

func TestDerived_TakePushdown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	raw := ramp(t, Categorical("var", "a", "b"), Coord("x1", []float64{0, 1, 2, 3}))
	add, err := Derived(raw, "var", []string{"a", "b"}, func(v ...float64) float64 { return v[0] + v[1] })
	require.NoError(t, err)

	full, err := add.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 6, 8, 10}, full.Values())

	part, err := add.Take("x1", 1, 3)
	require.NoError(t, err)
	d, err := part.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 8}, d.Values())
	assert.Equal(t, []float64{1, 2}, d.Axes()[0].Values)
}

func TestCollapseAndApply(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	field := ramp(t, Coord("x1", []float64{0, 1}), Coord("x2", []float64{0, 1, 2}))
	prof, err := Collapse(field, "x2", func(v []float64) float64 { return v[len(v)-1] })
	require.NoError(t, err)
	sq := Apply(prof, func(v float64) float64 { return v * v })

	d, err := sq.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 25}, d.Values())
	assert.Equal(t, []int{2}, d.Shape())
}

func TestMean_SlabbedMatchesUnchunked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	times := make([]float64, 10)
	for i := range times {
		times[i] = float64(i) * 0.1
	}
	series := ramp(t, Coord("time", times), Coord("x1", []float64{1, 2, 3}))

	plain, err := Mean(series, "time")
	require.NoError(t, err)
	want, err := plain.Eval(ctx)
	require.NoError(t, err)

	for _, chunks := range []int{1, 2, 5} {
		slabbed, err := Slabbed(series, "time", 10/chunks)
		require.NoError(t, err)
		mean, err := Mean(slabbed, "time")
		require.NoError(t, err)

		got, err := mean.Eval(ctx)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want.Values(), got.Values(), 1e-12, "chunks=%d", chunks)
	}
	assert.InDeltaSlice(t, []float64{13.5, 14.5, 15.5}, want.Values(), 1e-12)
}

func TestSlabbed_EvalEqualsSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := ramp(t, Coord("time", []float64{0, 1, 2, 3, 4}), Coord("x1", []float64{0, 1}))
	slabbed, err := Slabbed(src, "time", 2)
	require.NoError(t, err)

	d, err := slabbed.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, src.Values(), d.Values())
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, d.Axes()[0].Values)
}

func TestStack_LoadsOnlyRequestedItems(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// --- Arrange ---
	var loads atomic.Int32
	inner := []Axis{Coord("x1", []float64{0, 1})}
	stack, err := Stack(Coord("time", []float64{0, 1, 2, 3}), inner, func(_ context.Context, i int) (Array, error) {
		loads.Add(1)
		return Full(float64(i), inner...)
	})
	require.NoError(t, err)

	// --- Act ---
	part, err := stack.Take("time", 2, 4)
	require.NoError(t, err)
	d, err := part.Eval(ctx)
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, int32(2), loads.Load())
	assert.Equal(t, []float64{2, 2, 3, 3}, d.Values())
}

func TestMapAxis(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := ramp(t, Coord("x1", []float64{0, 1}), Coord("x2", []float64{0, 1, 2}))
	moments, err := MapAxis(src, "x2", Coord("ell", []float64{0, 1}), func(v []float64) []float64 {
		return []float64{sum(v), v[2] - v[0]}
	})
	require.NoError(t, err)

	d, err := moments.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2, 12, 2}, d.Values())

	one, err := moments.Take("ell", 1, 2)
	require.NoError(t, err)
	d, err = one.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2}, d.Values())
}

func TestBroadcast(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	field := ramp(t, Coord("x1", []float64{0, 1}), Coord("x2", []float64{0, 1, 2}))
	ref, err := NewDense([]Axis{Coord("x1", []float64{0, 1})}, []float64{1, 10})
	require.NoError(t, err)

	diff, err := Broadcast(field, ref, func(v, r float64) float64 { return v - r })
	require.NoError(t, err)
	d, err := diff.Eval(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0, 1, -7, -6, -5}, d.Values())

	bad, err := NewDense([]Axis{Coord("x1", []float64{0, 1, 2})}, []float64{1, 2, 3})
	require.NoError(t, err)
	_, err = Broadcast(field, bad, func(v, r float64) float64 { return v })
	require.ErrorIs(t, err, ErrShape)
}

func TestScalar(t *testing.T) {
	t.Parallel()

	series := ramp(t, Coord("time", []float64{0, 1, 2, 3}))
	mean, err := Mean(series, "time")
	require.NoError(t, err)

	v, err := Scalar(context.Background(), mean)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v))
	assert.InDelta(t, 1.5, v, 1e-12)
}

func TestDense_AtOnEveryConstruction(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	x1 := Coord("x1", []float64{1, 2})
	x2 := Coord("x2", []float64{10, 20, 30})
	d := ramp(t, x1, x2)
	full, err := Full(7, x1, x2)
	require.NoError(t, err)

	// --- Act ---
	taken := d.take(1, 1, 3)
	collapsed := d.collapse(1, func(v []float64) float64 { return v[len(v)-1] })
	joined, err := concat([]*Dense{d.take(0, 0, 1), d.take(0, 1, 2)}, 0)
	require.NoError(t, err)
	scaled := d.scale(2)
	single := d.take(0, 1, 2).drop(0)

	// --- Assert ---
	assert.NotPanics(t, func() {
		assert.Equal(t, 5.0, d.At(1, 2))
		assert.Equal(t, 7.0, full.At(1, 0))
		assert.Equal(t, 5.0, taken.At(1, 1))
		assert.Equal(t, []int{2, 2}, taken.Shape())
		assert.Equal(t, 5.0, collapsed.At(1))
		assert.Equal(t, 3.0, joined.At(1, 0))
		assert.Equal(t, 10.0, scaled.At(1, 2))
		assert.Equal(t, 4.0, single.At(1))
	})
}
