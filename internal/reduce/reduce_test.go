package reduce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/musicscripts/internal/grid"
)

func TestSphericalQuad_ConstantAverage(t *testing.T) {
	t.Parallel()

	quad := NewSphericalQuad(grid.Uniform(0, math.Pi, 7))
	v := []float64{3, 3, 3, 3, 3, 3, 3}

	assert.InDelta(t, 3.0, quad.Average(v), 1e-12)
	// The weights integrate sin θ over the full sphere.
	assert.InDelta(t, 2.0, quad.Integrate([]float64{1, 1, 1, 1, 1, 1, 1}), 1e-12)
}

func TestSphericalQuad_WeightsFavorEquator(t *testing.T) {
	t.Parallel()

	quad := NewSphericalQuad(grid.Uniform(0, math.Pi, 3))
	w := quad.Weights()

	assert.Greater(t, w[1], w[0])
	assert.InDelta(t, w[0], w[2], 1e-12)
	assert.Panics(t, func() { quad.Average([]float64{1}) })
}

func TestWeighted(t *testing.T) {
	t.Parallel()

	r, err := grid.NewAxis1D([]float64{1, 2, 4})
	assert.NoError(t, err)
	avg := Weighted(VolumeWeights(r))

	assert.InDelta(t, 7.0, avg([]float64{7, 7}), 1e-12)
	// Weights are 1*1.5² and 2*3².
	assert.InDelta(t, (2.25*1+18*2)/20.25, avg([]float64{1, 2}), 1e-12)
}

func TestNanStatistics(t *testing.T) {
	t.Parallel()

	v := []float64{1, math.NaN(), 3}
	assert.InDelta(t, 2.0, NanMean(v), 1e-12)
	assert.InDelta(t, 1.0, NanStd(v), 1e-12)
	assert.Equal(t, 1.0, NanMin(v))
	assert.Equal(t, 3.0, NanMax(v))
	assert.True(t, math.IsNaN(NanMean([]float64{math.NaN()})))
	assert.Equal(t, 2.5, Mean([]float64{2, 3}))

	cols := Columns([][]float64{{1, 2}, {3, math.NaN()}}, NanMean)
	assert.Equal(t, []float64{2, 2}, cols)
}

func TestReductions_EdgeCases(t *testing.T) {
	t.Parallel()

	avg := Weighted([]float64{1, 3})
	assert.InDelta(t, 2.5, avg([]float64{1, 3}), 1e-12)
	assert.Panics(t, func() { avg([]float64{1, 2, 3}) })

	quad := NewSphericalQuad(grid.Uniform(0, math.Pi, 2))
	assert.InDelta(t, 2.0, quad.Integrate([]float64{1, 1}), 1e-12)
	assert.Panics(t, func() { quad.Integrate([]float64{1, 2, 3}) })

	allNaN := []float64{math.NaN(), math.NaN()}
	assert.True(t, math.IsNaN(NanStd(allNaN)))
	assert.True(t, math.IsNaN(NanMin(allNaN)))
	assert.True(t, math.IsNaN(NanMax(allNaN)))
	assert.Equal(t, 0.0, NanStd([]float64{math.NaN(), 4}))
	assert.Equal(t, -1.0, NanMin([]float64{2, math.NaN(), -1}))
}
