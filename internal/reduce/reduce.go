// Package reduce holds the reductions used to collapse array axes: plain and
// weighted means, the midpoint quadrature on colatitude and nan-aware
// statistics.
package reduce

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vk/musicscripts/internal/grid"
)

// Mean is the arithmetic mean of v.
func Mean(v []float64) float64 {
	return stat.Mean(v, nil)
}

// Weighted returns the weighted average with the given weights. The returned
// function panics when called with a slice of another length.
func Weighted(weights []float64) func([]float64) float64 {
	w := append([]float64(nil), weights...)
	return func(v []float64) float64 {
		if len(v) != len(w) {
			panic(fmt.Sprintf("reduce: %d values for %d weights", len(v), len(w)))
		}
		return stat.Mean(v, w)
	}
}

// VolumeWeights returns dr·r² for every cell of a radial axis.
func VolumeWeights(r grid.Axis1D) []float64 {
	centers := r.CellCenters()
	widths := r.CellWidths()
	out := make([]float64, len(centers))
	for i, c := range centers {
		out[i] = widths[i] * c * c
	}
	return out
}

// SphericalQuad is the midpoint quadrature on a colatitude axis. The weight
// of a cell is the integral of sin θ over it.
type SphericalQuad struct {
	weights []float64
	total   float64
}

// NewSphericalQuad builds the quadrature for theta.
func NewSphericalQuad(theta grid.Axis1D) SphericalQuad {
	faces := theta.Faces()
	w := make([]float64, len(faces)-1)
	for i := range w {
		w[i] = math.Cos(faces[i]) - math.Cos(faces[i+1])
	}
	return SphericalQuad{weights: w, total: floats.Sum(w)}
}

// Weights returns the quadrature weights.
func (q SphericalQuad) Weights() []float64 { return append([]float64(nil), q.weights...) }

// Integrate returns the integral of v sin θ dθ.
func (q SphericalQuad) Integrate(v []float64) float64 {
	if len(v) != len(q.weights) {
		panic(fmt.Sprintf("reduce: %d values for %d quadrature cells", len(v), len(q.weights)))
	}
	return floats.Dot(q.weights, v)
}

// Average returns the solid-angle average of v.
func (q SphericalQuad) Average(v []float64) float64 {
	return q.Integrate(v) / q.total
}

// NanMean is the mean of the non-NaN values of v, NaN if there is none.
func NanMean(v []float64) float64 {
	return nanApply(v, func(x []float64) float64 { return stat.Mean(x, nil) })
}

// NanStd is the population standard deviation of the non-NaN values of v.
func NanStd(v []float64) float64 {
	return nanApply(v, func(x []float64) float64 { return stat.PopStdDev(x, nil) })
}

// NanMin is the minimum of the non-NaN values of v.
func NanMin(v []float64) float64 {
	return nanApply(v, floats.Min)
}

// NanMax is the maximum of the non-NaN values of v.
func NanMax(v []float64) float64 {
	return nanApply(v, floats.Max)
}

// nanApply applies fn to the non-NaN values of v. It returns NaN when every
// value is NaN.
func nanApply(v []float64, fn func([]float64) float64) float64 {
	kept := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			kept = append(kept, x)
		}
	}
	if len(kept) == 0 {
		return math.NaN()
	}
	return fn(kept)
}

// Columns applies fn to every column of rows, which must all have the same
// length.
func Columns(rows [][]float64, fn func([]float64) float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, len(rows[0]))
	col := make([]float64, len(rows))
	for j := range out {
		for i, row := range rows {
			col[i] = row[j]
		}
		out[j] = fn(col)
	}
	return out
}
