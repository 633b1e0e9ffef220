// Package spectrum computes the spectra used to study internal gravity waves:
// the axisymmetric spherical harmonic transform over colatitude and the
// windowed power spectrum over time.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/vk/musicscripts/internal/grid"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/reduce"
)

var (
	// ErrResolution is returned when the colatitude grid is too coarse for
	// the requested harmonic degrees.
	ErrResolution = errors.New("spectrum: grid cannot resolve harmonics")
	// ErrSpacing is returned when time samples are not evenly spaced.
	ErrSpacing = errors.New("spectrum: uneven sampling")
)

// SphHarm projects fields of colatitude on the Y_l^0 spherical harmonics.
type SphHarm struct {
	ells    []int
	weights []float64
	basis   [][]float64
}

// NewSphHarm prepares the transform on theta for the degrees ells. The
// quadrature must reproduce the orthonormality of every Y_l^0 up to ellMax
// within tol.
func NewSphHarm(theta grid.Axis1D, ellMax int, tol float64, ells ...int) (*SphHarm, error) {
	if len(ells) == 0 {
		return nil, fmt.Errorf("no harmonic degree requested")
	}
	for _, l := range ells {
		if l < 0 || l > ellMax {
			return nil, fmt.Errorf("degree %d outside [0, %d]", l, ellMax)
		}
	}
	weights := reduce.NewSphericalQuad(theta).Weights()
	for i := range weights {
		weights[i] *= 2 * math.Pi
	}
	table := ylm(theta.CellCenters(), ellMax)
	for l := range ellMax + 1 {
		for m := range l + 1 {
			g := 0.0
			for j, w := range weights {
				g += w * table[l][j] * table[m][j]
			}
			want := 0.0
			if l == m {
				want = 1
			}
			if math.Abs(g-want) > tol {
				return nil, fmt.Errorf("%w: <Y%d|Y%d> = %g on %d cells", ErrResolution, l, m, g, len(weights))
			}
		}
	}
	s := &SphHarm{ells: append([]int(nil), ells...), weights: weights}
	for _, l := range ells {
		s.basis = append(s.basis, table[l])
	}
	return s, nil
}

// Ells returns the degrees of the transform.
func (s *SphHarm) Ells() []int { return append([]int(nil), s.ells...) }

// Coefficients returns the projection of f on every degree.
func (s *SphHarm) Coefficients(f []float64) []float64 {
	if len(f) != len(s.weights) {
		panic(fmt.Sprintf("spectrum: %d values on a %d cells grid", len(f), len(s.weights)))
	}
	out := make([]float64, len(s.basis))
	for i, y := range s.basis {
		for j, w := range s.weights {
			out[i] += w * y[j] * f[j]
		}
	}
	return out
}

// Transform replaces thetaAxis of a by ellAxis.
func (s *SphHarm) Transform(a labeled.Array, thetaAxis, ellAxis string) (labeled.Array, error) {
	labels := make([]string, len(s.ells))
	for i, l := range s.ells {
		labels[i] = strconv.Itoa(l)
	}
	return labeled.MapAxis(a, thetaAxis, labeled.Categorical(ellAxis, labels...), s.Coefficients)
}

// ylm tabulates Y_l^0 at every colatitude for l in [0, ellMax].
func ylm(theta []float64, ellMax int) [][]float64 {
	out := make([][]float64, ellMax+1)
	for l := range out {
		out[l] = make([]float64, len(theta))
	}
	for j, t := range theta {
		x := math.Cos(t)
		prev, cur := 0.0, 1.0
		for l := 0; l <= ellMax; l++ {
			out[l][j] = math.Sqrt(float64(2*l+1)/(4*math.Pi)) * cur
			next := (float64(2*l+1)*x*cur - float64(l)*prev) / float64(l+1)
			prev, cur = cur, next
		}
	}
	return out
}
