// Package grid describes the structured 2D grids of MUSIC runs.
package grid

import (
	"errors"
	"fmt"
)

// Geometry discriminates spherical from Cartesian runs.
type Geometry int

const (
	// Spherical grids use radius as x1 and colatitude as x2.
	Spherical Geometry = iota + 1
	// Cartesian grids use two lengths.
	Cartesian
)

func (g Geometry) String() string {
	switch g {
	case Spherical:
		return "spherical"
	case Cartesian:
		return "cartesian"
	default:
		return fmt.Sprintf("Geometry(%d)", int(g))
	}
}

// ErrInvalidAxis is returned for face coordinates that do not define cells.
var ErrInvalidAxis = errors.New("invalid grid axis")

// Axis1D is a one-dimensional grid defined by its face coordinates.
type Axis1D struct {
	faces []float64
}

// NewAxis1D builds an axis from strictly increasing face coordinates.
func NewAxis1D(faces []float64) (Axis1D, error) {
	if len(faces) < 2 {
		return Axis1D{}, fmt.Errorf("%w: %d faces", ErrInvalidAxis, len(faces))
	}
	for i := 1; i < len(faces); i++ {
		if faces[i] <= faces[i-1] {
			return Axis1D{}, fmt.Errorf("%w: faces not increasing at %d", ErrInvalidAxis, i)
		}
	}
	return Axis1D{faces: append([]float64(nil), faces...)}, nil
}

// Uniform builds an axis of n equal cells spanning [lo, hi].
func Uniform(lo, hi float64, n int) Axis1D {
	if n <= 0 || hi <= lo {
		panic(fmt.Sprintf("grid: invalid uniform axis [%g, %g] with %d cells", lo, hi, n))
	}
	faces := make([]float64, n+1)
	for i := range faces {
		faces[i] = lo + (hi-lo)*float64(i)/float64(n)
	}
	return Axis1D{faces: faces}
}

// NumCells is the number of cells of the axis.
func (a Axis1D) NumCells() int { return len(a.faces) - 1 }

// Faces returns the face coordinates.
func (a Axis1D) Faces() []float64 { return append([]float64(nil), a.faces...) }

// CellCenters returns the midpoints between consecutive faces.
func (a Axis1D) CellCenters() []float64 {
	out := make([]float64, a.NumCells())
	for i := range out {
		out[i] = 0.5 * (a.faces[i] + a.faces[i+1])
	}
	return out
}

// CellWidths returns the distances between consecutive faces.
func (a Axis1D) CellWidths() []float64 {
	out := make([]float64, a.NumCells())
	for i := range out {
		out[i] = a.faces[i+1] - a.faces[i]
	}
	return out
}

// Grid is the 2D grid of a run.
type Grid struct {
	Geometry Geometry
	X1       Axis1D
	X2       Axis1D
}

// R is the radial axis of a spherical grid.
func (g *Grid) R() Axis1D { return g.X1 }

// Theta is the colatitude axis of a spherical grid.
func (g *Grid) Theta() Axis1D { return g.X2 }

// Shape returns the number of cells along x1 and x2.
func (g *Grid) Shape() (int, int) { return g.X1.NumCells(), g.X2.NumCells() }
