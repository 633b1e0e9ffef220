package fortpp

// Contour is a line r(θ).
type Contour struct {
	Name   string
	Radius []float64
	Theta  []float64
}

// ConstRad is the contour r = radius between tmin and tmax.
func ConstRad(radius, tmin, tmax float64, label string, npoints int) Contour {
	c := Contour{Name: label, Radius: make([]float64, npoints), Theta: make([]float64, npoints)}
	for i := range npoints {
		c.Radius[i] = radius
		c.Theta[i] = tmin
		if npoints > 1 {
			c.Theta[i] += (tmax - tmin) * float64(i) / float64(npoints-1)
		}
	}
	return c
}

// Field is a 2d field evaluated at cell centers.
type Field struct {
	Name   string
	Values [][]float64
	Radius []float64
	Theta  []float64
}

// RWalls returns the radial cell walls, assuming a uniform grid.
func (f Field) RWalls() []float64 { return wallsFromCenters(f.Radius) }

// TWalls returns the colatitude cell walls, assuming a uniform grid.
func (f Field) TWalls() []float64 { return wallsFromCenters(f.Theta) }

func wallsFromCenters(c []float64) []float64 {
	if len(c) < 2 {
		return nil
	}
	half := (c[1] - c[0]) / 2
	walls := make([]float64, len(c)+1)
	walls[0] = c[0] - half
	for i, x := range c {
		walls[i+1] = x + half
	}
	return walls
}

// Rprof is a radial profile.
type Rprof struct {
	Name   string
	Degree int
	Radius []float64
	Values []float64
}

// RprofArea is a band between two radial profiles.
type RprofArea struct {
	Name   string
	Degree int
	Radius []float64
	Bottom []float64
	Top    []float64
}

// Series is a scalar quantity against time.
type Series struct {
	Name   string
	Time   []float64
	Values []float64
}
