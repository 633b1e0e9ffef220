package testutil

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/musicscripts/internal/eos"
	"github.com/vk/musicscripts/internal/grid"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/registry"
)

// MemSource is an in-memory registry.Source.
type MemSource struct {
	Array labeled.Array
	G     *grid.Grid
	E     eos.Deriver
}

var _ registry.Source = (*MemSource)(nil)

func (s *MemSource) Raw(context.Context) (labeled.Array, error) { return s.Array, nil }
func (s *MemSource) Grid(context.Context) (*grid.Grid, error) { return s.G, nil }
func (s *MemSource) EoS(context.Context) (eos.Deriver, error) { return s.E, nil }
func (s *MemSource) Geometry(context.Context) (grid.Geometry, error) { return s.G.Geometry, nil }

// UniformSource builds a snapshot-like source on an n1 x n2 spherical grid
// where every variable is constant. times adds a leading time axis when not
// nil.
func UniformSource(t *testing.T, n1, n2 int, times []float64, values map[string]float64) *MemSource {
	t.Helper()
	g := &grid.Grid{
		Geometry: grid.Spherical,
		X1:       grid.Uniform(1, 2, n1),
		X2:       grid.Uniform(0, math.Pi, n2),
	}
	vars := make([]string, 0, len(values))
	for _, name := range []string{"density", "e_int_spec", "vel_1", "vel_2", "scalar_1"} {
		if _, ok := values[name]; ok {
			vars = append(vars, name)
		}
	}
	axes := []labeled.Axis{
		labeled.Categorical("var", vars...),
		labeled.Coord("x1", g.X1.CellCenters()),
		labeled.Coord("x2", g.X2.CellCenters()),
	}
	nt := 1
	if times != nil {
		axes = append([]labeled.Axis{labeled.Coord("time", times)}, axes...)
		nt = len(times)
	}
	data := make([]float64, 0, nt*len(vars)*n1*n2)
	for range nt {
		for _, name := range vars {
			for range n1 * n2 {
				data = append(data, values[name])
			}
		}
	}
	raw, err := labeled.NewDense(axes, data)
	require.NoError(t, err)
	return &MemSource{Array: raw, G: g}
}
