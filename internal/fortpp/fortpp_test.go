package fortpp

import (
	"errors"
	"math"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAttrs map[string]any

func (a fakeAttrs) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	return keys
}
func (a fakeAttrs) Get(key string) (any, bool) { v, ok := a[key]; return v, ok }
func (a fakeAttrs) GetType(string) (string, bool) { return "", false }
func (a fakeAttrs) GetGoType(string) (string, bool) { return "", false }

// fakeGroup implements the parts of api.Group the reader uses.
type fakeGroup struct {
	api.Group
	groups map[string]*fakeGroup
	vars   map[string]*api.Variable
}

func newGroup() *fakeGroup {
	return &fakeGroup{groups: map[string]*fakeGroup{}, vars: map[string]*api.Variable{}}
}

func (g *fakeGroup) Close() {}

func (g *fakeGroup) GetGroup(name string) (api.Group, error) {
	sub, ok := g.groups[name]
	if !ok {
		return nil, errors.New("no such group")
	}
	return sub, nil
}

func (g *fakeGroup) ListSubgroups() []string {
	names := make([]string, 0, len(g.groups))
	for k := range g.groups {
		names = append(names, k)
	}
	return names
}

func (g *fakeGroup) GetVariable(name string) (*api.Variable, error) {
	v, ok := g.vars[name]
	if !ok {
		return nil, errors.New("no such variable")
	}
	return v, nil
}

func (g *fakeGroup) sub(name string) *fakeGroup {
	if s, ok := g.groups[name]; ok {
		return s
	}
	s := newGroup()
	g.groups[name] = s
	return s
}

func (g *fakeGroup) set(name string, values any, attrs fakeAttrs) {
	v := &api.Variable{Values: values}
	if attrs != nil {
		v.Attributes = attrs
	}
	g.vars[name] = v
}

// checkpoint adds a checkpoint with a 3x2 (r, θ) evaluation grid.
func checkpoint(root *fakeGroup, name string, time, shift float64) {
	chk := root.sub("checkpoints").sub(name)
	pp := chk.sub("pp_parameters")
	grid := pp.sub("eval_grid")
	grid.set("rad", [][]float64{{1, 2, 3}}, nil)
	grid.set("theta", []float32{0.5, 1.5}, nil)
	pp.set("r_schwarz_preset", []float64{1.5}, nil)
	chk.sub("parameters").set("time", time, nil)
	cf := chk.sub("Contour_field")
	cf.set("pen_depth_conv", [][]float64{{1.6 + shift, 1.8 + shift}}, nil)
	cf.set("pen_depth_ke", []float64{1.7 + shift, 1.65 + shift}, nil)
	// Stored as [θ][r].
	chk.sub("Field").set("vel", [][][]float64{{{1, 2, 3}, {4, 5, 6}}}, nil)
	chk.sub("Moment_rad").set("rho",
		[][]float64{{10 + shift, 20 + shift, 30 + shift}, {100, 200, math.NaN()}},
		fakeAttrs{"degree": []int32{1, 2}})
}

func fixture() *File {
	root := newGroup()
	checkpoint(root, "00001", 10, 0)
	checkpoint(root, "00002", 20, 0.1)
	checkpoint(root, "00003", 30, 0.2)
	return New(root)
}

func TestCheckpoint_Readers(t *testing.T) {
	t.Parallel()

	// Arrange
	f := fixture()
	chk, err := f.Checkpoint(1)
	require.NoError(t, err)

	// Act
	contour, err := chk.ContourField("pen_depth_conv")
	require.NoError(t, err)
	field, err := chk.Field("vel")
	require.NoError(t, err)
	prof, err := chk.Rprof("rho", 2)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "00001", chk.Name())
	assert.Equal(t, []float64{1.6, 1.8}, contour.Radius)
	assert.Equal(t, []float64{0.5, 1.5}, contour.Theta)
	assert.Equal(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, field.Values)
	assert.Equal(t, []float64{1, 2, 3}, field.Radius)
	assert.InDeltaSlice(t, []float64{0.5, 1.5, 2.5, 3.5}, field.RWalls(), 1e-12)
	assert.Equal(t, 2, prof.Degree)
	assert.Equal(t, []float64{100, 200}, prof.Values[:2])
	assert.True(t, math.IsNaN(prof.Values[2]))
}

func TestCheckpoint_NotFound(t *testing.T) {
	t.Parallel()

	f := fixture()
	_, err := f.Checkpoint(42)
	assert.ErrorIs(t, err, ErrNotFound)

	chk, err := f.Checkpoint(2)
	require.NoError(t, err)
	_, err = chk.Field("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = chk.Rprof("rho", 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTseries_Moments(t *testing.T) {
	t.Parallel()

	// Arrange
	ts, err := fixture().Tseries(1, 3, 1)
	require.NoError(t, err)

	// Act
	mean, err := ts.Rprof("rho", 1)
	require.NoError(t, err)
	std, err := ts.RprofStd("rho", 1)
	require.NoError(t, err)
	rng, err := ts.RprofRange("rho", 2)
	require.NoError(t, err)

	// Assert
	assert.InDeltaSlice(t, []float64{10.1, 20.1, 30.1}, mean.Values, 1e-12)
	sd := math.Sqrt(0.02 / 3)
	assert.InDelta(t, 10.1-sd, std.Bottom[0], 1e-9)
	assert.InDelta(t, 10.1+sd, std.Top[0], 1e-9)
	assert.Equal(t, "range(rho)", rng.Name)
	assert.Equal(t, []float64{100, 200}, rng.Top[:2])
	assert.True(t, math.IsNaN(rng.Top[2]))
}

func TestTseries_Step(t *testing.T) {
	t.Parallel()

	ts, err := fixture().Tseries(1, 3, 2)
	require.NoError(t, err)
	require.Len(t, ts.Checkpoints, 2)
	assert.Equal(t, "00003", ts.Checkpoints[1].Name())

	_, err = fixture().Tseries(1, 3, 0)
	assert.Error(t, err)
}

func TestLMax_Series(t *testing.T) {
	t.Parallel()

	// Act
	conv, err := LMax{File: fixture(), Criteria: "conv"}.Series()
	require.NoError(t, err)
	ke, err := LMax{File: fixture(), Criteria: "ke"}.Series()
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "lmax_conv", conv.Name)
	assert.Equal(t, []float64{10, 20, 30}, conv.Time)
	assert.InDeltaSlice(t, []float64{0.3, 0.4, 0.5}, conv.Values, 1e-12)
	assert.InDeltaSlice(t, []float64{0.2, 0.3, 0.4}, ke.Values, 1e-12)
}

func TestConstRad(t *testing.T) {
	t.Parallel()

	c := ConstRad(2, 0, 1, "r", 3)

	assert.Equal(t, []float64{2, 2, 2}, c.Radius)
	assert.Equal(t, []float64{0, 0.5, 1}, c.Theta)
}

func TestToArray_Ragged(t *testing.T) {
	t.Parallel()

	_, err := toArray([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}
