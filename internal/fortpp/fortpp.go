// Package fortpp reads the HDF5 files written by the Fortran post-processing
// tool of MUSIC.
//
// A file holds one group per checkpoint under /checkpoints/NNNNN, each with
// the evaluation grid and parameters of the post-processing, 2d fields,
// contour lines (one radius per colatitude) and radial moments of fields.
package fortpp

import (
	"errors"
	"fmt"
	"slices"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// ErrNotFound is returned when a checkpoint, group or dataset is missing.
var ErrNotFound = errors.New("fortpp: not found")

// PendepthVars are the penetration depth contours computed for every
// checkpoint.
var PendepthVars = []string{
	"pen_depth_conv",
	"pen_depth_conv_max",
	"pen_depth_ke",
	"pen_depth_ke_max",
	"pen_depth_vr_r0neg",
	"pen_depth_vr_r0pos",
}

// File is an open post-processing file.
type File struct {
	root api.Group
}

// Open opens the post-processing file at path.
func Open(path string) (*File, error) {
	root, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return New(root), nil
}

// New wraps an already open root group.
func New(root api.Group) *File {
	return &File{root: root}
}

// Close releases the underlying file.
func (f *File) Close() { f.root.Close() }

// Checkpoints returns the names of the checkpoint groups in file order.
func (f *File) Checkpoints() ([]string, error) {
	chk, err := group(f.root, "checkpoints")
	if err != nil {
		return nil, err
	}
	names := chk.ListSubgroups()
	slices.Sort(names)
	return names, nil
}

// Checkpoint opens checkpoint idump.
func (f *File) Checkpoint(idump int) (*Checkpoint, error) {
	return f.checkpoint(fmt.Sprintf("%05d", idump))
}

func (f *File) checkpoint(name string) (*Checkpoint, error) {
	g, err := group(f.root, "checkpoints", name)
	if err != nil {
		return nil, err
	}
	return &Checkpoint{name: name, g: g}, nil
}

// Tseries opens the checkpoints first, first+step, ... up to last included.
func (f *File) Tseries(first, last, step int) (*Tseries, error) {
	if step <= 0 {
		return nil, fmt.Errorf("checkpoint step must be positive, got %d", step)
	}
	ts := &Tseries{}
	for i := first; i <= last; i += step {
		c, err := f.Checkpoint(i)
		if err != nil {
			return nil, err
		}
		ts.Checkpoints = append(ts.Checkpoints, c)
	}
	if len(ts.Checkpoints) == 0 {
		return nil, fmt.Errorf("%w: no checkpoint in [%d, %d]", ErrNotFound, first, last)
	}
	return ts, nil
}

// Checkpoint is one post-processed dump.
type Checkpoint struct {
	name string
	g    api.Group
}

// Name is the checkpoint group name.
func (c *Checkpoint) Name() string { return c.name }

// PPParam returns a post-processing parameter.
func (c *Checkpoint) PPParam(name string) ([]float64, error) {
	return c.vector("pp_parameters", name)
}

// Param returns a simulation parameter.
func (c *Checkpoint) Param(name string) ([]float64, error) {
	return c.vector("parameters", name)
}

// PPGrid returns the evaluation grid along direction, "rad" or "theta".
func (c *Checkpoint) PPGrid(direction string) ([]float64, error) {
	return c.vector("pp_parameters", "eval_grid", direction)
}

// ContourField returns the contour named name.
func (c *Checkpoint) ContourField(name string) (Contour, error) {
	rad, err := c.vector("Contour_field", name)
	if err != nil {
		return Contour{}, err
	}
	theta, err := c.PPGrid("theta")
	if err != nil {
		return Contour{}, err
	}
	return Contour{Name: name, Radius: rad, Theta: theta}, nil
}

// Field returns the 2d field named name indexed by [radius][theta].
func (c *Checkpoint) Field(name string) (Field, error) {
	v, err := c.variable("Field", name)
	if err != nil {
		return Field{}, err
	}
	m, err := matrix(v.Values)
	if err != nil {
		return Field{}, fmt.Errorf("field %s: %w", name, err)
	}
	rad, err := c.PPGrid("rad")
	if err != nil {
		return Field{}, err
	}
	theta, err := c.PPGrid("theta")
	if err != nil {
		return Field{}, err
	}
	return Field{Name: name, Values: transpose(m), Radius: rad, Theta: theta}, nil
}

// Rprof returns the radial moment of the given degree of field name.
func (c *Checkpoint) Rprof(name string, degree int) (Rprof, error) {
	v, err := c.variable("Moment_rad", name)
	if err != nil {
		return Rprof{}, err
	}
	if v.Attributes == nil {
		return Rprof{}, fmt.Errorf("%w: degree attribute of %s", ErrNotFound, name)
	}
	raw, ok := v.Attributes.Get("degree")
	if !ok {
		return Rprof{}, fmt.Errorf("%w: degree attribute of %s", ErrNotFound, name)
	}
	degrees, err := vector(raw)
	if err != nil {
		return Rprof{}, fmt.Errorf("degree attribute of %s: %w", name, err)
	}
	ideg := slices.Index(degrees, float64(degree))
	if ideg < 0 {
		return Rprof{}, fmt.Errorf("%w: degree %d of %s (have %v)", ErrNotFound, degree, name, degrees)
	}
	a, err := toArray(v.Values)
	if err != nil {
		return Rprof{}, fmt.Errorf("moment %s: %w", name, err)
	}
	if len(a.shape) == 0 || a.shape[0] != len(degrees) {
		return Rprof{}, fmt.Errorf("moment %s has shape %v for %d degrees", name, a.shape, len(degrees))
	}
	stride := len(a.data) / len(degrees)
	rad, err := c.PPGrid("rad")
	if err != nil {
		return Rprof{}, err
	}
	values := append([]float64(nil), a.data[ideg*stride:(ideg+1)*stride]...)
	return Rprof{Name: name, Degree: degree, Radius: rad, Values: values}, nil
}

func (c *Checkpoint) variable(path ...string) (*api.Variable, error) {
	g, err := group(c.g, path[:len(path)-1]...)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", c.name, err)
	}
	name := path[len(path)-1]
	v, err := g.GetVariable(name)
	if err != nil || v == nil {
		return nil, fmt.Errorf("%w: checkpoint %s dataset %v", ErrNotFound, c.name, path)
	}
	return v, nil
}

func (c *Checkpoint) vector(path ...string) ([]float64, error) {
	v, err := c.variable(path...)
	if err != nil {
		return nil, err
	}
	out, err := vector(v.Values)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s dataset %v: %w", c.name, path, err)
	}
	return out, nil
}

func group(g api.Group, path ...string) (api.Group, error) {
	for _, name := range path {
		next, err := g.GetGroup(name)
		if err != nil || next == nil {
			return nil, fmt.Errorf("%w: group %s", ErrNotFound, name)
		}
		g = next
	}
	return g, nil
}
