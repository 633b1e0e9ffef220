package musicdata

import (
	"context"

	"github.com/vk/musicscripts/internal/ctxlog"
	"github.com/vk/musicscripts/internal/dump"
	"github.com/vk/musicscripts/internal/eos"
	"github.com/vk/musicscripts/internal/grid"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/lazy"
	"github.com/vk/musicscripts/internal/registry"
)

// Snapshot is one dump of a run. It borrows grid, geometry and EoS from its
// run.
type Snapshot struct {
	run  *Run
	idx  int
	path string

	// Snapshot-lifetime field.
	raw lazy.Value[*labeled.Dense]
}

var _ registry.Source = (*Snapshot)(nil)

// Index returns the dump number.
func (s *Snapshot) Index() int { return s.idx }

// Path returns the dump file.
func (s *Snapshot) Path() string { return s.path }

// Run returns the owning run.
func (s *Snapshot) Run() *Run { return s.run }

// Time returns the simulation time of the dump.
func (s *Snapshot) Time(ctx context.Context) (float64, error) {
	times, err := s.run.Times(ctx)
	if err != nil {
		return 0, err
	}
	return times[s.idx], nil
}

// Loaded reports whether the dump has been read into memory.
func (s *Snapshot) Loaded() bool { return s.raw.Done() }

// Raw reads the dump once and returns its array with axes var, x1, x2.
func (s *Snapshot) Raw(ctx context.Context) (labeled.Array, error) {
	d, err := s.Dense(ctx)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Dense is Raw with its concrete type.
func (s *Snapshot) Dense(ctx context.Context) (*labeled.Dense, error) {
	return s.raw.Get(func() (*labeled.Dense, error) {
		p, err := s.run.Params(ctx)
		if err != nil {
			return nil, err
		}
		ctxlog.FromContext(ctx).Debug("Reading dump.", "index", s.idx, "path", s.path)
		d, err := dump.Open(s.path, p.Layout())
		if err != nil {
			return nil, err
		}
		return d.Array()
	})
}

// Grid returns the grid of the run.
func (s *Snapshot) Grid(ctx context.Context) (*grid.Grid, error) { return s.run.Grid(ctx) }

// EoS returns the EoS of the run.
func (s *Snapshot) EoS(ctx context.Context) (eos.Deriver, error) { return s.run.EoS(ctx) }

// Geometry returns the geometry of the run.
func (s *Snapshot) Geometry(ctx context.Context) (grid.Geometry, error) {
	return s.run.Geometry(ctx)
}
