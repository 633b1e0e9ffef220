package musicdata

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vk/musicscripts/internal/eos"
	"github.com/vk/musicscripts/internal/fsutil"
	"github.com/vk/musicscripts/internal/grid"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/registry"
)

// View is a lazy selection of the dumps of a run. Selected indices without
// a dump are skipped.
type View struct {
	run   *Run
	items []Item
}

var _ registry.Source = (*View)(nil)

// Indices resolves the selection to existing dump indices.
func (v *View) Indices(ctx context.Context) ([]int, error) {
	n, err := v.run.Len(ctx)
	if err != nil {
		return nil, err
	}
	prefix, err := v.run.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	var out []int
	for _, item := range v.items {
		for _, idx := range item.indices(n) {
			if idx < 0 || idx >= n {
				continue
			}
			if _, err := os.Stat(fsutil.DumpPath(prefix, idx)); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return nil, err
			}
			out = append(out, idx)
		}
	}
	return out, nil
}

// Each calls fn with every selected snapshot in order.
func (v *View) Each(ctx context.Context, fn func(*Snapshot) error) error {
	idxs, err := v.Indices(ctx)
	if err != nil {
		return err
	}
	for _, idx := range idxs {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := v.run.At(ctx, idx)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// Snapshots returns the selected snapshots without reading them. The slice
// keeps every snapshot, and whatever it reads, reachable; use Indices with
// Run.At to bound memory over long selections.
func (v *View) Snapshots(ctx context.Context) ([]*Snapshot, error) {
	var out []*Snapshot
	err := v.Each(ctx, func(s *Snapshot) error {
		out = append(out, s)
		return nil
	})
	return out, err
}

// Raw stacks the selected dumps along a time axis labeled by dump time.
// Dumps are read only when the array is evaluated.
func (v *View) Raw(ctx context.Context) (labeled.Array, error) {
	idxs, err := v.Indices(ctx)
	if err != nil {
		return nil, err
	}
	if len(idxs) == 0 {
		return nil, fmt.Errorf("%w: empty selection", ErrNotFound)
	}
	times, err := v.run.Times(ctx)
	if err != nil {
		return nil, err
	}
	g, err := v.run.Grid(ctx)
	if err != nil {
		return nil, err
	}
	p, err := v.run.Params(ctx)
	if err != nil {
		return nil, err
	}
	labels := make([]float64, len(idxs))
	for i, idx := range idxs {
		labels[i] = times[idx]
	}
	inner := []labeled.Axis{
		labeled.Categorical("var", p.Layout().VarNames()...),
		labeled.Coord("x1", g.X1.CellCenters()),
		labeled.Coord("x2", g.X2.CellCenters()),
	}
	return labeled.Stack(labeled.Coord("time", labels), inner, func(ctx context.Context, i int) (labeled.Array, error) {
		s, err := v.run.At(ctx, idxs[i])
		if err != nil {
			return nil, err
		}
		return s.Raw(ctx)
	})
}

// Grid returns the grid of the run.
func (v *View) Grid(ctx context.Context) (*grid.Grid, error) { return v.run.Grid(ctx) }

// EoS returns the EoS of the run.
func (v *View) EoS(ctx context.Context) (eos.Deriver, error) { return v.run.EoS(ctx) }

// Geometry returns the geometry of the run.
func (v *View) Geometry(ctx context.Context) (grid.Geometry, error) { return v.run.Geometry(ctx) }

// Run returns the run the view selects from.
func (v *View) Run() *Run { return v.run }
