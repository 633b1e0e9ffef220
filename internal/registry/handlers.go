package registry

import (
	"context"

	"github.com/vk/musicscripts/internal/eos"
	"github.com/vk/musicscripts/internal/grid"
	"github.com/vk/musicscripts/internal/labeled"
)

// Source is the data a quantity is computed from: a single snapshot or a
// time-ordered run. Raw arrays carry a var axis and the spatial axes x1, x2,
// plus a time axis for runs.
type Source interface {
	Raw(ctx context.Context) (labeled.Array, error)
	Grid(ctx context.Context) (*grid.Grid, error)
	EoS(ctx context.Context) (eos.Deriver, error)
	Geometry(ctx context.Context) (grid.Geometry, error)
}

// Querier lets a handler request other quantities and read per-request
// parameters.
type Querier interface {
	Resolve(ctx context.Context, kind Kind, name string, src Source) (labeled.Array, error)
	Param(key string) (any, bool)
}

// Handler computes one named quantity of src.
type Handler func(ctx context.Context, q Querier, src Source) (labeled.Array, error)
