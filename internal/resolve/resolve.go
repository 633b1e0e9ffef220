// Package resolve turns quantity names into labeled arrays.
//
// A name registered for the requested kind is computed by its handler and
// returned verbatim. Any other name falls back to the structural default of
// its kind:
//
//   - field: the raw array at var=name;
//   - profile: the field averaged over x2 (spherical quadrature or
//     arithmetic mean), slabbed along time;
//   - time-averaged profile: the profile averaged over time;
//   - time series: the profile averaged over x1 with dr·r² weights
//     (spherical) or arithmetically (Cartesian), slabbed along time.
//
// The resolver caches nothing.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/vk/musicscripts/internal/grid"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/reduce"
	"github.com/vk/musicscripts/internal/registry"
)

// ErrNotFound is returned for names neither registered nor stored.
var ErrNotFound = errors.New("quantity not found")

// DefaultSlab is the time slab size of profiles and time series.
const DefaultSlab = 100

// Observer is notified of every resolution.
type Observer interface {
	Resolved(kind registry.Kind, name string, handled bool)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithObserver attaches o.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// WithSlab sets the time slab size used by the defaults.
func WithSlab(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.slab = n
		}
	}
}

// Resolver dispatches quantity requests over a registry.Set.
type Resolver struct {
	set      *registry.Set
	params   map[string]any
	observer Observer
	slab     int
}

var _ registry.Querier = (*Resolver)(nil)

// New creates a resolver over set.
func New(set *registry.Set, opts ...Option) *Resolver {
	r := &Resolver{set: set, slab: DefaultSlab}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Set returns the registries the resolver dispatches to.
func (r *Resolver) Set() *registry.Set { return r.set }

// WithParam returns a copy of r carrying key=value. r is unchanged.
func (r *Resolver) WithParam(key string, value any) *Resolver {
	cp := *r
	cp.params = maps.Clone(r.params)
	if cp.params == nil {
		cp.params = make(map[string]any, 1)
	}
	cp.params[key] = value
	return &cp
}

// Param returns a per-request parameter.
func (r *Resolver) Param(key string) (any, bool) {
	v, ok := r.params[key]
	return v, ok
}

// Resolve computes the quantity name of kind from src.
func (r *Resolver) Resolve(ctx context.Context, kind registry.Kind, name string, src registry.Source) (labeled.Array, error) {
	if h, ok := r.set.Of(kind).Lookup(name); ok {
		r.observe(kind, name, true)
		return h(ctx, r, src)
	}
	r.observe(kind, name, false)
	switch kind {
	case registry.Field:
		return r.field(ctx, name, src)
	case registry.Profile:
		return r.profile(ctx, name, src)
	case registry.TimeAveragedProfile:
		return r.timeAveraged(ctx, name, src)
	case registry.TimeSeries:
		return r.timeSeries(ctx, name, src)
	}
	panic(fmt.Sprintf("unknown quantity kind %d", int(kind)))
}

// Field resolves a field.
func (r *Resolver) Field(ctx context.Context, name string, src registry.Source) (labeled.Array, error) {
	return r.Resolve(ctx, registry.Field, name, src)
}

// Profile resolves a radial profile.
func (r *Resolver) Profile(ctx context.Context, name string, src registry.Source) (labeled.Array, error) {
	return r.Resolve(ctx, registry.Profile, name, src)
}

// TimeAveragedProfile resolves a time-averaged radial profile.
func (r *Resolver) TimeAveragedProfile(ctx context.Context, name string, src registry.Source) (labeled.Array, error) {
	return r.Resolve(ctx, registry.TimeAveragedProfile, name, src)
}

// TimeSeries resolves a time series.
func (r *Resolver) TimeSeries(ctx context.Context, name string, src registry.Source) (labeled.Array, error) {
	return r.Resolve(ctx, registry.TimeSeries, name, src)
}

func (r *Resolver) observe(kind registry.Kind, name string, handled bool) {
	if r.observer != nil {
		r.observer.Resolved(kind, name, handled)
	}
}

func (r *Resolver) field(ctx context.Context, name string, src registry.Source) (labeled.Array, error) {
	raw, err := src.Raw(ctx)
	if err != nil {
		return nil, err
	}
	arr, err := labeled.Xs(raw, "var", name)
	if errors.Is(err, labeled.ErrLabelNotFound) {
		return nil, fmt.Errorf("%w: field %q", ErrNotFound, name)
	}
	return arr, err
}

func (r *Resolver) profile(ctx context.Context, name string, src registry.Source) (labeled.Array, error) {
	field, err := r.Field(ctx, name, src)
	if err != nil {
		return nil, err
	}
	geom, err := src.Geometry(ctx)
	if err != nil {
		return nil, err
	}
	var avg func([]float64) float64
	switch geom {
	case grid.Spherical:
		g, err := src.Grid(ctx)
		if err != nil {
			return nil, err
		}
		avg = reduce.NewSphericalQuad(g.Theta()).Average
	case grid.Cartesian:
		avg = reduce.Mean
	default:
		panic(fmt.Sprintf("unknown geometry %d", int(geom)))
	}
	prof, err := labeled.Collapse(field, "x2", avg)
	if err != nil {
		return nil, err
	}
	return r.slabbed(prof)
}

func (r *Resolver) timeAveraged(ctx context.Context, name string, src registry.Source) (labeled.Array, error) {
	prof, err := r.Profile(ctx, name, src)
	if err != nil {
		return nil, err
	}
	if !labeled.Has(prof, "time") {
		return prof, nil
	}
	return labeled.Mean(prof, "time")
}

func (r *Resolver) timeSeries(ctx context.Context, name string, src registry.Source) (labeled.Array, error) {
	prof, err := r.Profile(ctx, name, src)
	if err != nil {
		return nil, err
	}
	geom, err := src.Geometry(ctx)
	if err != nil {
		return nil, err
	}
	var avg func([]float64) float64
	switch geom {
	case grid.Spherical:
		g, err := src.Grid(ctx)
		if err != nil {
			return nil, err
		}
		avg = reduce.Weighted(reduce.VolumeWeights(g.R()))
	case grid.Cartesian:
		avg = reduce.Mean
	default:
		panic(fmt.Sprintf("unknown geometry %d", int(geom)))
	}
	series, err := labeled.Collapse(prof, "x1", avg)
	if err != nil {
		return nil, err
	}
	return r.slabbed(series)
}

func (r *Resolver) slabbed(a labeled.Array) (labeled.Array, error) {
	if !labeled.Has(a, "time") {
		return a, nil
	}
	return labeled.Slabbed(a, "time", r.slab)
}
