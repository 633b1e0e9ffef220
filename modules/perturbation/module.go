// Package perturbation registers rel_pert, the relative deviation of a field
// from a radial reference profile.
//
// The field name is read from the ParamVar request parameter. The reference
// is the labeled.Array in ParamRef when set, and otherwise the time-averaged
// profile of the field on the same source.
package perturbation

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/registry"
)

const (
	// Name is the field name of the perturbation.
	Name = "rel_pert"
	// ParamVar names the perturbed field.
	ParamVar = "perturbation.var"
	// ParamRef holds an optional reference profile.
	ParamRef = "perturbation.ref"
)

// ErrParam is returned when request parameters are missing or mistyped.
var ErrParam = errors.New("invalid perturbation parameter")

// Module implements the registry.Module interface for this package.
type Module struct{}

// RelPert computes (field - ref) / ref.
func RelPert(ctx context.Context, q registry.Querier, src registry.Source) (labeled.Array, error) {
	v, ok := q.Param(ParamVar)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not set", ErrParam, ParamVar)
	}
	name, ok := v.(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: %s must be a field name, got %v", ErrParam, ParamVar, v)
	}
	field, err := q.Resolve(ctx, registry.Field, name, src)
	if err != nil {
		return nil, err
	}
	var ref labeled.Array
	if r, ok := q.Param(ParamRef); ok {
		if ref, ok = r.(labeled.Array); !ok {
			return nil, fmt.Errorf("%w: %s must be a labeled array, got %T", ErrParam, ParamRef, r)
		}
	} else if ref, err = q.Resolve(ctx, registry.TimeAveragedProfile, name, src); err != nil {
		return nil, err
	}
	return labeled.Broadcast(field, ref, func(v, r float64) float64 { return (v - r) / r })
}

// Register registers rel_pert with the set.
func (m *Module) Register(s *registry.Set) {
	s.Fields().Register(Name, RelPert)
}
