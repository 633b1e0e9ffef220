// Package thermo registers the thermodynamic fields computed through the
// equation of state of the source.
package thermo

import (
	"context"
	"math"

	"github.com/vk/musicscripts/internal/eos"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func derive(v eos.StateVar, post func(float64) float64) registry.Handler {
	return func(ctx context.Context, _ registry.Querier, src registry.Source) (labeled.Array, error) {
		e, err := src.EoS(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := src.Raw(ctx)
		if err != nil {
			return nil, err
		}
		arr, err := e.Derive(raw, v)
		if err != nil || post == nil {
			return arr, err
		}
		return labeled.Apply(arr, post), nil
	}
}

// exp10 resolves the field name and raises 10 to it.
func exp10(name string) registry.Handler {
	return func(ctx context.Context, q registry.Querier, src registry.Source) (labeled.Array, error) {
		arr, err := q.Resolve(ctx, registry.Field, name, src)
		if err != nil {
			return nil, err
		}
		return labeled.Apply(arr, func(x float64) float64 { return math.Pow(10, x) }), nil
	}
}

// Register registers the fields with the set.
func (m *Module) Register(s *registry.Set) {
	f := s.Fields()
	f.Register("log_temp", derive(eos.LogTemperature, nil))
	f.Register("log_press", derive(eos.LogPressure, nil))
	f.Register("log_pgas", derive(eos.LogGasPressure, nil))
	f.Register("entropy", derive(eos.LogEntropy, func(x float64) float64 { return math.Pow(10, x) }))
	f.Register("adiab_grad", derive(eos.AdiabaticGradient, nil))
	f.Register("temp", exp10("log_temp"))
	f.Register("press", exp10("log_press"))
	f.Register("pgas", exp10("log_pgas"))
}
