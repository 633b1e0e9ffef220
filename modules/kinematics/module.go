// Package kinematics registers velocity and kinetic energy fields.
package kinematics

import (
	"context"
	"math"

	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// fromRaw builds a handler combining raw variables elementwise.
func fromRaw(fn func(v ...float64) float64, vars ...string) registry.Handler {
	return func(ctx context.Context, _ registry.Querier, src registry.Source) (labeled.Array, error) {
		raw, err := src.Raw(ctx)
		if err != nil {
			return nil, err
		}
		return labeled.Derived(raw, "var", vars, fn)
	}
}

func square(v ...float64) float64 { return v[0]*v[0] + v[1]*v[1] }

// VelAmpl is the norm of the velocity vector.
func VelAmpl(v ...float64) float64 { return math.Sqrt(square(v...)) }

// Ekin is the kinetic energy density from density, vel_1 and vel_2.
func Ekin(v ...float64) float64 { return 0.5 * v[0] * (v[1]*v[1] + v[2]*v[2]) }

// Register registers the fields with the set.
func (m *Module) Register(s *registry.Set) {
	f := s.Fields()
	f.Register("vel_ampl", fromRaw(VelAmpl, "vel_1", "vel_2"))
	f.Register("vel_square", fromRaw(square, "vel_1", "vel_2"))
	f.Register("ekin", fromRaw(Ekin, "density", "vel_1", "vel_2"))
	f.Register("vr_abs", fromRaw(func(v ...float64) float64 { return math.Abs(v[0]) }, "vel_1"))
	f.Register("vt_abs", fromRaw(func(v ...float64) float64 { return math.Abs(v[0]) }, "vel_2"))
	f.Register("vr_normalized", fromRaw(func(v ...float64) float64 {
		return math.Sqrt(v[0] * v[0] / square(v...))
	}, "vel_1", "vel_2"))
	f.Register("vt_normalized", fromRaw(func(v ...float64) float64 {
		return math.Sqrt(v[1] * v[1] / square(v...))
	}, "vel_1", "vel_2"))
}
