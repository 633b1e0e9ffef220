// Package profiles registers radial profile quantities.
package profiles

import (
	"context"
	"math"

	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Vrms is sqrt(mean_theta(v²)) at every radius.
func Vrms(ctx context.Context, q registry.Querier, src registry.Source) (labeled.Array, error) {
	prof, err := q.Resolve(ctx, registry.Profile, "vel_square", src)
	if err != nil {
		return nil, err
	}
	return labeled.Apply(prof, math.Sqrt), nil
}

// Register registers the profiles with the set.
func (m *Module) Register(s *registry.Set) {
	s.Profiles().Register("vrms", Vrms)
}
