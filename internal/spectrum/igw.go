package spectrum

import (
	"fmt"
	"slices"

	"github.com/vk/musicscripts/internal/grid"
	"github.com/vk/musicscripts/internal/labeled"
)

const (
	// EllTolerance bounds the orthonormality error of the harmonics.
	EllTolerance = 0.15
	// SpacingTolerance bounds the relative jitter of dump times.
	SpacingTolerance = 0.1
	// TimeSlab and RadiusSlab are the chunk sizes of the pipeline.
	TimeSlab   = 200
	RadiusSlab = 256
)

// IGW builds the power spectrum of a field with axes time, x1 and x2 on the
// harmonic degrees ells. The result has axes freq, x1 and ell in the order
// inherited from a and is evaluated one radial slab at a time.
func IGW(a labeled.Array, theta grid.Axis1D, ells []int) (labeled.Array, error) {
	if len(ells) == 0 {
		return nil, fmt.Errorf("no harmonic degree requested")
	}
	sh, err := NewSphHarm(theta, slices.Max(ells), EllTolerance, ells...)
	if err != nil {
		return nil, err
	}
	times, err := labeled.Labels(a, "time")
	if err != nil {
		return nil, err
	}
	pw, err := NewPower(times.Values, SpacingTolerance)
	if err != nil {
		return nil, err
	}
	modes, err := sh.Transform(a, "x2", "ell")
	if err != nil {
		return nil, err
	}
	modes, err = labeled.Slabbed(modes, "time", TimeSlab)
	if err != nil {
		return nil, err
	}
	spec, err := pw.Transform(modes, "time", "freq")
	if err != nil {
		return nil, err
	}
	return labeled.Slabbed(spec, "x1", RadiusSlab)
}
