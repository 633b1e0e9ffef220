// Package diag computes global diagnostics of a run.
package diag

import (
	"context"

	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/prof1d"
	"github.com/vk/musicscripts/internal/registry"
)

// RCore reads the radius of the convective core from the profile file.
func RCore(p *prof1d.Prof1d) (float64, error) {
	return p.Param("rcore")
}

// TauConv is the convective turnover time: the crossing time of the core at
// the rms velocity, sum of dr/vrms over the cells below rcore, averaged over
// time. A core with no cell below rcore has a zero crossing time.
func TauConv(ctx context.Context, q registry.Querier, src registry.Source, rcore float64) (float64, error) {
	vrms, err := q.Resolve(ctx, registry.Profile, "vrms", src)
	if err != nil {
		return 0, err
	}
	g, err := src.Grid(ctx)
	if err != nil {
		return 0, err
	}
	centers := g.R().CellCenters()
	widths := g.R().CellWidths()
	crossing, err := labeled.Collapse(vrms, "x1", func(v []float64) float64 {
		s := 0.0
		for i, c := range centers {
			if c < rcore {
				s += widths[i] / v[i]
			}
		}
		return s
	})
	if err != nil {
		return 0, err
	}
	if labeled.Has(crossing, "time") {
		if crossing, err = labeled.Mean(crossing, "time"); err != nil {
			return 0, err
		}
	}
	return labeled.Scalar(ctx, crossing)
}
