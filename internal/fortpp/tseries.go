package fortpp

import (
	"fmt"

	"github.com/vk/musicscripts/internal/reduce"
)

// Tseries is a sequence of checkpoints sharing the same evaluation grid.
type Tseries struct {
	Checkpoints []*Checkpoint
}

// PPGrid returns the evaluation grid of the first checkpoint.
func (t *Tseries) PPGrid(direction string) ([]float64, error) {
	return t.Checkpoints[0].PPGrid(direction)
}

func (t *Tseries) stack(name string, degree int) ([][]float64, []float64, error) {
	rows := make([][]float64, 0, len(t.Checkpoints))
	var rad []float64
	for _, c := range t.Checkpoints {
		p, err := c.Rprof(name, degree)
		if err != nil {
			return nil, nil, err
		}
		if rad == nil {
			rad = p.Radius
		} else if len(p.Values) != len(rad) {
			return nil, nil, fmt.Errorf("checkpoint %s: %d radial points, expected %d", c.Name(), len(p.Values), len(rad))
		}
		rows = append(rows, p.Values)
	}
	return rows, rad, nil
}

// Rprof is the time average of the radial moment, ignoring NaNs.
func (t *Tseries) Rprof(name string, degree int) (Rprof, error) {
	rows, rad, err := t.stack(name, degree)
	if err != nil {
		return Rprof{}, err
	}
	return Rprof{Name: name, Degree: degree, Radius: rad, Values: reduce.Columns(rows, reduce.NanMean)}, nil
}

// RprofStd is the band mean ± standard deviation over time.
func (t *Tseries) RprofStd(name string, degree int) (RprofArea, error) {
	rows, rad, err := t.stack(name, degree)
	if err != nil {
		return RprofArea{}, err
	}
	mean := reduce.Columns(rows, reduce.NanMean)
	std := reduce.Columns(rows, reduce.NanStd)
	area := RprofArea{
		Name:   fmt.Sprintf("std(%s)", name),
		Degree: degree,
		Radius: rad,
		Bottom: make([]float64, len(mean)),
		Top:    make([]float64, len(mean)),
	}
	for i := range mean {
		area.Bottom[i] = mean[i] - std[i]
		area.Top[i] = mean[i] + std[i]
	}
	return area, nil
}

// RprofRange is the band between the minimum and maximum over time.
func (t *Tseries) RprofRange(name string, degree int) (RprofArea, error) {
	rows, rad, err := t.stack(name, degree)
	if err != nil {
		return RprofArea{}, err
	}
	return RprofArea{
		Name:   fmt.Sprintf("range(%s)", name),
		Degree: degree,
		Radius: rad,
		Bottom: reduce.Columns(rows, reduce.NanMin),
		Top:    reduce.Columns(rows, reduce.NanMax),
	}, nil
}
