package fortpp

import (
	"fmt"
	"math"
)

// LMax measures how far above the Schwarzschild boundary a penetration
// criterion reaches.
type LMax struct {
	File *File
	// Criteria selects the pen_depth_<criteria> contour, e.g. "conv" or "ke".
	Criteria string
}

// Series returns max(pen_depth) - r_schwarz_preset for every checkpoint.
func (l LMax) Series() (Series, error) {
	names, err := l.File.Checkpoints()
	if err != nil {
		return Series{}, err
	}
	s := Series{
		Name:   "lmax_" + l.Criteria,
		Time:   make([]float64, 0, len(names)),
		Values: make([]float64, 0, len(names)),
	}
	for _, name := range names {
		c, err := l.File.checkpoint(name)
		if err != nil {
			return Series{}, err
		}
		rs, err := c.scalar("pp_parameters", "r_schwarz_preset")
		if err != nil {
			return Series{}, err
		}
		t, err := c.scalar("parameters", "time")
		if err != nil {
			return Series{}, err
		}
		depth, err := c.vector("Contour_field", "pen_depth_"+l.Criteria)
		if err != nil {
			return Series{}, err
		}
		top := math.Inf(-1)
		for _, d := range depth {
			top = math.Max(top, d)
		}
		s.Time = append(s.Time, t)
		s.Values = append(s.Values, top-rs)
	}
	return s, nil
}

func (c *Checkpoint) scalar(path ...string) (float64, error) {
	v, err := c.variable(path...)
	if err != nil {
		return 0, err
	}
	x, err := scalar(v.Values)
	if err != nil {
		return 0, fmt.Errorf("checkpoint %s dataset %v: %w", c.name, path, err)
	}
	return x, nil
}
