package musicdata

import (
	"errors"
	"fmt"

	"github.com/vk/musicscripts/internal/dump"
	"github.com/vk/musicscripts/internal/namelist"
)

// Params are the run parameters read from the namelist.
type Params struct {
	Metallicity float64
	Helium      float64
	NumScalars  int
	DataOutput  string
	Input       string
	BC          [2]dump.BC
	Cartesian   bool
}

// Layout returns the dump layout of the run.
func (p Params) Layout() dump.Layout {
	return dump.Layout{NumScalars: p.NumScalars, BC: p.BC}
}

func parseParams(nml *namelist.Namelist) (Params, error) {
	var p Params
	var err error
	required := func(group, key string, fn func() error) {
		if err != nil {
			return
		}
		if e := fn(); e != nil {
			err = fmt.Errorf("%w: %s.%s: %v", ErrMalformedRun, group, key, e)
		}
	}
	required("physics", "zz", func() (e error) { p.Metallicity, e = nml.Float("physics", "zz"); return })
	if nml.Has("scalars", "nscalars") {
		required("scalars", "nscalars", func() (e error) { p.NumScalars, e = nml.Int("scalars", "nscalars"); return })
	}
	if p.NumScalars == 0 {
		required("physics", "yy", func() (e error) { p.Helium, e = nml.Float("physics", "yy"); return })
	}
	required("io", "dataoutput", func() (e error) { p.DataOutput, e = nml.String("io", "dataoutput"); return })
	for i, key := range []string{"bc1", "bc3"} {
		required("boundaryconditions", key, func() error {
			name, e := nml.String("boundaryconditions", key)
			p.BC[i] = dump.ParseBC(name)
			return e
		})
	}
	required("geometry", "cartesian", func() (e error) { p.Cartesian, e = nml.Bool("geometry", "cartesian"); return })
	if err != nil {
		return Params{}, err
	}
	if p.Input, err = nml.String("io", "input"); err != nil && !errors.Is(err, namelist.ErrMissing) {
		return Params{}, fmt.Errorf("%w: io.input: %v", ErrMalformedRun, err)
	}
	return p, nil
}
