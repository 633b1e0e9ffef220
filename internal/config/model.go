package config

import (
	"errors"
	"fmt"
	"slices"
)

// Model is the unified, format-agnostic representation of the whole
// configuration. Every section maps to one command or to a collaborator
// shared by several commands.
type Model struct {
	Core        Core
	Field       Field
	Rprof       Quantity
	Tseries     Quantity
	Info        Info
	IGW         IGW
	Restart     Restart
	Renumber    Renumber
	FortPP      FortPP
	Plotting    Plotting
	FieldPP     FieldPP
	ContourPP   ContourPP
	RprofPP     RprofPP
	RprofTavePP RprofTavePP
	Lscale      Lscale
	Mesa1d      Mesa1d
	Output      Output
	SeriesDB    Database
	EoSDB       Database
}

// Core locates the run.
type Core struct {
	// Path is a run directory or a parameter file.
	Path string
	// Dumps selects dumps, e.g. "0,3:20,-1". Empty selects all of them.
	Dumps string
}

// Field configures the field command.
type Field struct {
	Plot string
	// Perturbation exports rel_pert of Plot instead of Plot itself.
	Perturbation bool
}

// Quantity names the quantity a command resolves.
type Quantity struct {
	Plot string
}

// Info configures the info command.
type Info struct {
	TauConv bool
}

// IGW configures the internal gravity waves spectrum.
type IGW struct {
	Field string
	Ells  []int
}

// Restart lists the batch files to restart. Empty means every batch* file
// of the working directory.
type Restart struct {
	Batch []string
}

// Renumber configures the renumber command.
type Renumber struct {
	PathIn  string
	PathOut string
	Pattern string
}

// FortPP locates the post-processing master file.
type FortPP struct {
	Postfile string
	IDump    int
}

// Plotting carries options shared by the FortPP exports.
type Plotting struct {
	// RMarks adds constant radius contours.
	RMarks []float64
}

// FieldPP configures the field_pp command.
type FieldPP struct {
	Plot string
}

// ContourPP configures the contour_pp command.
type ContourPP struct {
	Plot []string
	// Over exports a field alongside the contours when set.
	Over string
}

// RprofPP configures the rprof_pp and rprof_tave_pp commands.
type RprofPP struct {
	Plot   string
	Degree int
}

// RprofTavePP selects the checkpoints averaged by rprof_tave_pp, from
// FortPP.IDump to EDump every SDump, and the spread exported with the mean.
type RprofTavePP struct {
	EDump int
	SDump int
	// Error holds "std" and/or "range".
	Error []string
}

// Lscale configures the lscale command.
type Lscale struct {
	File string
}

// Mesa1d configures the mesa1d command.
type Mesa1d struct {
	File string
	Plot []string
}

// Output configures where and how command results are exported.
type Output struct {
	Driver    string
	Root      string
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
	Format    string
}

// Database is a database/sql driver name and DSN. An empty DSN disables the
// database.
type Database struct {
	Driver string
	DSN    string
}

// Enabled reports whether a DSN is set.
func (d Database) Enabled() bool { return d.DSN != "" }

// Default returns the model used when no configuration file sets a value.
func Default() *Model {
	return &Model{
		Core:        Core{Path: "."},
		Field:       Field{Plot: "vel_ampl"},
		Rprof:       Quantity{Plot: "vel_ampl"},
		Tseries:     Quantity{Plot: "ekin"},
		IGW:         IGW{Field: "vel_1", Ells: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		Renumber:    Renumber{PathIn: ".", PathOut: "renumbered", Pattern: "%08d.music"},
		FortPP:      FortPP{Postfile: "post.h5", IDump: 1},
		FieldPP:     FieldPP{Plot: "rho"},
		ContourPP:   ContourPP{Plot: []string{"pen_depth_conv", "pen_depth_ke", "r_schwarz_max"}},
		RprofPP:     RprofPP{Plot: "rho", Degree: 1},
		RprofTavePP: RprofTavePP{EDump: 1, SDump: 1},
		Mesa1d:      Mesa1d{Plot: []string{"temperature"}},
		Output:      Output{Driver: "fs", Root: "out", Format: "csv"},
		SeriesDB:    Database{Driver: "sqlite"},
		EoSDB:       Database{Driver: "sqlite"},
	}
}

// Validate checks the values no command can work around.
func (m *Model) Validate() error {
	var errs []error
	if m.Core.Path == "" {
		errs = append(errs, errors.New("core.path must not be empty"))
	}
	if len(m.IGW.Ells) == 0 {
		errs = append(errs, errors.New("igw.ells must not be empty"))
	}
	for _, l := range m.IGW.Ells {
		if l < 0 {
			errs = append(errs, fmt.Errorf("igw.ells: negative degree %d", l))
		}
	}
	if m.RprofPP.Degree < 1 {
		errs = append(errs, fmt.Errorf("rprof_pp.degree must be at least 1, got %d", m.RprofPP.Degree))
	}
	if m.RprofTavePP.SDump < 1 {
		errs = append(errs, fmt.Errorf("rprof_tave_pp.sdump must be at least 1, got %d", m.RprofTavePP.SDump))
	}
	for _, e := range m.RprofTavePP.Error {
		if e != "std" && e != "range" {
			errs = append(errs, fmt.Errorf("rprof_tave_pp.error: unrecognised value %q", e))
		}
	}
	if !slices.Contains([]string{"fs", "s3", "memory"}, m.Output.Driver) {
		errs = append(errs, fmt.Errorf("output.driver: unknown driver %q", m.Output.Driver))
	}
	if m.Output.Driver == "s3" && m.Output.Bucket == "" {
		errs = append(errs, errors.New("output.bucket is required by the s3 driver"))
	}
	if !slices.Contains([]string{"csv", "nc"}, m.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", m.Output.Format))
	}
	for name, db := range map[string]Database{"series_db": m.SeriesDB, "eos_db": m.EoSDB} {
		if db.Enabled() && !slices.Contains([]string{"sqlite", "postgres"}, db.Driver) {
			errs = append(errs, fmt.Errorf("%s.driver: unknown driver %q", name, db.Driver))
		}
	}
	return errors.Join(errs...)
}
