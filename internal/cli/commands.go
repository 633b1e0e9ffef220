package cli

import (
	"strings"

	"github.com/vk/musicscripts/internal/config"
)

// commandFlags registers the flags of each command. Every flag overrides
// the configuration value of the same name.
var commandFlags = map[string]func(b *binder){
	"field": func(b *binder) {
		b.str([]string{"o", "plot"}, "variable to export", func(m *config.Model, v string) { m.Field.Plot = v })
		b.boolean([]string{"pert"}, "export the relative perturbation of the variable", func(m *config.Model, v bool) { m.Field.Perturbation = v })
	},
	"rprof": func(b *binder) {
		b.str([]string{"o", "plot"}, "variable to export", func(m *config.Model, v string) { m.Rprof.Plot = v })
	},
	"tseries": func(b *binder) {
		b.str([]string{"o", "plot"}, "variable to export", func(m *config.Model, v string) { m.Tseries.Plot = v })
	},
	"info": func(b *binder) {
		b.boolean([]string{"tconv"}, "compute the convective timescale", func(m *config.Model, v bool) { m.Info.TauConv = v })
	},
	"igw": func(b *binder) {
		b.str([]string{"field"}, "field to transform", func(m *config.Model, v string) { m.IGW.Field = v })
		b.ints([]string{"ells"}, "comma separated harmonic degrees", func(m *config.Model, v []int) { m.IGW.Ells = v })
	},
	"restart": func(b *binder) {
		b.strs([]string{"b", "batch"}, "batch files to use for restart", func(m *config.Model, v []string) { m.Restart.Batch = v })
	},
	"renumber": func(b *binder) {
		b.str([]string{"in"}, "directory holding the dumps", func(m *config.Model, v string) { m.Renumber.PathIn = v })
		b.str([]string{"out"}, "directory to create", func(m *config.Model, v string) { m.Renumber.PathOut = v })
		b.str([]string{"pattern"}, "name pattern of renumbered dumps", func(m *config.Model, v string) { m.Renumber.Pattern = v })
	},
	"pendepth": fortPPFlags,
	"field_pp": func(b *binder) {
		fortPPFlags(b)
		rmarksFlag(b)
		b.str([]string{"o", "plot"}, "variable to export", func(m *config.Model, v string) { m.FieldPP.Plot = v })
	},
	"contour_pp": func(b *binder) {
		fortPPFlags(b)
		rmarksFlag(b)
		b.strs([]string{"o", "plot"}, "contours to export", func(m *config.Model, v []string) { m.ContourPP.Plot = v })
		b.str([]string{"over"}, "export a field along with the contours", func(m *config.Model, v string) { m.ContourPP.Over = v })
	},
	"rprof_pp": func(b *binder) {
		fortPPFlags(b)
		rprofPPFlags(b)
	},
	"rprof_tave_pp": func(b *binder) {
		fortPPFlags(b)
		rprofPPFlags(b)
		b.integer([]string{"edump"}, "last checkpoint", func(m *config.Model, v int) { m.RprofTavePP.EDump = v })
		b.integer([]string{"sdump"}, "checkpoint step", func(m *config.Model, v int) { m.RprofTavePP.SDump = v })
		b.strs([]string{"error"}, "spreads to export: std, range", func(m *config.Model, v []string) { m.RprofTavePP.Error = v })
	},
	"lmax": fortPPFlags,
	"lscale": func(b *binder) {
		b.str([]string{"f", "file"}, "binary file to read", func(m *config.Model, v string) { m.Lscale.File = v })
	},
	"mesa1d": func(b *binder) {
		b.str([]string{"f", "file"}, "model file to read", func(m *config.Model, v string) { m.Mesa1d.File = v })
		b.strs([]string{"o", "plot"}, "columns to export", func(m *config.Model, v []string) { m.Mesa1d.Plot = v })
	},
}

func fortPPFlags(b *binder) {
	b.str([]string{"p", "postfile"}, "path to master h5 file from post_par", func(m *config.Model, v string) { m.FortPP.Postfile = v })
	b.integer([]string{"d", "idump"}, "dump number to process", func(m *config.Model, v int) { m.FortPP.IDump = v })
}

func rmarksFlag(b *binder) {
	b.floats([]string{"rmarks"}, "add contours at constant radii", func(m *config.Model, v []float64) { m.Plotting.RMarks = v })
}

func rprofPPFlags(b *binder) {
	b.str([]string{"o", "plot"}, "variable to export", func(m *config.Model, v string) { m.RprofPP.Plot = v })
	b.integer([]string{"D", "degree"}, "degree of rprof", func(m *config.Model, v int) { m.RprofPP.Degree = v })
}

// globalFlags registers the flags shared by every command.
func globalFlags(b *binder) {
	b.str([]string{"P", "path"}, "path of the run directory or parameter file", func(m *config.Model, v string) { m.Core.Path = v })
	b.str([]string{"dumps"}, "dumps to process, e.g. 0,3:20,-1 or ::10", func(m *config.Model, v string) { m.Core.Dumps = v })
	b.str([]string{"format"}, "export format: csv or nc", func(m *config.Model, v string) { m.Output.Format = v })
	b.str([]string{"out"}, "output directory of the fs driver", func(m *config.Model, v string) { m.Output.Root = v })
	b.str([]string{"out-driver"}, "output driver: fs, s3 or memory", func(m *config.Model, v string) { m.Output.Driver = v })
	b.str([]string{"series-db"}, "sqlite file or postgres DSN recording time series", func(m *config.Model, v string) { m.SeriesDB = database(v) })
	b.str([]string{"eos-db"}, "sqlite file or postgres DSN holding the EoS table", func(m *config.Model, v string) { m.EoSDB = database(v) })
}

// database picks the driver of a DSN given on the command line.
func database(dsn string) config.Database {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return config.Database{Driver: "postgres", DSN: dsn}
	}
	return config.Database{Driver: "sqlite", DSN: dsn}
}
