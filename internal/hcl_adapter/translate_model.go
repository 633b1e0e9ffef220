// This file contains the logic for merging decoded HCL blocks into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"github.com/vk/musicscripts/internal/config"
)

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setSlice[T any](dst *[]T, src []T) {
	if src != nil {
		*dst = append([]T(nil), src...)
	}
}

// apply merges every attribute set in root into m.
func apply(m *config.Model, root *fileRoot) {
	if b := root.Core; b != nil {
		set(&m.Core.Path, b.Path)
		set(&m.Core.Dumps, b.Dumps)
	}
	if b := root.Field; b != nil {
		set(&m.Field.Plot, b.Plot)
		set(&m.Field.Perturbation, b.Perturbation)
	}
	if b := root.Rprof; b != nil {
		set(&m.Rprof.Plot, b.Plot)
	}
	if b := root.Tseries; b != nil {
		set(&m.Tseries.Plot, b.Plot)
	}
	if b := root.Info; b != nil {
		set(&m.Info.TauConv, b.TauConv)
	}
	if b := root.IGW; b != nil {
		set(&m.IGW.Field, b.Field)
		setSlice(&m.IGW.Ells, b.Ells)
	}
	if b := root.Restart; b != nil {
		setSlice(&m.Restart.Batch, b.Batch)
	}
	if b := root.Renumber; b != nil {
		set(&m.Renumber.PathIn, b.PathIn)
		set(&m.Renumber.PathOut, b.PathOut)
		set(&m.Renumber.Pattern, b.Pattern)
	}
	if b := root.FortPP; b != nil {
		set(&m.FortPP.Postfile, b.Postfile)
		set(&m.FortPP.IDump, b.IDump)
	}
	if b := root.Plotting; b != nil {
		setSlice(&m.Plotting.RMarks, b.RMarks)
	}
	if b := root.FieldPP; b != nil {
		set(&m.FieldPP.Plot, b.Plot)
	}
	if b := root.ContourPP; b != nil {
		setSlice(&m.ContourPP.Plot, b.Plot)
		set(&m.ContourPP.Over, b.Over)
	}
	if b := root.RprofPP; b != nil {
		set(&m.RprofPP.Plot, b.Plot)
		set(&m.RprofPP.Degree, b.Degree)
	}
	if b := root.RprofTavePP; b != nil {
		set(&m.RprofTavePP.EDump, b.EDump)
		set(&m.RprofTavePP.SDump, b.SDump)
		setSlice(&m.RprofTavePP.Error, b.Error)
	}
	if b := root.Lscale; b != nil {
		set(&m.Lscale.File, b.File)
	}
	if b := root.Mesa1d; b != nil {
		set(&m.Mesa1d.File, b.File)
		setSlice(&m.Mesa1d.Plot, b.Plot)
	}
	if b := root.Output; b != nil {
		set(&m.Output.Driver, b.Driver)
		set(&m.Output.Root, b.Root)
		set(&m.Output.Bucket, b.Bucket)
		set(&m.Output.Region, b.Region)
		set(&m.Output.Endpoint, b.Endpoint)
		set(&m.Output.PathStyle, b.PathStyle)
		set(&m.Output.Format, b.Format)
	}
	applyDatabase(&m.SeriesDB, root.SeriesDB)
	applyDatabase(&m.EoSDB, root.EoSDB)
}

func applyDatabase(dst *config.Database, b *databaseBlock) {
	if b == nil {
		return
	}
	set(&dst.Driver, b.Driver)
	set(&dst.DSN, b.DSN)
}
