package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is the set of top-level blocks a configuration file may hold.
// Each block appears at most once per file; later files override earlier
// ones attribute by attribute.
type fileRoot struct {
	Core        *coreBlock        `hcl:"core,block"`
	Field       *fieldBlock       `hcl:"field,block"`
	Rprof       *quantityBlock    `hcl:"rprof,block"`
	Tseries     *quantityBlock    `hcl:"tseries,block"`
	Info        *infoBlock        `hcl:"info,block"`
	IGW         *igwBlock         `hcl:"igw,block"`
	Restart     *restartBlock     `hcl:"restart,block"`
	Renumber    *renumberBlock    `hcl:"renumber,block"`
	FortPP      *fortPPBlock      `hcl:"fort_pp,block"`
	Plotting    *plottingBlock    `hcl:"plotting,block"`
	FieldPP     *quantityBlock    `hcl:"field_pp,block"`
	ContourPP   *contourPPBlock   `hcl:"contour_pp,block"`
	RprofPP     *rprofPPBlock     `hcl:"rprof_pp,block"`
	RprofTavePP *rprofTavePPBlock `hcl:"rprof_tave_pp,block"`
	Lscale      *fileBlock        `hcl:"lscale,block"`
	Mesa1d      *mesa1dBlock      `hcl:"mesa1d,block"`
	Output      *outputBlock      `hcl:"output,block"`
	SeriesDB    *databaseBlock    `hcl:"series_db,block"`
	EoSDB       *databaseBlock    `hcl:"eos_db,block"`
	Remain      hcl.Body          `hcl:",remain"`
}

type coreBlock struct {
	Path  *string `hcl:"path,optional"`
	Dumps *string `hcl:"dumps,optional"`
}

type fieldBlock struct {
	Plot         *string `hcl:"plot,optional"`
	Perturbation *bool   `hcl:"perturbation,optional"`
}

type quantityBlock struct {
	Plot *string `hcl:"plot,optional"`
}

type infoBlock struct {
	TauConv *bool `hcl:"tau_conv,optional"`
}

type igwBlock struct {
	Field *string `hcl:"field,optional"`
	Ells  []int   `hcl:"ells,optional"`
}

type restartBlock struct {
	Batch []string `hcl:"batch,optional"`
}

type renumberBlock struct {
	PathIn  *string `hcl:"path_in,optional"`
	PathOut *string `hcl:"path_out,optional"`
	Pattern *string `hcl:"pattern,optional"`
}

type fortPPBlock struct {
	Postfile *string `hcl:"postfile,optional"`
	IDump    *int    `hcl:"idump,optional"`
}

type plottingBlock struct {
	RMarks []float64 `hcl:"rmarks,optional"`
}

type contourPPBlock struct {
	Plot []string `hcl:"plot,optional"`
	Over *string  `hcl:"over,optional"`
}

type rprofPPBlock struct {
	Plot   *string `hcl:"plot,optional"`
	Degree *int    `hcl:"degree,optional"`
}

type rprofTavePPBlock struct {
	EDump *int     `hcl:"edump,optional"`
	SDump *int     `hcl:"sdump,optional"`
	Error []string `hcl:"error,optional"`
}

type fileBlock struct {
	File *string `hcl:"file,optional"`
}

type mesa1dBlock struct {
	File *string  `hcl:"file,optional"`
	Plot []string `hcl:"plot,optional"`
}

type outputBlock struct {
	Driver    *string `hcl:"driver,optional"`
	Root      *string `hcl:"root,optional"`
	Bucket    *string `hcl:"bucket,optional"`
	Region    *string `hcl:"region,optional"`
	Endpoint  *string `hcl:"endpoint,optional"`
	PathStyle *bool   `hcl:"path_style,optional"`
	Format    *string `hcl:"format,optional"`
}

type databaseBlock struct {
	Driver *string `hcl:"driver,optional"`
	DSN    *string `hcl:"dsn,optional"`
}
