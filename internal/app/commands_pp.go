package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vk/musicscripts/internal/export"
	"github.com/vk/musicscripts/internal/fortpp"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/seriesdb"
)

func (s *session) checkpoint() (*fortpp.Checkpoint, error) {
	f, err := s.openPostfile()
	if err != nil {
		return nil, err
	}
	return f.Checkpoint(s.cfg.FortPP.IDump)
}

func (s *session) ppAttrs(chk *fortpp.Checkpoint) map[string]string {
	return map[string]string{"postfile": s.cfg.FortPP.Postfile, "checkpoint": chk.Name()}
}

// contoursTable lays contours sampled on theta out as one table indexed by
// contour name and colatitude.
func contoursTable(name string, theta []float64, contours []fortpp.Contour) (export.Table, error) {
	names := make([]string, len(contours))
	values := make([]float64, 0, len(contours)*len(theta))
	for i, c := range contours {
		if len(c.Radius) != len(theta) {
			return export.Table{}, fmt.Errorf("contour %s has %d points on a %d points grid", c.Name, len(c.Radius), len(theta))
		}
		names[i] = c.Name
		values = append(values, c.Radius...)
	}
	d, err := labeled.NewDense([]labeled.Axis{
		labeled.Categorical("contour", names...),
		labeled.Coord("theta", theta),
	}, values)
	if err != nil {
		return export.Table{}, fmt.Errorf("table %s: %w", name, err)
	}
	return export.Table{Name: name, Array: d, Value: "radius"}, nil
}

// rmarks returns the constant radius contours of plotting.rmarks on theta.
func (s *session) rmarks(theta []float64) []fortpp.Contour {
	if len(theta) == 0 {
		return nil
	}
	out := make([]fortpp.Contour, 0, len(s.cfg.Plotting.RMarks))
	for _, r := range s.cfg.Plotting.RMarks {
		label := "r=" + strconv.FormatFloat(r, 'g', -1, 64)
		out = append(out, fortpp.ConstRad(r, theta[0], theta[len(theta)-1], label, len(theta)))
	}
	return out
}

func (s *session) exportPPField(ctx context.Context, chk *fortpp.Checkpoint, name, table string) error {
	field, err := chk.Field(name)
	if err != nil {
		return err
	}
	t, err := export.Grid(table, "radius", field.Radius, "theta", field.Theta, field.Values)
	if err != nil {
		return err
	}
	t.Value, t.Attrs = name, s.ppAttrs(chk)
	return s.export(ctx, t)
}

func runPendepth(ctx context.Context, s *session) error {
	chk, err := s.checkpoint()
	if err != nil {
		return err
	}
	theta, err := chk.PPGrid("theta")
	if err != nil {
		return err
	}
	contours := make([]fortpp.Contour, 0, len(fortpp.PendepthVars))
	for _, name := range fortpp.PendepthVars {
		c, err := chk.ContourField(name)
		if err != nil {
			return err
		}
		contours = append(contours, c)
	}
	t, err := contoursTable("pendepth_"+chk.Name(), theta, contours)
	if err != nil {
		return err
	}
	t.Attrs = s.ppAttrs(chk)
	return s.export(ctx, t)
}

func runFieldPP(ctx context.Context, s *session) error {
	chk, err := s.checkpoint()
	if err != nil {
		return err
	}
	name := s.cfg.FieldPP.Plot
	table := fmt.Sprintf("field_pp_%s_%s", name, chk.Name())
	if err := s.exportPPField(ctx, chk, name, table); err != nil {
		return err
	}
	if len(s.cfg.Plotting.RMarks) == 0 {
		return nil
	}
	theta, err := chk.PPGrid("theta")
	if err != nil {
		return err
	}
	t, err := contoursTable(table+"_rmarks", theta, s.rmarks(theta))
	if err != nil {
		return err
	}
	t.Attrs = s.ppAttrs(chk)
	return s.export(ctx, t)
}

func runContourPP(ctx context.Context, s *session) error {
	chk, err := s.checkpoint()
	if err != nil {
		return err
	}
	theta, err := chk.PPGrid("theta")
	if err != nil {
		return err
	}
	var contours []fortpp.Contour
	for _, name := range s.cfg.ContourPP.Plot {
		c, err := chk.ContourField(name)
		if err != nil {
			return err
		}
		contours = append(contours, c)
	}
	contours = append(contours, s.rmarks(theta)...)
	if len(contours) == 0 {
		return fmt.Errorf("no contour to export")
	}
	table := "contour_" + strings.Join(s.cfg.ContourPP.Plot, "_")
	if over := s.cfg.ContourPP.Over; over != "" {
		table += "__over_" + over
		if err := s.exportPPField(ctx, chk, over, table+"_field"); err != nil {
			return err
		}
	}
	t, err := contoursTable(table, theta, contours)
	if err != nil {
		return err
	}
	t.Attrs = s.ppAttrs(chk)
	return s.export(ctx, t)
}

func runRprofPP(ctx context.Context, s *session) error {
	chk, err := s.checkpoint()
	if err != nil {
		return err
	}
	prof, err := chk.Rprof(s.cfg.RprofPP.Plot, s.cfg.RprofPP.Degree)
	if err != nil {
		return err
	}
	t, err := export.Series(fmt.Sprintf("rprof_pp_deg_%d_%s_%s", prof.Degree, prof.Name, chk.Name()), "radius", prof.Radius, prof.Values)
	if err != nil {
		return err
	}
	t.Value, t.Attrs = prof.Name, s.ppAttrs(chk)
	return s.export(ctx, t)
}

// runRprofTavePP exports the mean radial profile over checkpoints along
// with the requested spreads, as rows of a single table.
func runRprofTavePP(ctx context.Context, s *session) error {
	f, err := s.openPostfile()
	if err != nil {
		return err
	}
	cfg := s.cfg.RprofTavePP
	ts, err := f.Tseries(s.cfg.FortPP.IDump, cfg.EDump, cfg.SDump)
	if err != nil {
		return err
	}
	name, degree := s.cfg.RprofPP.Plot, s.cfg.RprofPP.Degree
	mean, err := ts.Rprof(name, degree)
	if err != nil {
		return err
	}
	rows := []string{"mean"}
	values := append([]float64(nil), mean.Values...)
	for _, spread := range cfg.Error {
		var area fortpp.RprofArea
		switch spread {
		case "std":
			area, err = ts.RprofStd(name, degree)
		case "range":
			area, err = ts.RprofRange(name, degree)
		default:
			err = fmt.Errorf("unrecognised spread %q", spread)
		}
		if err != nil {
			return err
		}
		rows = append(rows, spread+"_bottom", spread+"_top")
		values = append(values, area.Bottom...)
		values = append(values, area.Top...)
	}
	d, err := labeled.NewDense([]labeled.Axis{
		labeled.Categorical("stat", rows...),
		labeled.Coord("radius", mean.Radius),
	}, values)
	if err != nil {
		return err
	}
	return s.export(ctx, export.Table{
		Name:  fmt.Sprintf("rprof_deg_%d_tave_%s", degree, name),
		Array: d,
		Value: name,
		Attrs: map[string]string{
			"postfile":    s.cfg.FortPP.Postfile,
			"checkpoints": strconv.Itoa(len(ts.Checkpoints)),
		},
	})
}

// runLmax exports lmax for the conv and ke criteria against time.
func runLmax(ctx context.Context, s *session) error {
	f, err := s.openPostfile()
	if err != nil {
		return err
	}
	criteria := []string{"conv", "ke"}
	names := make([]string, len(criteria))
	var times, values []float64
	var series []fortpp.Series
	for i, c := range criteria {
		ser, err := fortpp.LMax{File: f, Criteria: c}.Series()
		if err != nil {
			return err
		}
		if times == nil {
			times = ser.Time
		}
		names[i] = ser.Name
		values = append(values, ser.Values...)
		series = append(series, ser)
	}
	d, err := labeled.NewDense([]labeled.Axis{
		labeled.Categorical("series", names...),
		labeled.Coord("time", times),
	}, values)
	if err != nil {
		return err
	}
	if err := s.export(ctx, export.Table{
		Name:  "lmax",
		Array: d,
		Value: "lmax",
		Attrs: map[string]string{"postfile": s.cfg.FortPP.Postfile},
	}); err != nil {
		return err
	}
	run, err := filepath.Abs(s.cfg.FortPP.Postfile)
	if err != nil {
		return err
	}
	for _, ser := range series {
		if err := s.recordSeries(ctx, seriesdb.Series{Run: run, Name: ser.Name, Time: ser.Time, Values: ser.Values}); err != nil {
			return err
		}
	}
	return nil
}
