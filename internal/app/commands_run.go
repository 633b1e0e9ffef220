package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vk/musicscripts/internal/ctxlog"
	"github.com/vk/musicscripts/internal/diag"
	"github.com/vk/musicscripts/internal/export"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/musicdata"
	"github.com/vk/musicscripts/internal/seriesdb"
	"github.com/vk/musicscripts/internal/spectrum"
	"github.com/vk/musicscripts/modules/perturbation"
)

// runField exports the field of every selected dump, using a bounded pool of
// workers.
func runField(ctx context.Context, s *session) error {
	logger := ctxlog.FromContext(ctx)
	view, err := s.view(ctx)
	if err != nil {
		return err
	}
	if _, err := s.openExporter(ctx); err != nil {
		return err
	}
	res := s.resolver()
	name, label := s.cfg.Field.Plot, s.cfg.Field.Plot
	if s.cfg.Field.Perturbation {
		ref, err := res.TimeAveragedProfile(ctx, name, view)
		if err != nil {
			return err
		}
		dense, err := ref.Eval(ctx)
		if err != nil {
			return fmt.Errorf("reference profile of %s: %w", name, err)
		}
		res = res.WithParam(perturbation.ParamVar, name).WithParam(perturbation.ParamRef, labeled.Array(dense))
		name, label = perturbation.Name, perturbation.Name+"_"+name
	}
	idxs, err := view.Indices(ctx)
	if err != nil {
		return err
	}
	run := view.Run()
	logger.Info("Exporting fields.", "field", label, "dumps", len(idxs), "workers", s.app.appConfig.WorkerCount)

	// Snapshots are fetched inside the workers so that only the run cache and
	// the dumps in flight stay in memory.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.app.appConfig.WorkerCount)
	for _, idx := range idxs {
		g.Go(func() error {
			snap, err := run.At(gctx, idx)
			if errors.Is(err, musicdata.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			arr, err := res.Field(gctx, name, snap)
			if err != nil {
				return fmt.Errorf("dump %d: %w", idx, err)
			}
			d, err := arr.Eval(gctx)
			if err != nil {
				return fmt.Errorf("dump %d: %w", idx, err)
			}
			t, err := snap.Time(gctx)
			if err != nil {
				return err
			}
			return s.export(gctx, export.Table{
				Name:  fmt.Sprintf("field_%s_%08d", label, idx),
				Array: d,
				Value: label,
				Attrs: map[string]string{
					"run":  run.Dir(),
					"dump": strconv.Itoa(idx),
					"time": strconv.FormatFloat(t, 'g', -1, 64),
				},
			})
		})
	}
	return g.Wait()
}

func runRprof(ctx context.Context, s *session) error {
	view, err := s.view(ctx)
	if err != nil {
		return err
	}
	name := s.cfg.Rprof.Plot
	prof, err := s.resolver().TimeAveragedProfile(ctx, name, view)
	if err != nil {
		return err
	}
	d, err := prof.Eval(ctx)
	if err != nil {
		return err
	}
	return s.export(ctx, export.Table{
		Name:  "rprof_" + name,
		Array: d,
		Value: name,
		Attrs: map[string]string{"run": view.Run().Dir(), "dumps": s.cfg.Core.Dumps},
	})
}

func runTseries(ctx context.Context, s *session) error {
	view, err := s.view(ctx)
	if err != nil {
		return err
	}
	name := s.cfg.Tseries.Plot
	series, err := s.resolver().TimeSeries(ctx, name, view)
	if err != nil {
		return err
	}
	d, err := series.Eval(ctx)
	if err != nil {
		return err
	}
	if err := s.export(ctx, export.Table{
		Name:  "tseries_" + name,
		Array: d,
		Value: name,
		Attrs: map[string]string{"run": view.Run().Dir()},
	}); err != nil {
		return err
	}
	axes := d.Axes()
	if len(axes) != 1 || axes[0].Name != "time" {
		return fmt.Errorf("time series %s has axes %v", name, axes)
	}
	return s.recordSeries(ctx, seriesdb.Series{
		Run:    view.Run().Dir(),
		Name:   name,
		Time:   axes[0].Values,
		Values: d.Values(),
	})
}

func runInfo(ctx context.Context, s *session) error {
	run, err := s.openRun(ctx)
	if err != nil {
		return err
	}
	out := s.app.outW
	fmt.Fprintln(out, "Run in:", run.Dir())
	n, err := run.Len(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Number of dumps:", n)
	if !s.cfg.Info.TauConv {
		return nil
	}
	rcore, err := diag.RCore(run.Prof1d())
	if err != nil {
		return err
	}
	view, err := s.view(ctx)
	if err != nil {
		return err
	}
	tconv, err := diag.TauConv(ctx, s.resolver(), view, rcore)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Convective timescale:", tconv)
	return nil
}

// runIGW exports the power spectrum of igw.field over a single dump slice.
func runIGW(ctx context.Context, s *session) error {
	run, err := s.openRun(ctx)
	if err != nil {
		return err
	}
	items, err := musicdata.ParseItems(s.cfg.Core.Dumps)
	if err != nil {
		return err
	}
	ok := false
	var sl musicdata.Slice
	if len(items) == 1 {
		sl, ok = items[0].(musicdata.Slice)
	}
	if !ok {
		return errors.New("igw needs a single dump slice such as 100:500 or ::2")
	}
	view := run.Items(sl)
	fld, err := s.resolver().Field(ctx, s.cfg.IGW.Field, view)
	if err != nil {
		return err
	}
	g, err := run.Grid(ctx)
	if err != nil {
		return err
	}
	spec, err := spectrum.IGW(fld, g.Theta(), s.cfg.IGW.Ells)
	if err != nil {
		return err
	}
	d, err := spec.Eval(ctx)
	if err != nil {
		return err
	}
	n, err := run.Len(ctx)
	if err != nil {
		return err
	}
	start, stop, step := sl.Bounds(n)
	ells := make([]string, len(s.cfg.IGW.Ells))
	for i, l := range s.cfg.IGW.Ells {
		ells[i] = strconv.Itoa(l)
	}
	return s.exportAs(ctx, export.Table{
		Name:  fmt.Sprintf("igw_%s_ell_%s_dumps_%d:%d:%d", s.cfg.IGW.Field, strings.Join(ells, "_"), start, stop, step),
		Array: d,
		Value: "spectrum",
		Attrs: map[string]string{"run": run.Dir(), "field": s.cfg.IGW.Field},
	}, export.NetCDF)
}
