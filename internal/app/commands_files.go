package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/musicscripts/internal/ctxlog"
	"github.com/vk/musicscripts/internal/export"
	"github.com/vk/musicscripts/internal/fsutil"
	"github.com/vk/musicscripts/internal/lscale"
	"github.com/vk/musicscripts/internal/lyon1d"
	"github.com/vk/musicscripts/internal/restart"
)

// runRestart restarts restart.batch, or every batch* file of the working
// directory. Declined batches are skipped.
func runRestart(ctx context.Context, s *session) error {
	logger := ctxlog.FromContext(ctx)
	batches := s.cfg.Restart.Batch
	if len(batches) == 0 {
		var err error
		if batches, err = restart.BatchFiles("."); err != nil {
			return err
		}
	}
	if len(batches) == 0 {
		logger.Warn("No batch file to restart.")
		return nil
	}

	r := &restart.Restarter{Dir: ".", Submit: s.app.submitter()}
	if s.app.appConfig.AssumeYes {
		r.Confirm = func(p *restart.Plan) (bool, error) { return true, p.Describe(s.app.outW) }
	} else {
		in := s.app.appConfig.Stdin
		if in == nil {
			in = strings.NewReader("")
		}
		r.Confirm = restart.Prompt(in, s.app.outW)
	}
	for _, batch := range batches {
		err := r.Restart(ctx, batch)
		if errors.Is(err, restart.ErrAborted) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *App) submitter() restart.Submitter {
	if a.submit != nil {
		return a.submit
	}
	return restart.Sbatch{Stdout: a.outW, Stderr: a.outW}
}

func runRenumber(ctx context.Context, s *session) error {
	cfg := s.cfg.Renumber
	n, err := fsutil.Renumber(cfg.PathIn, cfg.PathOut, cfg.Pattern)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Renumbered dumps.", "from", cfg.PathIn, "to", cfg.PathOut, "count", n)
	return nil
}

// runLscale exports T'/<T> on the cells of the file, indexed by the inner
// walls of each cell.
func runLscale(ctx context.Context, s *session) error {
	if s.cfg.Lscale.File == "" {
		return errors.New("no lscale file given")
	}
	data, err := lscale.ReadFile(s.cfg.Lscale.File)
	if err != nil {
		return err
	}
	rel := data.RelativeTempPert()
	if len(rel) == 0 {
		return fmt.Errorf("%s has no cell", s.cfg.Lscale.File)
	}
	t, err := export.Grid("lscale_temp_pert",
		"radius", data.Radius[:len(data.Radius)-1],
		"theta", data.Theta[:len(data.Theta)-1],
		rel)
	if err != nil {
		return err
	}
	t.Value = "temp_pert"
	t.Attrs = map[string]string{"file": s.cfg.Lscale.File, "time": fmt.Sprint(data.Header.Time)}
	return s.export(ctx, t)
}

// runMesa1d exports the requested columns of a 1D model against radius.
func runMesa1d(ctx context.Context, s *session) error {
	if s.cfg.Mesa1d.File == "" {
		return errors.New("no mesa1d file given")
	}
	model, err := lyon1d.ReadFile(s.cfg.Mesa1d.File)
	if err != nil {
		return err
	}
	radius, err := model.Column("radius")
	if err != nil {
		return err
	}
	for _, name := range s.cfg.Mesa1d.Plot {
		col, err := model.Column(name)
		if err != nil {
			return err
		}
		t, err := export.Series("rprof_mesa_"+name, "radius", radius, col)
		if err != nil {
			return err
		}
		t.Value = name
		t.Attrs = map[string]string{"file": s.cfg.Mesa1d.File}
		if err := s.export(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
