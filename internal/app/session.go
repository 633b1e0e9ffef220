package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/musicscripts/internal/blob"
	"github.com/vk/musicscripts/internal/config"
	"github.com/vk/musicscripts/internal/ctxlog"
	"github.com/vk/musicscripts/internal/eostable"
	"github.com/vk/musicscripts/internal/export"
	"github.com/vk/musicscripts/internal/fortpp"
	"github.com/vk/musicscripts/internal/musicdata"
	"github.com/vk/musicscripts/internal/resolve"
	"github.com/vk/musicscripts/internal/seriesdb"
)

// session holds the collaborators of one command run. They are created on
// first use from the main goroutine and released by close.
type session struct {
	app *App
	cfg *config.Model

	run      *musicdata.Run
	exporter *export.Exporter
	series   *seriesdb.Store
	postfile *fortpp.File
	closers  []func() error
}

func newSession(a *App) *session {
	return &session{app: a, cfg: a.config}
}

func (s *session) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// openRun opens the run at core.path, with the EoS table of eos_db when one
// is configured.
func (s *session) openRun(ctx context.Context) (*musicdata.Run, error) {
	if s.run != nil {
		return s.run, nil
	}
	var opts []musicdata.Option
	if db := s.cfg.EoSDB; db.Enabled() {
		table, err := eostable.Open(ctx, db.Driver, db.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to load eos table: %w", err)
		}
		opts = append(opts, musicdata.WithEoSTable(table))
	}
	run, err := musicdata.Open(s.cfg.Core.Path, opts...)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Run opened.", "parfile", run.Parfile())
	s.run = run
	return run, nil
}

// view selects the core.dumps of the run.
func (s *session) view(ctx context.Context) (*musicdata.View, error) {
	run, err := s.openRun(ctx)
	if err != nil {
		return nil, err
	}
	items, err := musicdata.ParseItems(s.cfg.Core.Dumps)
	if err != nil {
		return nil, err
	}
	return run.Items(items...), nil
}

func (s *session) resolver() *resolve.Resolver {
	return resolve.New(s.app.registry, resolve.WithObserver(s.app.metrics))
}

func (s *session) openExporter(ctx context.Context) (*export.Exporter, error) {
	if s.exporter != nil {
		return s.exporter, nil
	}
	out := s.cfg.Output
	format, err := export.ParseFormat(out.Format)
	if err != nil {
		return nil, err
	}
	store, err := blob.Open(ctx, blob.Config{
		Driver:    blob.Driver(out.Driver),
		Root:      out.Root,
		Bucket:    out.Bucket,
		Region:    out.Region,
		Endpoint:  out.Endpoint,
		PathStyle: out.PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open output store: %w", err)
	}
	s.exporter = export.New(store, format)
	ctxlog.FromContext(ctx).Debug("Exporter ready.", "driver", store.Driver(), "format", format, "batch", s.exporter.Batch())
	return s.exporter, nil
}

// export writes t in the configured format. It is safe for concurrent use
// once openExporter has succeeded.
func (s *session) export(ctx context.Context, t export.Table) error {
	return s.exportAs(ctx, t, "")
}

// exportAs writes t in format, or in the configured format when empty.
func (s *session) exportAs(ctx context.Context, t export.Table, format export.Format) error {
	exp, err := s.openExporter(ctx)
	if err != nil {
		return err
	}
	if format == "" {
		format = exp.Format()
	}
	if _, err := exp.ExportAs(ctx, t, format); err != nil {
		return err
	}
	s.app.metrics.Exported(string(format))
	return nil
}

// openSeries returns the series database, or nil when series_db is not
// configured.
func (s *session) openSeries(ctx context.Context) (*seriesdb.Store, error) {
	if s.series != nil || !s.cfg.SeriesDB.Enabled() {
		return s.series, nil
	}
	db := s.cfg.SeriesDB
	store, err := seriesdb.Open(ctx, db.Driver, db.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open series database: %w", err)
	}
	s.series = store
	s.closers = append(s.closers, store.Close)
	return store, nil
}

// recordSeries stores ser when a series database is configured.
func (s *session) recordSeries(ctx context.Context, ser seriesdb.Series) error {
	store, err := s.openSeries(ctx)
	if err != nil || store == nil {
		return err
	}
	if exp, err := s.openExporter(ctx); err == nil {
		ser.Batch = exp.Batch()
	}
	if err := store.Put(ctx, ser); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Recorded series.", "run", ser.Run, "name", ser.Name, "points", len(ser.Values))
	return nil
}

func (s *session) openPostfile() (*fortpp.File, error) {
	if s.postfile != nil {
		return s.postfile, nil
	}
	f, err := fortpp.Open(s.cfg.FortPP.Postfile)
	if err != nil {
		return nil, err
	}
	s.postfile = f
	s.closers = append(s.closers, func() error { f.Close(); return nil })
	return f, nil
}
