package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"weak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/musicscripts/internal/config"
	"github.com/vk/musicscripts/internal/export"
	"github.com/vk/musicscripts/internal/fortpp"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/musicdata"
	"github.com/vk/musicscripts/internal/registry"
	"github.com/vk/musicscripts/internal/seriesdb"
	mstest "github.com/vk/musicscripts/internal/testutil"
)

// runFixture writes a run with three uniform dumps and returns its
// parameter file and an output directory.
func runFixture(t *testing.T) (parfile, outDir string) {
	t.Helper()
	parfile = mstest.WriteRun(t, t.TempDir(), mstest.RunSpec{
		Indices: []int{0, 1, 2},
		Values:  map[string]float64{"density": 2, "e_int_spec": 1, "vel_1": 3, "vel_2": 4},
	})
	return parfile, t.TempDir()
}

func withRun(parfile, outDir string) func(*config.Model) {
	return func(m *config.Model) {
		m.Core.Path = parfile
		m.Output.Root = outDir
	}
}

func readTable(t *testing.T, path, name string) export.Table {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	tbl, err := export.ReadCSV(f, name)
	require.NoError(t, err)
	return tbl
}

func TestNewConfig_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{Command: "plot", WorkerCount: 1})
	assert.ErrorContains(t, err, "unknown command")

	_, err = NewConfig(Config{WorkerCount: 1})
	assert.Error(t, err)

	_, err = NewConfig(Config{Command: "field"})
	assert.ErrorContains(t, err, "workers")

	cfg, err := NewConfig(Config{Command: "field", WorkerCount: 4})
	require.NoError(t, err)
	assert.Equal(t, "field", cfg.Command)
}

type failingLoader struct{}

func (failingLoader) Load(context.Context, ...string) (*config.Model, error) {
	return nil, errors.New("boom")
}

func TestNewApp_PanicsOnLoadError(t *testing.T) {
	t.Parallel()

	assert.PanicsWithError(t, "failed to load configuration: boom", func() {
		NewApp(&bytes.Buffer{}, &Config{Command: "info", WorkerCount: 1}, failingLoader{})
	})
}

func TestNewApp_PanicsOnInvalidOverride(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		SetupAppTest(t, &Config{Command: "info"}, func(m *config.Model) { m.Output.Format = "pdf" })
	})
}

func TestRun_Field(t *testing.T) {
	t.Parallel()

	// Arrange
	parfile, outDir := runFixture(t)
	a, _ := SetupAppTest(t, &Config{Command: "field", WorkerCount: 3}, withRun(parfile, outDir))

	// Act
	err := a.Run(context.Background())
	require.NoError(t, err)

	// Assert
	for _, idx := range []string{"00000000", "00000001", "00000002"} {
		tbl := readTable(t, filepath.Join(outDir, "field_vel_ampl_"+idx+".csv"), "vel_ampl")
		require.Equal(t, []int{4, 3}, tbl.Array.Shape())
		for _, v := range tbl.Array.Values() {
			assert.InDelta(t, 5, v, 1e-12)
		}
	}
	assert.Contains(t, scrape(t, a), `musicscripts_exports_total{format="csv"} 3`)
}

// loadedTracker counts the snapshots it has seen that are still reachable
// and hold their dump in memory.
type loadedTracker struct {
	mu       sync.Mutex
	seen     []weak.Pointer[musicdata.Snapshot]
	maxAlive int
}

func (tr *loadedTracker) handler(ctx context.Context, q registry.Querier, src registry.Source) (labeled.Array, error) {
	if snap, ok := src.(*musicdata.Snapshot); ok {
		tr.mu.Lock()
		tr.seen = append(tr.seen, weak.Make(snap))
		runtime.GC()
		alive := 0
		for _, p := range tr.seen {
			if s := p.Value(); s != nil && s.Loaded() {
				alive++
			}
		}
		tr.maxAlive = max(tr.maxAlive, alive)
		tr.mu.Unlock()
	}
	return q.Resolve(ctx, registry.Field, "density", src)
}

func TestRunField_MemoryBoundedByCache(t *testing.T) {
	t.Parallel()

	// Arrange
	const cacheSize = 3
	indices := make([]int, 20)
	for i := range indices {
		indices[i] = i
	}
	parfile := mstest.WriteRun(t, t.TempDir(), mstest.RunSpec{
		Indices: indices,
		Values:  map[string]float64{"density": 2, "e_int_spec": 1, "vel_1": 3, "vel_2": 4},
	})
	outDir := t.TempDir()
	tracker := &loadedTracker{}
	module := &mstest.SimpleModule{Kind: registry.Field, Name: "tracked_density", Handler: tracker.handler}
	a, _ := SetupAppTestWithModules(t, &Config{Command: "field", WorkerCount: 1},
		[]func(*config.Model){withRun(parfile, outDir), func(m *config.Model) { m.Field.Plot = "tracked_density" }},
		[]registry.Module{module})
	s := newSession(a)
	run, err := musicdata.Open(parfile, musicdata.WithCacheSize(cacheSize))
	require.NoError(t, err)
	s.run = run

	// Act
	err = runField(context.Background(), s)

	// Assert
	require.NoError(t, err)
	assert.Len(t, tracker.seen, len(indices))
	assert.LessOrEqual(t, tracker.maxAlive, cacheSize)
	files, err := filepath.Glob(filepath.Join(outDir, "field_tracked_density_*.csv"))
	require.NoError(t, err)
	assert.Len(t, files, len(indices))
}

// scrape returns the body of the /metrics endpoint.
func scrape(t *testing.T, a *App) string {
	t.Helper()
	rec := httptest.NewRecorder()
	a.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRun_FieldPerturbation(t *testing.T) {
	t.Parallel()

	// Arrange
	parfile, outDir := runFixture(t)
	a, _ := SetupAppTest(t, &Config{Command: "field", WorkerCount: 1}, withRun(parfile, outDir), func(m *config.Model) {
		m.Core.Dumps = "1"
		m.Field.Plot = "density"
		m.Field.Perturbation = true
	})

	// Act
	err := a.Run(context.Background())
	require.NoError(t, err)

	// Assert
	tbl := readTable(t, filepath.Join(outDir, "field_rel_pert_density_00000001.csv"), "rel_pert_density")
	for _, v := range tbl.Array.Values() {
		assert.InDelta(t, 0, v, 1e-12)
	}
	_, err = os.Stat(filepath.Join(outDir, "field_rel_pert_density_00000000.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_RprofAndTseries(t *testing.T) {
	t.Parallel()

	// Arrange
	parfile, outDir := runFixture(t)
	dsn := filepath.Join(t.TempDir(), "series.db")
	overrides := []func(*config.Model){withRun(parfile, outDir), func(m *config.Model) {
		m.Rprof.Plot = "vel_ampl"
		m.Tseries.Plot = "ekin"
		m.SeriesDB.DSN = dsn
	}}
	rprof, _ := SetupAppTest(t, &Config{Command: "rprof"}, overrides...)
	tseries, _ := SetupAppTest(t, &Config{Command: "tseries"}, overrides...)

	// Act
	require.NoError(t, rprof.Run(context.Background()))
	require.NoError(t, tseries.Run(context.Background()))

	// Assert
	prof := readTable(t, filepath.Join(outDir, "rprof_vel_ampl.csv"), "vel_ampl")
	assert.Equal(t, "x1", prof.Array.Axes()[0].Name)
	for _, v := range prof.Array.Values() {
		assert.InDelta(t, 5, v, 1e-12)
	}
	series := readTable(t, filepath.Join(outDir, "tseries_ekin.csv"), "ekin")
	assert.Equal(t, []float64{0, 10, 20}, series.Array.Axes()[0].Values)

	store, err := seriesdb.Open(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Get(context.Background(), filepath.Dir(parfile), "ekin")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10, 20}, got.Time)
	assert.InDeltaSlice(t, []float64{25, 25, 25}, got.Values, 1e-12)
	assert.NotEmpty(t, got.Batch)
}

func TestRun_Info(t *testing.T) {
	t.Parallel()

	// Arrange
	parfile, outDir := runFixture(t)
	a, out := SetupAppTest(t, &Config{Command: "info"}, withRun(parfile, outDir))

	// Act
	err := a.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Run in: "+filepath.Dir(parfile))
	assert.Contains(t, out.String(), "Number of dumps: 3")
}

func TestRun_IGWNeedsSlice(t *testing.T) {
	t.Parallel()

	parfile, outDir := runFixture(t)
	a, _ := SetupAppTest(t, &Config{Command: "igw"}, withRun(parfile, outDir), func(m *config.Model) {
		m.Core.Dumps = "0,1"
	})

	err := a.Run(context.Background())

	assert.ErrorContains(t, err, "single dump slice")
	assert.Contains(t, scrape(t, a), `musicscripts_command_failures_total{command="igw"} 1`)
}

func TestRun_MissingField(t *testing.T) {
	t.Parallel()

	parfile, outDir := runFixture(t)
	a, _ := SetupAppTest(t, &Config{Command: "rprof"}, withRun(parfile, outDir), func(m *config.Model) {
		m.Rprof.Plot = "no_such_field"
	})

	err := a.Run(context.Background())

	assert.ErrorContains(t, err, "no_such_field")
}

func TestHealthMux(t *testing.T) {
	t.Parallel()

	a, _ := SetupAppTest(t, &Config{Command: "info"})
	rec := httptest.NewRecorder()

	a.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
	assert.Contains(t, scrape(t, a), "go_goroutines")
}

func TestContoursTable(t *testing.T) {
	t.Parallel()

	// Arrange
	theta := []float64{0.5, 1.5, 2.5}
	contours := []fortpp.Contour{
		{Name: "pen_depth_conv", Radius: []float64{1.6, 1.7, 1.8}, Theta: theta},
		fortpp.ConstRad(2, theta[0], theta[2], "r=2", 3),
	}

	// Act
	tbl, err := contoursTable("contour_pen_depth_conv", theta, contours)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "radius", tbl.Value)
	assert.Equal(t, []string{"pen_depth_conv", "r=2"}, tbl.Array.Axes()[0].Names)
	assert.Equal(t, []float64{1.6, 1.7, 1.8, 2, 2, 2}, tbl.Array.Values())

	_, err = contoursTable("bad", theta[:2], contours)
	assert.ErrorContains(t, err, "3 points on a 2 points grid")
}

type recordingSubmitter struct{ batches []string }

func (r *recordingSubmitter) Submit(_ context.Context, batch string) error {
	r.batches = append(r.batches, batch)
	return nil
}

func TestRun_RestartMissingBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, out := SetupAppTest(t, &Config{Command: "restart", AssumeYes: true}, func(m *config.Model) {
		m.Restart.Batch = []string{filepath.Join(dir, "batch_missing")}
	})
	sub := &recordingSubmitter{}
	a.submit = sub

	err := a.Run(context.Background())

	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, sub.batches)
	assert.NotContains(t, out.String(), "Confirm")
}
