package musicdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vk/musicscripts/internal/ctxlog"
	"github.com/vk/musicscripts/internal/dump"
	"github.com/vk/musicscripts/internal/eos"
	"github.com/vk/musicscripts/internal/fsutil"
	"github.com/vk/musicscripts/internal/grid"
	"github.com/vk/musicscripts/internal/labeled"
	"github.com/vk/musicscripts/internal/lazy"
	"github.com/vk/musicscripts/internal/namelist"
	"github.com/vk/musicscripts/internal/prof1d"
	"github.com/vk/musicscripts/internal/registry"
)

var (
	// ErrNotFound is returned for dump indices out of range or without a file.
	ErrNotFound = errors.New("snapshot not found")
	// ErrMalformedRun is returned for parameter files missing required keys
	// and for runs without any dump.
	ErrMalformedRun = errors.New("malformed run")
	// ErrNoEoSTable is returned when the EoS is requested without a table.
	ErrNoEoSTable = errors.New("no eos table configured")
)

// DefaultParfile is the parameter file looked up when Open is given a
// directory.
const DefaultParfile = "params.nml"

// DefaultCacheSize is the number of snapshots kept in memory.
const DefaultCacheSize = 16

// Option configures a Run.
type Option func(*Run)

// WithEoSTable sets the table the run EoS looks state variables up in.
func WithEoSTable(t eos.Table) Option {
	return func(r *Run) { r.table = t }
}

// WithCacheSize bounds the number of cached snapshots.
func WithCacheSize(n int) Option {
	return func(r *Run) {
		if n > 0 {
			r.cacheSize = n
		}
	}
}

// Run is the data accessor of a MUSIC run.
type Run struct {
	parfile   string
	table     eos.Table
	cacheSize int
	prof      *prof1d.Prof1d

	// Process-lifetime fields.
	params lazy.Value[Params]
	eos    lazy.Value[*eos.EoS]
	grid   lazy.Value[*grid.Grid]
	length lazy.Value[int]
	times  lazy.Value[map[int]float64]

	mu    sync.Mutex
	snaps *lru.Cache[int, *Snapshot]
}

var _ registry.Source = (*Run)(nil)

// Open returns the run described by path, a parameter file or a directory
// holding params.nml. Files are read lazily.
func Open(path string, opts ...Option) (*Run, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRun, err)
	}
	if info.IsDir() {
		abs = filepath.Join(abs, DefaultParfile)
	}
	r := &Run{parfile: abs, cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(r)
	}
	if r.snaps, err = lru.New[int, *Snapshot](r.cacheSize); err != nil {
		return nil, err
	}
	r.prof = prof1d.New(r.Dir())
	return r, nil
}

// Parfile returns the absolute path of the parameter file.
func (r *Run) Parfile() string { return r.parfile }

// Dir returns the directory of the run.
func (r *Run) Dir() string { return filepath.Dir(r.parfile) }

// Prof1d returns the profile1d file of the run directory.
func (r *Run) Prof1d() *prof1d.Prof1d { return r.prof }

// Params returns the parsed run parameters.
func (r *Run) Params(ctx context.Context) (Params, error) {
	return r.params.Get(func() (Params, error) {
		ctxlog.FromContext(ctx).Debug("Reading run parameters.", "path", r.parfile)
		nml, err := namelist.ReadFile(r.parfile)
		if err != nil {
			return Params{}, fmt.Errorf("%w: %v", ErrMalformedRun, err)
		}
		return parseParams(nml)
	})
}

// EoS returns the equation of state of the run: helium in scalar_1 when the
// run has scalars, a fixed helium fraction otherwise.
func (r *Run) EoS(ctx context.Context) (eos.Deriver, error) {
	e, err := r.eos.Get(func() (*eos.EoS, error) {
		if r.table == nil {
			return nil, ErrNoEoSTable
		}
		p, err := r.Params(ctx)
		if err != nil {
			return nil, err
		}
		if p.NumScalars > 0 {
			return eos.CstMetal(r.table, p.Metallicity), nil
		}
		return eos.CstCompo(r.table, p.Metallicity, p.Helium), nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Geometry returns the geometry of the run.
func (r *Run) Geometry(ctx context.Context) (grid.Geometry, error) {
	p, err := r.Params(ctx)
	if err != nil {
		return 0, err
	}
	if p.Cartesian {
		return grid.Cartesian, nil
	}
	return grid.Spherical, nil
}

// Prefix returns the path prefix of the dumps.
func (r *Run) Prefix(ctx context.Context) (string, error) {
	p, err := r.Params(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.Dir(), p.DataOutput), nil
}

// dumpFiles lists the existing dumps.
func (r *Run) dumpFiles(ctx context.Context) (map[int]string, error) {
	prefix, err := r.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	files, err := fsutil.DumpFiles(prefix)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no dump matches %s*%s", ErrMalformedRun, prefix, fsutil.DumpExt)
	}
	return files, nil
}

// Len is the highest dump index plus one.
func (r *Run) Len(ctx context.Context) (int, error) {
	return r.length.Get(func() (int, error) {
		files, err := r.dumpFiles(ctx)
		if err != nil {
			return 0, err
		}
		highest := -1
		for idx := range files {
			highest = max(highest, idx)
		}
		return highest + 1, nil
	})
}

// Grid returns the grid read from the header of the first dump.
func (r *Run) Grid(ctx context.Context) (*grid.Grid, error) {
	return r.grid.Get(func() (*grid.Grid, error) {
		files, err := r.dumpFiles(ctx)
		if err != nil {
			return nil, err
		}
		idxs := sortedKeys(files)
		h, err := dump.OpenHeader(files[idxs[0]])
		if err != nil {
			return nil, err
		}
		geom, err := r.Geometry(ctx)
		if err != nil {
			return nil, err
		}
		return h.Grid(geom)
	})
}

// Times maps every existing dump index to its simulation time.
func (r *Run) Times(ctx context.Context) (map[int]float64, error) {
	return r.times.Get(func() (map[int]float64, error) {
		files, err := r.dumpFiles(ctx)
		if err != nil {
			return nil, err
		}
		ctxlog.FromContext(ctx).Debug("Reading dump headers.", "count", len(files))
		out := make(map[int]float64, len(files))
		for idx, path := range files {
			h, err := dump.OpenHeader(path)
			if err != nil {
				return nil, err
			}
			out[idx] = h.Time
		}
		return out, nil
	})
}

// At returns dump i. Negative indices count from the end.
func (r *Run) At(ctx context.Context, i int) (*Snapshot, error) {
	n, err := r.Len(ctx)
	if err != nil {
		return nil, err
	}
	idx := i
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return nil, fmt.Errorf("%w: index %d out of bounds for %d dumps", ErrNotFound, i, n)
	}
	prefix, err := r.Prefix(ctx)
	if err != nil {
		return nil, err
	}
	path := fsutil.DumpPath(prefix, idx)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.snaps.Get(idx); ok {
		return s, nil
	}
	s := &Snapshot{run: r, idx: idx, path: path}
	r.snaps.Add(idx, s)
	return s, nil
}

// Slice returns the lazy view of the dumps selected by s.
func (r *Run) Slice(s Slice) *View {
	return &View{run: r, items: []Item{s}}
}

// Items returns the lazy view concatenating the dumps selected by every
// item, in order and without removing duplicates.
func (r *Run) Items(items ...Item) *View {
	return &View{run: r, items: append([]Item(nil), items...)}
}

// Raw returns every dump of the run along a time axis.
func (r *Run) Raw(ctx context.Context) (labeled.Array, error) {
	return r.Slice(All).Raw(ctx)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
