// Package eostable stores tabulated equations of state in SQL and
// interpolates them.
//
// A table is one (metallicity, helium fraction, state variable) triple
// sampled on a uniform grid in log10 density and log10 specific internal
// energy. Lookups are bilinear in (log ρ, log e), linear in the helium
// fraction, and use the stored metallicity nearest to the requested one.
package eostable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/vk/musicscripts/internal/eos"
	"github.com/vk/musicscripts/internal/sqldb"
)

// ErrEmpty is returned when no table is stored.
var ErrEmpty = errors.New("no eos table stored")

var schema = []string{`
CREATE TABLE IF NOT EXISTS eos_meta (
	id INTEGER PRIMARY KEY,
	metallicity DOUBLE PRECISION NOT NULL,
	helium DOUBLE PRECISION NOT NULL,
	state_var TEXT NOT NULL,
	log_rho_min DOUBLE PRECISION NOT NULL,
	log_rho_step DOUBLE PRECISION NOT NULL,
	n_rho INTEGER NOT NULL,
	log_e_min DOUBLE PRECISION NOT NULL,
	log_e_step DOUBLE PRECISION NOT NULL,
	n_e INTEGER NOT NULL,
	UNIQUE (metallicity, helium, state_var)
)`, `
CREATE TABLE IF NOT EXISTS eos_points (
	meta_id INTEGER NOT NULL REFERENCES eos_meta(id),
	i_rho INTEGER NOT NULL,
	i_e INTEGER NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (meta_id, i_rho, i_e)
)`}

// Grid is one sampled table. Values are row-major over (i_rho, i_e).
type Grid struct {
	Metallicity float64
	Helium      float64
	Var         eos.StateVar
	LogRhoMin   float64
	LogRhoStep  float64
	NRho        int
	LogEMin     float64
	LogEStep    float64
	NE          int
	Values      []float64
}

func (g *Grid) validate() error {
	if g.NRho < 2 || g.NE < 2 {
		return fmt.Errorf("grid needs at least 2x2 points, got %dx%d", g.NRho, g.NE)
	}
	if g.LogRhoStep <= 0 || g.LogEStep <= 0 {
		return fmt.Errorf("grid steps must be positive")
	}
	if len(g.Values) != g.NRho*g.NE {
		return fmt.Errorf("grid has %d values, want %d", len(g.Values), g.NRho*g.NE)
	}
	return nil
}

// at interpolates bilinearly, NaN outside the sampled range.
func (g *Grid) at(logRho, logE float64) float64 {
	i, ti, ok := locate(logRho, g.LogRhoMin, g.LogRhoStep, g.NRho)
	if !ok {
		return math.NaN()
	}
	j, tj, ok := locate(logE, g.LogEMin, g.LogEStep, g.NE)
	if !ok {
		return math.NaN()
	}
	v00 := g.Values[i*g.NE+j]
	v01 := g.Values[i*g.NE+j+1]
	v10 := g.Values[(i+1)*g.NE+j]
	v11 := g.Values[(i+1)*g.NE+j+1]
	return (1-ti)*((1-tj)*v00+tj*v01) + ti*((1-tj)*v10+tj*v11)
}

func locate(x, lo, step float64, n int) (int, float64, bool) {
	const eps = 1e-9
	f := (x - lo) / step
	if math.IsNaN(f) || f < -eps || f > float64(n-1)+eps {
		return 0, 0, false
	}
	f = math.Min(math.Max(f, 0), float64(n-1))
	i := min(int(f), n-2)
	return i, f - float64(i), true
}

// Migrate creates the table schema.
func Migrate(ctx context.Context, db *sqldb.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create eos tables: %w", err)
		}
	}
	return nil
}

// Put stores g, replacing any table with the same key.
func Put(ctx context.Context, db *sqldb.DB, g Grid) error {
	if err := g.validate(); err != nil {
		return err
	}
	return db.InTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, db.Rebind(`SELECT id FROM eos_meta WHERE metallicity = ? AND helium = ? AND state_var = ?`),
			g.Metallicity, g.Helium, g.Var.String()).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM eos_meta`).Scan(&id); err != nil {
				return fmt.Errorf("allocate eos table id: %w", err)
			}
		case err != nil:
			return fmt.Errorf("lookup eos table: %w", err)
		default:
			if _, err := tx.ExecContext(ctx, db.Rebind(`DELETE FROM eos_points WHERE meta_id = ?`), id); err != nil {
				return fmt.Errorf("clear eos points: %w", err)
			}
			if _, err := tx.ExecContext(ctx, db.Rebind(`DELETE FROM eos_meta WHERE id = ?`), id); err != nil {
				return fmt.Errorf("clear eos table: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, db.Rebind(`INSERT INTO eos_meta
			(id, metallicity, helium, state_var, log_rho_min, log_rho_step, n_rho, log_e_min, log_e_step, n_e)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			id, g.Metallicity, g.Helium, g.Var.String(), g.LogRhoMin, g.LogRhoStep, g.NRho, g.LogEMin, g.LogEStep, g.NE); err != nil {
			return fmt.Errorf("insert eos table: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, db.Rebind(`INSERT INTO eos_points (meta_id, i_rho, i_e, value) VALUES (?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := range g.NRho {
			for j := range g.NE {
				if _, err := stmt.ExecContext(ctx, id, i, j, g.Values[i*g.NE+j]); err != nil {
					return fmt.Errorf("insert eos point (%d, %d): %w", i, j, err)
				}
			}
		}
		return nil
	})
}

type heliumSet struct {
	helium []float64
	grids  []*Grid
}

type metalSet struct {
	z    float64
	vars map[eos.StateVar]*heliumSet
}

// Table is an in-memory set of grids satisfying eos.Table.
type Table struct {
	sets []metalSet
}

var _ eos.Table = (*Table)(nil)

// NewTable indexes grids for lookup.
func NewTable(grids ...Grid) (*Table, error) {
	if len(grids) == 0 {
		return nil, ErrEmpty
	}
	byZ := make(map[float64]map[eos.StateVar]*heliumSet)
	for i := range grids {
		g := grids[i]
		if err := g.validate(); err != nil {
			return nil, err
		}
		vars, ok := byZ[g.Metallicity]
		if !ok {
			vars = make(map[eos.StateVar]*heliumSet)
			byZ[g.Metallicity] = vars
		}
		hs, ok := vars[g.Var]
		if !ok {
			hs = &heliumSet{}
			vars[g.Var] = hs
		}
		hs.helium = append(hs.helium, g.Helium)
		hs.grids = append(hs.grids, &g)
	}
	t := &Table{}
	for z, vars := range byZ {
		for _, hs := range vars {
			sort.Sort(hs)
		}
		t.sets = append(t.sets, metalSet{z: z, vars: vars})
	}
	sort.Slice(t.sets, func(i, j int) bool { return t.sets[i].z < t.sets[j].z })
	return t, nil
}

func (h *heliumSet) Len() int           { return len(h.helium) }
func (h *heliumSet) Less(i, j int) bool { return h.helium[i] < h.helium[j] }
func (h *heliumSet) Swap(i, j int) {
	h.helium[i], h.helium[j] = h.helium[j], h.helium[i]
	h.grids[i], h.grids[j] = h.grids[j], h.grids[i]
}

// Metallicities returns the stored metallicities in increasing order.
func (t *Table) Metallicities() []float64 {
	out := make([]float64, len(t.sets))
	for i, s := range t.sets {
		out[i] = s.z
	}
	return out
}

// Compute implements eos.Table. The helium fraction is clamped to the
// stored range.
func (t *Table) Compute(v eos.StateVar, st eos.State) float64 {
	set := t.nearest(st.Metallicity)
	hs, ok := set.vars[v]
	if !ok || st.Density <= 0 || st.Energy <= 0 {
		return math.NaN()
	}
	lr, le := math.Log10(st.Density), math.Log10(st.Energy)
	if len(hs.grids) == 1 {
		return hs.grids[0].at(lr, le)
	}
	y := math.Min(math.Max(st.Helium, hs.helium[0]), hs.helium[len(hs.helium)-1])
	k := sort.SearchFloat64s(hs.helium, y)
	if k == 0 {
		return hs.grids[0].at(lr, le)
	}
	lo, hi := hs.grids[k-1], hs.grids[k]
	w := (y - hs.helium[k-1]) / (hs.helium[k] - hs.helium[k-1])
	return (1-w)*lo.at(lr, le) + w*hi.at(lr, le)
}

func (t *Table) nearest(z float64) metalSet {
	best := t.sets[0]
	for _, s := range t.sets[1:] {
		if math.Abs(s.z-z) < math.Abs(best.z-z) {
			best = s
		}
	}
	return best
}

// Load reads every stored grid.
func Load(ctx context.Context, db *sqldb.DB) (*Table, error) {
	rows, err := db.Query(ctx, `SELECT id, metallicity, helium, state_var, log_rho_min, log_rho_step, n_rho, log_e_min, log_e_step, n_e FROM eos_meta ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select eos tables: %w", err)
	}
	var ids []int64
	var grids []Grid
	for rows.Next() {
		var id int64
		var name string
		var g Grid
		if err := rows.Scan(&id, &g.Metallicity, &g.Helium, &name, &g.LogRhoMin, &g.LogRhoStep, &g.NRho, &g.LogEMin, &g.LogEStep, &g.NE); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan eos table: %w", err)
		}
		if g.Var, err = eos.ParseStateVar(name); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
		grids = append(grids, g)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	for i := range grids {
		if err := loadPoints(ctx, db, ids[i], &grids[i]); err != nil {
			return nil, err
		}
	}
	return NewTable(grids...)
}

func loadPoints(ctx context.Context, db *sqldb.DB, id int64, g *Grid) error {
	rows, err := db.Query(ctx, `SELECT i_rho, i_e, value FROM eos_points WHERE meta_id = ?`, id)
	if err != nil {
		return fmt.Errorf("select eos points: %w", err)
	}
	defer rows.Close()
	g.Values = make([]float64, g.NRho*g.NE)
	for k := range g.Values {
		g.Values[k] = math.NaN()
	}
	for rows.Next() {
		var i, j int
		var v float64
		if err := rows.Scan(&i, &j, &v); err != nil {
			return fmt.Errorf("scan eos point: %w", err)
		}
		if i < 0 || i >= g.NRho || j < 0 || j >= g.NE {
			return fmt.Errorf("eos point (%d, %d) outside %dx%d table", i, j, g.NRho, g.NE)
		}
		g.Values[i*g.NE+j] = v
	}
	return rows.Err()
}

// Open connects to a table database, loads it and closes the connection.
func Open(ctx context.Context, driver, dsn string) (*Table, error) {
	db, err := sqldb.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	return Load(ctx, db)
}
