// Package seriesdb keeps the time series computed by the tseries and lmax
// commands in SQL so that runs can be compared without re-reading dumps.
package seriesdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vk/musicscripts/internal/sqldb"
)

// ErrNotFound is returned when a series is not stored.
var ErrNotFound = errors.New("series not found")

var schema = []string{`
CREATE TABLE IF NOT EXISTS series (
	id INTEGER PRIMARY KEY,
	run TEXT NOT NULL,
	name TEXT NOT NULL,
	batch TEXT NOT NULL,
	UNIQUE (run, name)
)`, `
CREATE TABLE IF NOT EXISTS series_points (
	series_id INTEGER NOT NULL REFERENCES series(id),
	idx INTEGER NOT NULL,
	time DOUBLE PRECISION NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (series_id, idx)
)`}

// Series is a named quantity against time for one run.
type Series struct {
	Run    string
	Name   string
	Batch  string
	Time   []float64
	Values []float64
}

// Store reads and writes series.
type Store struct {
	db *sqldb.DB
}

// Open connects to the database and creates the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sqldb.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. Migrate must have been called.
func New(db *sqldb.DB) *Store { return &Store{db: db} }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create series tables: %w", err)
		}
	}
	return nil
}

// Put stores ser, replacing a series with the same run and name.
func (s *Store) Put(ctx context.Context, ser Series) error {
	if len(ser.Time) != len(ser.Values) {
		return fmt.Errorf("series %s: %d times for %d values", ser.Name, len(ser.Time), len(ser.Values))
	}
	db := s.db
	return db.InTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, db.Rebind(`SELECT id FROM series WHERE run = ? AND name = ?`), ser.Run, ser.Name).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM series`).Scan(&id); err != nil {
				return fmt.Errorf("allocate series id: %w", err)
			}
			if _, err := tx.ExecContext(ctx, db.Rebind(`INSERT INTO series (id, run, name, batch) VALUES (?, ?, ?, ?)`),
				id, ser.Run, ser.Name, ser.Batch); err != nil {
				return fmt.Errorf("insert series: %w", err)
			}
		case err != nil:
			return fmt.Errorf("lookup series: %w", err)
		default:
			if _, err := tx.ExecContext(ctx, db.Rebind(`DELETE FROM series_points WHERE series_id = ?`), id); err != nil {
				return fmt.Errorf("clear series points: %w", err)
			}
			if _, err := tx.ExecContext(ctx, db.Rebind(`UPDATE series SET batch = ? WHERE id = ?`), ser.Batch, id); err != nil {
				return fmt.Errorf("update series: %w", err)
			}
		}
		stmt, err := tx.PrepareContext(ctx, db.Rebind(`INSERT INTO series_points (series_id, idx, time, value) VALUES (?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := range ser.Time {
			if _, err := stmt.ExecContext(ctx, id, i, ser.Time[i], ser.Values[i]); err != nil {
				return fmt.Errorf("insert series point %d: %w", i, err)
			}
		}
		return nil
	})
}

// Get reads the series name of run.
func (s *Store) Get(ctx context.Context, run, name string) (Series, error) {
	ser := Series{Run: run, Name: name}
	var id int64
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT id, batch FROM series WHERE run = ? AND name = ?`), run, name).Scan(&id, &ser.Batch)
	if errors.Is(err, sql.ErrNoRows) {
		return Series{}, fmt.Errorf("%w: %s/%s", ErrNotFound, run, name)
	}
	if err != nil {
		return Series{}, err
	}
	rows, err := s.db.Query(ctx, `SELECT time, value FROM series_points WHERE series_id = ? ORDER BY idx`, id)
	if err != nil {
		return Series{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var t, v float64
		if err := rows.Scan(&t, &v); err != nil {
			return Series{}, err
		}
		ser.Time = append(ser.Time, t)
		ser.Values = append(ser.Values, v)
	}
	return ser, rows.Err()
}

// Names lists the series stored for run.
func (s *Store) Names(ctx context.Context, run string) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT name FROM series WHERE run = ? ORDER BY name`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
