// Package sqldb opens the SQL databases backing EoS tables and series.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Driver names accepted by Open.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// DB is a database handle aware of its placeholder dialect.
type DB struct {
	*sql.DB
	driver string
}

// Open connects to dsn with driver. For sqlite the dsn is a file path whose
// parent directories are created.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var name string
	switch driver {
	case SQLite, "":
		driver, name = SQLite, "sqlite"
		if dsn == "" {
			return nil, fmt.Errorf("open sqlite: empty path")
		}
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
	case Postgres, "pgx":
		driver, name = Postgres, "pgx"
	default:
		return nil, fmt.Errorf("unknown sql driver %q", driver)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if driver == SQLite {
		// One writer at a time.
		db.SetMaxOpenConns(1)
	}
	return &DB{DB: db, driver: driver}, nil
}

// Driver returns the normalized driver name.
func (db *DB) Driver() string { return db.driver }

// Rebind rewrites ? placeholders into the $n form postgres expects.
func (db *DB) Rebind(query string) string {
	if db.driver != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Exec runs a statement written with ? placeholders.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Rebind(query), args...)
}

// Query runs a query written with ? placeholders.
func (db *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Rebind(query), args...)
}

// InTx runs fn in a transaction, rolling back when it fails.
func (db *DB) InTx(ctx context.Context, fn func(tx *sql.Tx) error) (retErr error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
