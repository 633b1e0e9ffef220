package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	t.Parallel()

	pg := &DB{driver: Postgres}
	lite := &DB{driver: SQLite}
	q := "INSERT INTO t(a,b) VALUES(?,?)"

	assert.Equal(t, "INSERT INTO t(a,b) VALUES($1,$2)", pg.Rebind(q))
	assert.Equal(t, q, lite.Rebind(q))
}

func TestOpen_SQLite(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx := context.Background()
	db, err := Open(ctx, SQLite, filepath.Join(t.TempDir(), "nested", "x.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v REAL)`)
	require.NoError(t, err)

	// Act
	boom := errors.New("boom")
	err = db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES (?, ?)`, "a", 1.0); err != nil {
			return err
		}
		return boom
	})

	// Assert
	require.ErrorIs(t, err, boom)
	rows, err := db.Query(ctx, `SELECT COUNT(*) FROM kv`)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	assert.Equal(t, 0, n)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "oracle", "x")
	assert.Error(t, err)
}
