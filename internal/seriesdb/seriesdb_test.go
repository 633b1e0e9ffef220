package seriesdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/musicscripts/internal/sqldb"
)

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx := context.Background()
	s, err := Open(ctx, sqldb.SQLite, filepath.Join(t.TempDir(), "db", "series.db"))
	require.NoError(t, err)
	defer s.Close()
	ser := Series{Run: "/runs/a", Name: "ekin", Batch: "b1", Time: []float64{0, 1, 2}, Values: []float64{5, 6, 7}}

	// Act
	require.NoError(t, s.Put(ctx, ser))
	got, err := s.Get(ctx, "/runs/a", "ekin")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ser, got)
}

func TestStore_Replace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open(ctx, sqldb.SQLite, filepath.Join(t.TempDir(), "series.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, Series{Run: "r", Name: "lmax_conv", Batch: "b1", Time: []float64{0, 1}, Values: []float64{1, 2}}))
	require.NoError(t, s.Put(ctx, Series{Run: "r", Name: "lmax_ke", Batch: "b1", Time: []float64{0}, Values: []float64{3}}))
	require.NoError(t, s.Put(ctx, Series{Run: "r", Name: "lmax_conv", Batch: "b2", Time: []float64{5}, Values: []float64{9}}))

	got, err := s.Get(ctx, "r", "lmax_conv")
	require.NoError(t, err)
	assert.Equal(t, "b2", got.Batch)
	assert.Equal(t, []float64{9}, got.Values)
	names, err := s.Names(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, []string{"lmax_conv", "lmax_ke"}, names)
}

func TestStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open(ctx, sqldb.SQLite, filepath.Join(t.TempDir(), "series.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, "r", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.Put(ctx, Series{Run: "r", Name: "x", Time: []float64{1}}))
}
