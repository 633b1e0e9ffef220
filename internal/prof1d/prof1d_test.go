package prof1d

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `rcore  rad_surf  rcore/rtot
0.5e10 2.0e10 0.25
r_grid  Enuc  rho
1.0  2.0  3.0
2.0  4.0  5.0
`

func TestProf1d_Directory(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profile1d_scalars.dat"), []byte(sample), 0o644))
	p := New(dir)

	// Act
	path, err := p.Path()
	require.NoError(t, err)
	params, err := p.Params()
	require.NoError(t, err)
	enuc, err := p.Column("Enuc")
	require.NoError(t, err)
	cols, err := p.Columns()
	require.NoError(t, err)

	// Assert
	assert.Equal(t, filepath.Join(dir, "profile1d_scalars.dat"), path)
	assert.Equal(t, map[string]float64{"rcore": 0.5e10, "rad_surf": 2e10, "rcore/rtot": 0.25}, params)
	assert.Equal(t, []float64{2, 4}, enuc)
	assert.Equal(t, []string{"r_grid", "Enuc", "rho"}, cols)
	rcore, err := p.Param("rcore")
	require.NoError(t, err)
	assert.Equal(t, 0.5e10, rcore)
}

func TestProf1d_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.dat")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	got, err := New(path).Path()

	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestProf1d_Errors(t *testing.T) {
	t.Parallel()

	t.Run("ambiguous", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		for _, name := range Candidates {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sample), 0o644))
		}
		_, err := New(dir).Params()
		assert.ErrorIs(t, err, ErrAmbiguous)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := New(t.TempDir()).Path()
		assert.ErrorIs(t, err, ErrNoProfile)
	})

	t.Run("ragged table", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "profile1d.dat")
		require.NoError(t, os.WriteFile(path, []byte(sample+"1.0 2.0\n"), 0o644))
		_, err := New(path).Column("rho")
		assert.Error(t, err)
	})

	t.Run("unknown names", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "profile1d.dat")
		require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
		p := New(path)
		_, err := p.Param("nope")
		assert.Error(t, err)
		_, err = p.Column("nope")
		assert.Error(t, err)
	})
}
