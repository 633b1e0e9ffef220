package namelist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const sample = `
! run parameters
&io
  dataoutput = 'output/run_'  ! prefix
  datainput = "init.music"
/
&physics
  zz = 0.02, yy = 0.28d0
/
&scalars nscalars = 2 /
&boundaryconditions
  bc1 = 'reflective', 'reflective'
  bc3 = 2*'periodic'
/
&geometry
  cartesian = .false.
/
`

func TestParse_Sample(t *testing.T) {
	t.Parallel()

	// Act
	nml, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, []string{"boundaryconditions", "geometry", "io", "physics", "scalars"}, nml.Groups())

	out, err := nml.String("io", "dataoutput")
	require.NoError(t, err)
	assert.Equal(t, "output/run_", out)

	zz, err := nml.Float("physics", "zz")
	require.NoError(t, err)
	assert.InDelta(t, 0.02, zz, 1e-12)

	yy, err := nml.Float("PHYSICS", "YY")
	require.NoError(t, err)
	assert.InDelta(t, 0.28, yy, 1e-12)

	n, err := nml.Int("scalars", "nscalars")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cart, err := nml.Bool("geometry", "cartesian")
	require.NoError(t, err)
	assert.False(t, cart)

	bc3, ok := nml.Get("boundaryconditions", "bc3")
	require.True(t, ok)
	assert.True(t, bc3.Type().IsListType())
	assert.Equal(t, 2, bc3.LengthInt())

	bc1, err := nml.String("boundaryconditions", "bc1")
	require.NoError(t, err)
	assert.Equal(t, "reflective", bc1)
}

func TestParse_IndexedAssignment(t *testing.T) {
	t.Parallel()

	nml, err := Parse(strings.NewReader("&g a(2) = 5, a(1) = 4 /"))
	require.NoError(t, err)

	v, ok := nml.Get("g", "a")
	require.True(t, ok)
	assert.True(t, v.RawEquals(cty.ListVal([]cty.Value{cty.NumberIntVal(4), cty.NumberIntVal(5)})))
}

func TestParse_QuotesAndLogicals(t *testing.T) {
	t.Parallel()

	nml, err := Parse(strings.NewReader("&g s = 'it''s', t1 = .true., t2 = T, f1 = .f. /"))
	require.NoError(t, err)

	s, err := nml.String("g", "s")
	require.NoError(t, err)
	assert.Equal(t, "it's", s)
	for key, want := range map[string]bool{"t1": true, "t2": true, "f1": false} {
		got, err := nml.Bool("g", key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"unterminated group":  "&g a = 1",
		"unterminated string": "&g a = 'oops /",
		"missing equals":      "&g a 1 /",
	}
	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(src))
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestNamelist_Missing(t *testing.T) {
	t.Parallel()

	nml, err := Parse(strings.NewReader("&g a = 1 /"))
	require.NoError(t, err)

	_, err = nml.Float("g", "b")
	assert.ErrorIs(t, err, ErrMissing)
	_, err = nml.Float("h", "a")
	assert.ErrorIs(t, err, ErrMissing)
	assert.False(t, nml.Has("g", "b"))
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "params.nml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	nml, err := ReadFile(path)
	require.NoError(t, err)
	assert.True(t, nml.Has("io", "datainput"))

	_, err = ReadFile(filepath.Join(t.TempDir(), "absent.nml"))
	assert.Error(t, err)
}
