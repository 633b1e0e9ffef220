package export

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/musicscripts/internal/blob"
	"github.com/vk/musicscripts/internal/labeled"
)

func sampleTable(t *testing.T) Table {
	t.Helper()
	d, err := labeled.NewDense([]labeled.Axis{
		labeled.Categorical("var", "rho", "temp"),
		labeled.Coord("x1", []float64{0.5, 1.5, 2.5}),
	}, []float64{1, 2, 3, 4.25, 5, -6e-7})
	require.NoError(t, err)
	return Table{Name: "rprof", Array: d, Attrs: map[string]string{"run": "demo"}}
}

func TestCSV_RoundTrip(t *testing.T) {
	t.Parallel()

	// Arrange
	var buf bytes.Buffer
	in := sampleTable(t)

	// Act
	require.NoError(t, WriteCSV(&buf, in))
	out, err := ReadCSV(bytes.NewReader(buf.Bytes()), "rprof")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "var,x1,value\nrho,0.5,1\n", buf.String()[:len("var,x1,value\nrho,0.5,1\n")])
	assert.Equal(t, DefaultValue, out.Value)
	assert.Equal(t, in.Array.Axes(), out.Array.Axes())
	assert.Equal(t, in.Array.Values(), out.Array.Values())
}

func TestWriteCSV_Validation(t *testing.T) {
	t.Parallel()

	tbl := sampleTable(t)
	tbl.Value = "x1"
	assert.Error(t, WriteCSV(io.Discard, tbl))
	assert.Error(t, WriteCSV(io.Discard, Table{Name: "empty"}))
}

func TestSeriesAndGrid(t *testing.T) {
	t.Parallel()

	s, err := Series("lmax_conv", "time", []float64{1, 2}, []float64{0.1, 0.2})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, s.Array.Shape())

	g, err := Grid("field_vel", "rad", []float64{1, 2}, "theta", []float64{0, 1, 2}, [][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 6.0, g.Array.At(1, 2))

	_, err = Grid("bad", "rad", []float64{1}, "theta", []float64{0, 1}, [][]float64{{1}})
	assert.Error(t, err)
}

func TestNetCDF_RoundTrip(t *testing.T) {
	t.Parallel()

	// Arrange
	path := filepath.Join(t.TempDir(), "rprof.nc")

	// Act
	require.NoError(t, WriteNetCDF(path, sampleTable(t)))

	// Assert
	nc, err := netcdf.Open(path)
	require.NoError(t, err)
	defer nc.Close()
	v, err := nc.GetVariable("value")
	require.NoError(t, err)
	assert.Equal(t, []string{"var", "x1"}, v.Dimensions)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4.25, 5, -6e-7}}, v.Values)
	x1, err := nc.GetVariable("x1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.5, 2.5}, x1.Values)
	labels, ok := func() (any, bool) {
		vr, err := nc.GetVariable("var")
		require.NoError(t, err)
		return vr.Attributes.Get("labels")
	}()
	require.True(t, ok)
	assert.Equal(t, "rho,temp", labels)
}

func TestExporter(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx := context.Background()
	store := blob.NewMemory()
	e := New(store, CSV)

	// Act
	info, err := e.Export(ctx, sampleTable(t))
	require.NoError(t, err)
	ncInfo, err := e.ExportAs(ctx, sampleTable(t), NetCDF)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "rprof.csv", info.Key)
	assert.Equal(t, "rprof.nc", ncInfo.Key)
	assert.NotEmpty(t, e.Batch())
	head, err := store.Head(ctx, "rprof.csv")
	require.NoError(t, err)
	assert.Equal(t, e.Batch(), head.Metadata[BatchKey])
	assert.Equal(t, "demo", head.Metadata["run"])
	assert.NotEqual(t, e.Batch(), New(store, CSV).Batch())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat("nc")
	require.NoError(t, err)
	assert.Equal(t, NetCDF, f)
	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
