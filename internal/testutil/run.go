package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/musicscripts/internal/dump"
)

// RunSpec describes a synthetic run written by WriteRun.
type RunSpec struct {
	// Indices of the dumps to write.
	Indices []int
	// Values of the constant variables of every dump.
	Values map[string]float64
	// ValuesAt overrides Values per dump index when set.
	ValuesAt   func(idx int) map[string]float64
	NumScalars int
	Cartesian  bool
	N1, N2     int
	// Compression of the dumps: "", "gzip" or "zst".
	Compression string
}

// WriteRun writes params.nml and the dumps of spec into dir and returns the
// parameter file path. Dump i has time 10*i and periodic boundaries.
func WriteRun(t *testing.T, dir string, spec RunSpec) string {
	t.Helper()
	n1, n2 := spec.N1, spec.N2
	if n1 == 0 {
		n1 = 4
	}
	if n2 == 0 {
		n2 = 3
	}
	params := fmt.Sprintf(`&io
  dataoutput = 'out/run_'
  input = 'init.music'
/
&physics
  zz = 0.02
  yy = 0.28
/
&scalars
  nscalars = %d
/
&boundaryconditions
  bc1 = 'periodic', 'periodic'
  bc3 = 'periodic', 'periodic'
/
&geometry
  cartesian = %s
/
`, spec.NumScalars, map[bool]string{true: ".true.", false: ".false."}[spec.Cartesian])
	parfile := filepath.Join(dir, "params.nml")
	require.NoError(t, os.WriteFile(parfile, []byte(params), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0o755))

	layout := dump.Layout{NumScalars: spec.NumScalars, BC: [2]dump.BC{dump.Periodic, dump.Periodic}}
	faces1 := make([]float64, n1+1)
	for i := range faces1 {
		faces1[i] = 1 + float64(i)/float64(n1)
	}
	faces2 := make([]float64, n2+1)
	for j := range faces2 {
		faces2[j] = math.Pi * float64(j) / float64(n2)
	}
	for _, idx := range spec.Indices {
		values := spec.Values
		if spec.ValuesAt != nil {
			values = spec.ValuesAt(idx)
		}
		d := dump.Uniform(faces1, faces2, 10*float64(idx), values, layout)
		d.Model = int32(idx)
		path := filepath.Join(dir, "out", fmt.Sprintf("run_%08d.music", idx))
		require.NoError(t, dump.WriteFile(path, d, spec.Compression))
	}
	return parfile
}
