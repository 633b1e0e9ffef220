// Package dump reads and writes MUSIC snapshot dump files.
//
// A dump is little-endian. The header holds the model number, the time step,
// the simulation time, the face coordinates of both axes and the number of
// stored variables. The body holds one row-major float64 plane of shape
// (n1, n2) per variable, in the order density, e_int_spec, vel_1, vel_2,
// scalar_1..N. Velocities are stored on the left faces of their axis and are
// moved to cell centers on read. Files may be zstd or gzip compressed.
package dump

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/qri-io/dataset/compression"
	"github.com/vk/musicscripts/internal/grid"
	"github.com/vk/musicscripts/internal/labeled"
)

// ErrFormat is returned for truncated or inconsistent dump files.
var ErrFormat = errors.New("malformed dump")

const maxFaces = 1 << 24

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// BC is the boundary condition used to recenter a face-staggered velocity.
type BC int

const (
	Reflective BC = iota
	Periodic
)

// ParseBC maps a MUSIC boundary condition name onto a BC. Anything other
// than "periodic" is treated as a closed wall.
func ParseBC(name string) BC {
	if strings.EqualFold(strings.TrimSpace(name), "periodic") {
		return Periodic
	}
	return Reflective
}

func (b BC) String() string {
	if b == Periodic {
		return "periodic"
	}
	return "reflective"
}

// Layout describes the variables a run stores and how to recenter them.
type Layout struct {
	NumScalars int
	BC         [2]BC
}

// VarNames returns the variable labels in storage order.
func (l Layout) VarNames() []string {
	names := []string{"density", "e_int_spec", "vel_1", "vel_2"}
	for i := 1; i <= l.NumScalars; i++ {
		names = append(names, fmt.Sprintf("scalar_%d", i))
	}
	return names
}

// Header is the fixed part of a dump.
type Header struct {
	Model  int32
	Dtn    float64
	Time   float64
	Faces1 []float64
	Faces2 []float64
	NVars  int
}

// Shape returns the number of cells along both axes.
func (h Header) Shape() (int, int) { return len(h.Faces1) - 1, len(h.Faces2) - 1 }

// Grid builds the grid described by the face coordinates.
func (h Header) Grid(geom grid.Geometry) (*grid.Grid, error) {
	x1, err := grid.NewAxis1D(h.Faces1)
	if err != nil {
		return nil, fmt.Errorf("x1: %w", err)
	}
	x2, err := grid.NewAxis1D(h.Faces2)
	if err != nil {
		return nil, fmt.Errorf("x2: %w", err)
	}
	return &grid.Grid{Geometry: geom, X1: x1, X2: x2}, nil
}

// Dump is a decoded snapshot with cell-centered planes.
type Dump struct {
	Header
	Vars []string
	// Planes holds one row-major (n1, n2) plane per variable.
	Planes [][]float64
}

// Array returns the snapshot as a labeled array with axes var, x1, x2.
func (d *Dump) Array() (*labeled.Dense, error) {
	n1, n2 := d.Shape()
	values := make([]float64, 0, len(d.Planes)*n1*n2)
	for _, p := range d.Planes {
		values = append(values, p...)
	}
	x1, err := grid.NewAxis1D(d.Faces1)
	if err != nil {
		return nil, err
	}
	x2, err := grid.NewAxis1D(d.Faces2)
	if err != nil {
		return nil, err
	}
	return labeled.NewDense([]labeled.Axis{
		labeled.Categorical("var", d.Vars...),
		labeled.Coord("x1", x1.CellCenters()),
		labeled.Coord("x2", x2.CellCenters()),
	}, values)
}

// Open reads the dump at path.
func Open(path string, layout Layout) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Read(f, layout)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump %s: %w", path, err)
	}
	return d, nil
}

// OpenHeader reads only the header of the dump at path.
func OpenHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()
	r, closer, err := decompress(f)
	if err != nil {
		return Header{}, err
	}
	defer closer()
	h, err := readHeader(r)
	if err != nil {
		return Header{}, fmt.Errorf("failed to read dump header %s: %w", path, err)
	}
	return h, nil
}

// Read decodes a dump and recenters its velocities.
func Read(r io.Reader, layout Layout) (*Dump, error) {
	br, closer, err := decompress(r)
	if err != nil {
		return nil, err
	}
	defer closer()

	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	vars := layout.VarNames()
	if h.NVars != len(vars) {
		return nil, fmt.Errorf("%w: %d variables stored, %d expected", ErrFormat, h.NVars, len(vars))
	}
	n1, n2 := h.Shape()
	planes := make([][]float64, h.NVars)
	for i := range planes {
		planes[i] = make([]float64, n1*n2)
		if err := binary.Read(br, binary.LittleEndian, planes[i]); err != nil {
			return nil, fmt.Errorf("%w: variable %s: %v", ErrFormat, vars[i], err)
		}
	}
	planes[2] = recenterRows(planes[2], n1, n2, layout.BC[0])
	planes[3] = recenterCols(planes[3], n1, n2, layout.BC[1])
	return &Dump{Header: h, Vars: vars, Planes: planes}, nil
}

// decompress sniffs the compression of r by its magic bytes.
func decompress(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(zstdMagic))
	format := ""
	switch {
	case bytes.HasPrefix(magic, zstdMagic):
		format = "zst"
	case bytes.HasPrefix(magic, gzipMagic):
		format = "gzip"
	default:
		return br, func() {}, nil
	}
	rc, err := compression.Decompressor(format, br)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s stream: %w", format, err)
	}
	return bufio.NewReader(rc), func() { rc.Close() }, nil
}

func readHeader(r io.Reader) (Header, error) {
	var fixed struct {
		Model int32
		Dtn   float64
		Time  float64
		N1    int32
		N2    int32
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return Header{}, fmt.Errorf("%w: header: %v", ErrFormat, err)
	}
	if fixed.N1 < 2 || fixed.N2 < 2 || fixed.N1 > maxFaces || fixed.N2 > maxFaces {
		return Header{}, fmt.Errorf("%w: face counts %d, %d", ErrFormat, fixed.N1, fixed.N2)
	}
	h := Header{
		Model:  fixed.Model,
		Dtn:    fixed.Dtn,
		Time:   fixed.Time,
		Faces1: make([]float64, fixed.N1),
		Faces2: make([]float64, fixed.N2),
	}
	if err := binary.Read(r, binary.LittleEndian, h.Faces1); err != nil {
		return Header{}, fmt.Errorf("%w: x1 faces: %v", ErrFormat, err)
	}
	if err := binary.Read(r, binary.LittleEndian, h.Faces2); err != nil {
		return Header{}, fmt.Errorf("%w: x2 faces: %v", ErrFormat, err)
	}
	var nvars int32
	if err := binary.Read(r, binary.LittleEndian, &nvars); err != nil {
		return Header{}, fmt.Errorf("%w: variable count: %v", ErrFormat, err)
	}
	if nvars < 4 {
		return Header{}, fmt.Errorf("%w: variable count %d", ErrFormat, nvars)
	}
	h.NVars = int(nvars)
	return h, nil
}

// recenterRows averages left-face values along x1.
func recenterRows(v []float64, n1, n2 int, bc BC) []float64 {
	out := make([]float64, len(v))
	for i := range n1 {
		for j := range n2 {
			right := 0.0
			switch {
			case i+1 < n1:
				right = v[(i+1)*n2+j]
			case bc == Periodic:
				right = v[j]
			}
			out[i*n2+j] = 0.5 * (v[i*n2+j] + right)
		}
	}
	return out
}

// recenterCols averages left-face values along x2.
func recenterCols(v []float64, n1, n2 int, bc BC) []float64 {
	out := make([]float64, len(v))
	for i := range n1 {
		row := v[i*n2 : (i+1)*n2]
		for j := range n2 {
			right := 0.0
			switch {
			case j+1 < n2:
				right = row[j+1]
			case bc == Periodic:
				right = row[0]
			}
			out[i*n2+j] = 0.5 * (row[j] + right)
		}
	}
	return out
}

// Write encodes d uncompressed. Planes are written as given, so velocity
// planes must hold face values.
func Write(w io.Writer, d *Dump) error {
	n1, n2 := d.Shape()
	if n1 < 1 || n2 < 1 {
		return fmt.Errorf("%w: empty grid", ErrFormat)
	}
	for i, p := range d.Planes {
		if len(p) != n1*n2 {
			return fmt.Errorf("%w: plane %d has %d values, want %d", ErrFormat, i, len(p), n1*n2)
		}
	}
	bw := bufio.NewWriter(w)
	fields := []any{
		d.Model, d.Dtn, d.Time,
		int32(len(d.Faces1)), int32(len(d.Faces2)),
		d.Faces1, d.Faces2,
		int32(len(d.Planes)),
	}
	for _, p := range d.Planes {
		fields = append(fields, p)
	}
	for _, f := range fields {
		if err := binary.Write(bw, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes d to path, compressed with format ("", "zst" or "gzip").
func WriteFile(path string, d *Dump, format string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if format == "" {
		return Write(f, d)
	}
	cw, err := compression.Compressor(format, f)
	if err != nil {
		return err
	}
	if err := Write(cw, d); err != nil {
		cw.Close()
		return err
	}
	return cw.Close()
}

// Uniform returns a dump whose variables are constant planes. Velocities are
// stored as given on every face and
// variables absent from values are zero.
func Uniform(faces1, faces2 []float64, t float64, values map[string]float64, layout Layout) *Dump {
	n := (len(faces1) - 1) * (len(faces2) - 1)
	vars := layout.VarNames()
	d := &Dump{
		Header: Header{Time: t, Faces1: faces1, Faces2: faces2, NVars: len(vars)},
		Vars:   vars,
		Planes: make([][]float64, len(vars)),
	}
	for i, name := range vars {
		v := values[name]
		d.Planes[i] = make([]float64, n)
		for k := range d.Planes[i] {
			d.Planes[i][k] = v
		}
	}
	return d
}
