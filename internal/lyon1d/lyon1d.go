// Package lyon1d reads the binary 1d stellar models (MESA profiles converted
// by the Lyon evolution code) used to initialize MUSIC runs.
//
// A file is a little-endian header followed by one record per mesh point:
// a uint8 zone flag, float64 columns, n_species abundances and four more
// float64 columns.
package lyon1d

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrColumn is returned for unknown column names.
var ErrColumn = errors.New("lyon1d: unknown column")

// Header is the fixed part of the file.
type Header struct {
	FSize    int32
	GMS      float64
	Model    int32
	Dtn      float64
	Time     float64
	NMesh    int32
	N1       int32
	NSpecies int32
}

var (
	leading = []string{
		"u", "radius", "rho", "temperature", "luminosity", "v_u", "v_r",
		"v_rho", "v_t", "v_sl", "pressure", "mass", "xmr", "d_m", "eint",
		"v_enuc", "v_eg", "entropy",
	}
	trailing = []string{"nabla_adiab", "nabla", "c_sound", "brunt_vaisala"}
)

// Columns are the scalar columns of a model in file order.
func Columns() []string {
	return append(append([]string(nil), leading...), trailing...)
}

// Model is the content of a file.
type Model struct {
	Header Header
	YZI    []uint8
	// Chem is indexed by [mesh][species].
	Chem    [][]float64
	columns map[string][]float64
}

// ReadFile reads the model at path.
func ReadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return m, nil
}

// Read decodes a model from r.
func Read(r io.Reader) (*Model, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if h.NMesh < 0 || h.NSpecies < 0 {
		return nil, fmt.Errorf("invalid sizes: %d mesh points, %d species", h.NMesh, h.NSpecies)
	}
	n := int(h.NMesh)
	m := &Model{
		Header:  h,
		YZI:     make([]uint8, n),
		Chem:    make([][]float64, n),
		columns: make(map[string][]float64, len(leading)+len(trailing)),
	}
	for _, name := range Columns() {
		m.columns[name] = make([]float64, n)
	}
	head := make([]float64, len(leading))
	tail := make([]float64, len(trailing))
	for i := range n {
		m.Chem[i] = make([]float64, h.NSpecies)
		for _, dst := range []any{&m.YZI[i], head, m.Chem[i], tail} {
			if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
				return nil, fmt.Errorf("mesh point %d: %w", i, err)
			}
		}
		for k, name := range leading {
			m.columns[name][i] = head[k]
		}
		for k, name := range trailing {
			m.columns[name][i] = tail[k]
		}
	}
	return m, nil
}

// Column returns a scalar column, or an abundance "he3" or "he4".
func (m *Model) Column(name string) ([]float64, error) {
	switch name {
	case "he3":
		return m.species(3)
	case "he4":
		return m.species(4)
	}
	col, ok := m.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumn, name)
	}
	return append([]float64(nil), col...), nil
}

func (m *Model) species(k int) ([]float64, error) {
	if k >= int(m.Header.NSpecies) {
		return nil, fmt.Errorf("%w: species %d of %d", ErrColumn, k, m.Header.NSpecies)
	}
	out := make([]float64, len(m.Chem))
	for i, row := range m.Chem {
		out[i] = row[k]
	}
	return out, nil
}
