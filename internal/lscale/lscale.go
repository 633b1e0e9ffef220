// Package lscale reads the binary temperature fluctuation files written by
// the length scale analysis of MUSIC runs.
//
// A file is a little-endian header followed, for every (r, θ) node in
// row-major order, by eight float64: r, θ, u_r, ρ, p, T, <T> and T'.
package lscale

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Header is the fixed part of the file.
type Header struct {
	NRTot int32
	NTTot int32
	NPTot int32
	Time  float64
}

// Data is the content of a file. 2d fields are indexed by [r][θ].
type Data struct {
	Header      Header
	Radius      []float64
	Theta       []float64
	VelR        [][]float64
	Rho         [][]float64
	Pressure    [][]float64
	Temperature [][]float64
	TempProf    [][]float64
	TempPert    [][]float64
}

// ReadFile reads the file at path.
func ReadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return d, nil
}

// Read decodes a file from r.
func Read(r io.Reader) (*Data, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if h.NRTot <= 0 || h.NTTot <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", h.NRTot, h.NTTot)
	}
	nr, nt := int(h.NRTot), int(h.NTTot)
	d := &Data{Header: h, Radius: make([]float64, nr), Theta: make([]float64, nt)}
	fields := []*[][]float64{&d.VelR, &d.Rho, &d.Pressure, &d.Temperature, &d.TempProf, &d.TempPert}
	for _, f := range fields {
		*f = make([][]float64, nr)
		for i := range *f {
			(*f)[i] = make([]float64, nt)
		}
	}
	var node [8]float64
	for i := range nr {
		for j := range nt {
			if err := binary.Read(r, binary.LittleEndian, &node); err != nil {
				return nil, fmt.Errorf("node (%d, %d): %w", i, j, err)
			}
			if j == 0 {
				d.Radius[i] = node[0]
			}
			if i == 0 {
				d.Theta[j] = node[1]
			}
			for k, f := range fields {
				(*f)[i][j] = node[k+2]
			}
		}
	}
	return d, nil
}

// RelativeTempPert returns T'/<T> on the cells, dropping the last node along
// both directions.
func (d *Data) RelativeTempPert() [][]float64 {
	nr, nt := len(d.Radius)-1, len(d.Theta)-1
	out := make([][]float64, max(nr, 0))
	for i := range out {
		out[i] = make([]float64, nt)
		for j := range out[i] {
			out[i][j] = d.TempPert[i][j] / d.TempProf[i][j]
		}
	}
	return out
}
