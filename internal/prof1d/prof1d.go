// Package prof1d reads the profile1d.dat files describing the initial
// stellar model of a run.
//
// The first line of the file names scalar parameters and the second line
// holds their values. The rest is a whitespace separated table with a header
// row.
package prof1d

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vk/musicscripts/internal/lazy"
)

var (
	// ErrAmbiguous is returned when a directory holds several profile files.
	ErrAmbiguous = errors.New("several profile1d files found")
	// ErrNoProfile is returned when no profile file is found.
	ErrNoProfile = errors.New("no profile1d file found")
)

// Candidates are the file names looked up in a directory.
var Candidates = []string{"profile1d.dat", "profile1d_scalars.dat"}

type content struct {
	params  map[string]float64
	columns []string
	data    map[string][]float64
}

// Prof1d is a lazily parsed profile file.
type Prof1d struct {
	hint string
	path lazy.Value[string]
	body lazy.Value[*content]
}

// New returns a parser for hint, which is either the profile file itself or
// the directory containing it. Nothing is read until first use.
func New(hint string) *Prof1d {
	return &Prof1d{hint: hint}
}

// Path resolves the profile file.
func (p *Prof1d) Path() (string, error) {
	return p.path.Get(func() (string, error) {
		info, err := os.Stat(p.hint)
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return p.hint, nil
		}
		found := ""
		for _, name := range Candidates {
			candidate := filepath.Join(p.hint, name)
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if found != "" {
				return "", fmt.Errorf("%w: %s and %s", ErrAmbiguous, found, candidate)
			}
			found = candidate
		}
		if found == "" {
			return "", fmt.Errorf("%w in %s", ErrNoProfile, p.hint)
		}
		return found, nil
	})
}

// Params returns the scalar parameters of the header.
func (p *Prof1d) Params() (map[string]float64, error) {
	c, err := p.content()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out, nil
}

// Param returns one scalar parameter.
func (p *Prof1d) Param(name string) (float64, error) {
	c, err := p.content()
	if err != nil {
		return 0, err
	}
	v, ok := c.params[name]
	if !ok {
		return 0, fmt.Errorf("profile1d parameter %q not found", name)
	}
	return v, nil
}

// Columns returns the names of the table columns in file order.
func (p *Prof1d) Columns() ([]string, error) {
	c, err := p.content()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.columns...), nil
}

// Column returns one table column.
func (p *Prof1d) Column(name string) ([]float64, error) {
	c, err := p.content()
	if err != nil {
		return nil, err
	}
	col, ok := c.data[name]
	if !ok {
		return nil, fmt.Errorf("profile1d column %q not found", name)
	}
	return append([]float64(nil), col...), nil
}

func (p *Prof1d) content() (*content, error) {
	return p.body.Get(func() (*content, error) {
		path, err := p.Path()
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		c, err := parse(bufio.NewScanner(f))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return c, nil
	})
}

func parse(sc *bufio.Scanner) (*content, error) {
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	var lines [][]string
	for sc.Scan() {
		lines = append(lines, strings.Fields(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) < 3 {
		return nil, fmt.Errorf("expected parameter names, values and a table header, got %d lines", len(lines))
	}
	c := &content{params: make(map[string]float64), data: make(map[string][]float64)}
	names, values := lines[0], lines[1]
	for i := range min(len(names), len(values)) {
		v, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", names[i], err)
		}
		c.params[names[i]] = v
	}
	c.columns = lines[2]
	for n, row := range lines[3:] {
		if len(row) == 0 {
			continue
		}
		if len(row) != len(c.columns) {
			return nil, fmt.Errorf("row %d has %d values, header has %d", n+1, len(row), len(c.columns))
		}
		for i, col := range c.columns {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", n+1, col, err)
			}
			c.data[col] = append(c.data[col], v)
		}
	}
	return c, nil
}
