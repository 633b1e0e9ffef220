package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/vk/musicscripts/internal/labeled"
)

// WriteCSV writes t in long format: one column per axis, then the value
// column, one row per element in row-major order.
func WriteCSV(w io.Writer, t Table) error {
	if err := t.validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	axes := t.Array.Axes()
	header := make([]string, 0, len(axes)+1)
	for _, ax := range axes {
		header = append(header, ax.Name)
	}
	if err := cw.Write(append(header, t.value())); err != nil {
		return err
	}
	shape := t.Array.Shape()
	idx := make([]int, len(shape))
	row := make([]string, len(axes)+1)
	for _, v := range t.Array.Values() {
		for k, ax := range axes {
			row[k] = ax.Label(idx[k])
		}
		row[len(axes)] = strconv.FormatFloat(v, 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return err
		}
		for k := len(idx) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < shape[k] {
				break
			}
			idx[k] = 0
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV. Axis columns whose labels all
// parse as numbers become coordinate axes.
func ReadCSV(r io.Reader, name string) (Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(records) < 2 {
		return Table{}, fmt.Errorf("csv %s has no data", name)
	}
	header := records[0]
	naxes := len(header) - 1
	labels := make([][]string, naxes)
	seen := make([]map[string]int, naxes)
	for k := range seen {
		seen[k] = make(map[string]int)
	}
	values := make([]float64, 0, len(records)-1)
	for n, rec := range records[1:] {
		for k := range naxes {
			if _, ok := seen[k][rec[k]]; !ok {
				seen[k][rec[k]] = len(labels[k])
				labels[k] = append(labels[k], rec[k])
			}
		}
		v, err := strconv.ParseFloat(rec[naxes], 64)
		if err != nil {
			return Table{}, fmt.Errorf("csv %s row %d: %w", name, n+1, err)
		}
		values = append(values, v)
	}
	axes := make([]labeled.Axis, naxes)
	for k := range axes {
		axes[k] = parseAxis(header[k], labels[k])
	}
	d, err := labeled.NewDense(axes, values)
	if err != nil {
		return Table{}, fmt.Errorf("csv %s: %w", name, err)
	}
	return Table{Name: name, Array: d, Value: header[naxes]}, nil
}

func parseAxis(name string, labels []string) labeled.Axis {
	coords := make([]float64, len(labels))
	for i, l := range labels {
		v, err := strconv.ParseFloat(l, 64)
		if err != nil {
			return labeled.Categorical(name, labels...)
		}
		coords[i] = v
	}
	return labeled.Coord(name, coords)
}
