// Package export writes labeled arrays as CSV or netCDF files to a blob
// store. Every file written by an Exporter is tagged with the same batch
// identifier.
package export

import (
	"fmt"

	"github.com/vk/musicscripts/internal/labeled"
)

// DefaultValue is the name of the data column when a Table leaves it empty.
const DefaultValue = "value"

// Table is a named array to export.
type Table struct {
	// Name is the file name without extension.
	Name  string
	Array *labeled.Dense
	// Value names the data column or variable.
	Value string
	// Attrs are global attributes, written as netCDF attributes or blob
	// metadata.
	Attrs map[string]string
}

func (t Table) value() string {
	if t.Value == "" {
		return DefaultValue
	}
	return t.Value
}

func (t Table) validate() error {
	if t.Name == "" {
		return fmt.Errorf("table name required")
	}
	if t.Array == nil {
		return fmt.Errorf("table %s has no data", t.Name)
	}
	for _, ax := range t.Array.Axes() {
		if ax.Name == t.value() {
			return fmt.Errorf("table %s: axis and value share the name %q", t.Name, ax.Name)
		}
	}
	return nil
}

// Series builds a one-axis table.
func Series(name, axis string, coords, values []float64) (Table, error) {
	d, err := labeled.NewDense([]labeled.Axis{labeled.Coord(axis, coords)}, values)
	if err != nil {
		return Table{}, fmt.Errorf("table %s: %w", name, err)
	}
	return Table{Name: name, Array: d}, nil
}

// Grid builds a table indexed by two coordinate axes from rows[i][j].
func Grid(name, axis1 string, coords1 []float64, axis2 string, coords2 []float64, rows [][]float64) (Table, error) {
	values := make([]float64, 0, len(coords1)*len(coords2))
	for i, row := range rows {
		if len(row) != len(coords2) {
			return Table{}, fmt.Errorf("table %s: row %d has %d values, want %d", name, i, len(row), len(coords2))
		}
		values = append(values, row...)
	}
	d, err := labeled.NewDense([]labeled.Axis{labeled.Coord(axis1, coords1), labeled.Coord(axis2, coords2)}, values)
	if err != nil {
		return Table{}, fmt.Errorf("table %s: %w", name, err)
	}
	return Table{Name: name, Array: d}, nil
}
