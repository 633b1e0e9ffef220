package labeled

import (
	"fmt"
	"strconv"
)

// Axis is a named dimension together with its labels. Categorical axes (such
// as "var") carry Names, coordinate axes carry Values.
type Axis struct {
	Name   string
	Names  []string
	Values []float64
}

// Categorical builds an axis labeled by strings.
func Categorical(name string, labels ...string) Axis {
	return Axis{Name: name, Names: append(make([]string, 0, len(labels)), labels...)}
}

// Coord builds an axis labeled by coordinates.
func Coord(name string, values []float64) Axis {
	return Axis{Name: name, Values: append([]float64(nil), values...)}
}

// Len is the number of labels along the axis.
func (a Axis) Len() int {
	if a.Names != nil {
		return len(a.Names)
	}
	return len(a.Values)
}

// Index returns the position of a label. Coordinate axes match the label
// against the formatted coordinate.
func (a Axis) Index(label string) (int, bool) {
	if a.Names != nil {
		for i, n := range a.Names {
			if n == label {
				return i, true
			}
		}
		return 0, false
	}
	for i := range a.Values {
		if a.Label(i) == label {
			return i, true
		}
	}
	return 0, false
}

// Label formats the i-th label.
func (a Axis) Label(i int) string {
	if a.Names != nil {
		return a.Names[i]
	}
	return strconv.FormatFloat(a.Values[i], 'g', -1, 64)
}

// Slice returns the axis restricted to [lo, hi).
func (a Axis) Slice(lo, hi int) Axis {
	out := Axis{Name: a.Name}
	if a.Names != nil {
		out.Names = append(make([]string, 0, hi-lo), a.Names[lo:hi]...)
	} else {
		out.Values = append([]float64(nil), a.Values[lo:hi]...)
	}
	return out
}

// Equal reports whether both axes have the same name and labels.
func (a Axis) Equal(b Axis) bool {
	if a.Name != b.Name || a.Len() != b.Len() || (a.Names == nil) != (b.Names == nil) {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if a.Names != nil {
			if a.Names[i] != b.Names[i] {
				return false
			}
		} else if a.Values[i] != b.Values[i] {
			return false
		}
	}
	return true
}

func (a Axis) String() string {
	return fmt.Sprintf("%s[%d]", a.Name, a.Len())
}

func concatAxes(parts []Axis) Axis {
	out := Axis{Name: parts[0].Name}
	if parts[0].Names != nil {
		out.Names = []string{}
	}
	for _, p := range parts {
		if p.Names != nil {
			out.Names = append(out.Names, p.Names...)
		} else {
			out.Values = append(out.Values, p.Values...)
		}
	}
	return out
}

func copyAxes(axes []Axis) []Axis {
	return append([]Axis(nil), axes...)
}

func axisIndex(axes []Axis, name string) int {
	for i, ax := range axes {
		if ax.Name == name {
			return i
		}
	}
	return -1
}

func without(axes []Axis, k int) []Axis {
	out := make([]Axis, 0, len(axes)-1)
	out = append(out, axes[:k]...)
	return append(out, axes[k+1:]...)
}

func replaced(axes []Axis, k int, ax Axis) []Axis {
	out := copyAxes(axes)
	out[k] = ax
	return out
}

func shapeOf(axes []Axis) []int {
	shape := make([]int, len(axes))
	for i, ax := range axes {
		shape[i] = ax.Len()
	}
	return shape
}

func checkUnique(axes []Axis) error {
	seen := make(map[string]struct{}, len(axes))
	for _, ax := range axes {
		if _, ok := seen[ax.Name]; ok {
			return fmt.Errorf("%w: duplicate axis %q", ErrShape, ax.Name)
		}
		seen[ax.Name] = struct{}{}
	}
	return nil
}
