package fortpp

import (
	"fmt"
	"reflect"
)

// array is a flattened n-d dataset in row-major order.
type array struct {
	shape []int
	data  []float64
}

// squeezed returns the shape without its unit dimensions.
func (a array) squeezed() []int {
	var out []int
	for _, n := range a.shape {
		if n != 1 {
			out = append(out, n)
		}
	}
	return out
}

// toArray converts the values decoded by the netCDF/HDF5 reader, which are
// scalars or nested slices of any numeric type, into an array.
func toArray(v any) (array, error) {
	var a array
	if err := flatten(reflect.ValueOf(v), 0, &a); err != nil {
		return array{}, err
	}
	return a, nil
}

func flatten(v reflect.Value, depth int, a *array) error {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		n := v.Len()
		if depth == len(a.shape) {
			a.shape = append(a.shape, n)
		} else if a.shape[depth] != n {
			return fmt.Errorf("ragged dataset at depth %d: %d and %d", depth, a.shape[depth], n)
		}
		for i := range n {
			if err := flatten(v.Index(i), depth+1, a); err != nil {
				return err
			}
		}
		return nil
	case reflect.Float32, reflect.Float64:
		a.data = append(a.data, v.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		a.data = append(a.data, float64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		a.data = append(a.data, float64(v.Uint()))
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return fmt.Errorf("nil value in dataset")
		}
		return flatten(v.Elem(), depth, a)
	default:
		return fmt.Errorf("unsupported dataset element %s", v.Kind())
	}
	return nil
}

func scalar(v any) (float64, error) {
	a, err := toArray(v)
	if err != nil {
		return 0, err
	}
	if len(a.data) != 1 {
		return 0, fmt.Errorf("expected a scalar, got %d values", len(a.data))
	}
	return a.data[0], nil
}

func vector(v any) ([]float64, error) {
	a, err := toArray(v)
	if err != nil {
		return nil, err
	}
	if s := a.squeezed(); len(s) > 1 {
		return nil, fmt.Errorf("expected a 1d dataset, got shape %v", a.shape)
	}
	return a.data, nil
}

// matrix returns the squeezed 2d dataset as rows.
func matrix(v any) ([][]float64, error) {
	a, err := toArray(v)
	if err != nil {
		return nil, err
	}
	s := a.squeezed()
	if len(s) != 2 {
		return nil, fmt.Errorf("expected a 2d dataset, got shape %v", a.shape)
	}
	rows := make([][]float64, s[0])
	for i := range rows {
		rows[i] = a.data[i*s[1] : (i+1)*s[1]]
	}
	return rows, nil
}

func transpose(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make([][]float64, len(m[0]))
	for j := range out {
		out[j] = make([]float64, len(m))
		for i := range m {
			out[j][i] = m[i][j]
		}
	}
	return out
}
