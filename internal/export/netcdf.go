package export

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/vk/musicscripts/internal/labeled"
)

// WriteNetCDF writes t to a classic netCDF file at path. Every axis becomes
// a dimension with a coordinate variable; categorical axes store label
// indices and list their labels in a "labels" attribute.
func WriteNetCDF(path string, t Table) (err error) {
	if err := t.validate(); err != nil {
		return err
	}
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := cw.Close(); err == nil {
			err = cerr
		}
	}()
	axes := t.Array.Axes()
	dims := make([]string, len(axes))
	for k, ax := range axes {
		dims[k] = ax.Name
		if err := cw.AddVar(ax.Name, axisVariable(ax)); err != nil {
			return fmt.Errorf("axis %s: %w", ax.Name, err)
		}
	}
	attrs, err := attributes(map[string]any{"long_name": t.value()})
	if err != nil {
		return err
	}
	data := api.Variable{Values: nested(t.Array.Values(), t.Array.Shape()), Dimensions: dims, Attributes: attrs}
	if err := cw.AddVar(t.value(), data); err != nil {
		return fmt.Errorf("variable %s: %w", t.value(), err)
	}
	if len(t.Attrs) > 0 {
		global := make(map[string]any, len(t.Attrs))
		for k, v := range t.Attrs {
			global[k] = v
		}
		ga, err := attributes(global)
		if err != nil {
			return err
		}
		if err := cw.AddGlobalAttrs(ga); err != nil {
			return err
		}
	}
	return nil
}

func axisVariable(ax labeled.Axis) api.Variable {
	if ax.Names != nil {
		idx := make([]int32, len(ax.Names))
		for i := range idx {
			idx[i] = int32(i)
		}
		attrs, _ := attributes(map[string]any{"long_name": ax.Name, "labels": strings.Join(ax.Names, ",")})
		return api.Variable{Values: idx, Dimensions: []string{ax.Name}, Attributes: attrs}
	}
	attrs, _ := attributes(map[string]any{"long_name": ax.Name})
	return api.Variable{Values: append([]float64(nil), ax.Values...), Dimensions: []string{ax.Name}, Attributes: attrs}
}

func attributes(m map[string]any) (api.AttributeMap, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return util.NewOrderedMap(keys, m)
}

// nested reshapes row-major values into nested []...[]float64 slices.
func nested(values []float64, shape []int) any {
	if len(shape) == 0 {
		return values[0]
	}
	if len(shape) == 1 {
		return append([]float64(nil), values...)
	}
	typ := reflect.TypeOf([]float64(nil))
	for range shape[1:] {
		typ = reflect.SliceOf(typ)
	}
	stride := len(values) / max(shape[0], 1)
	out := reflect.MakeSlice(typ, shape[0], shape[0])
	for i := range shape[0] {
		out.Index(i).Set(reflect.ValueOf(nested(values[i*stride:(i+1)*stride], shape[1:])))
	}
	return out.Interface()
}
