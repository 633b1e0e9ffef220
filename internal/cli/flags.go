package cli

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/musicscripts/internal/config"
)

// binder registers flags whose values override the configuration model
// only when the user sets them.
type binder struct {
	fs    *flag.FlagSet
	apply map[string]func(*config.Model)
}

func newBinder(fs *flag.FlagSet) *binder {
	return &binder{fs: fs, apply: make(map[string]func(*config.Model))}
}

// bind registers v under every name.
func (b *binder) bind(names []string, v flag.Value, usage string, set func(*config.Model)) {
	for _, name := range names {
		b.fs.Var(v, name, usage)
		b.apply[name] = set
	}
}

func (b *binder) str(names []string, usage string, set func(*config.Model, string)) {
	v := new(stringValue)
	b.bind(names, v, usage, func(m *config.Model) { set(m, string(*v)) })
}

func (b *binder) integer(names []string, usage string, set func(*config.Model, int)) {
	v := new(intValue)
	b.bind(names, v, usage, func(m *config.Model) { set(m, int(*v)) })
}

func (b *binder) boolean(names []string, usage string, set func(*config.Model, bool)) {
	v := new(boolValue)
	b.bind(names, v, usage, func(m *config.Model) { set(m, bool(*v)) })
}

func (b *binder) strs(names []string, usage string, set func(*config.Model, []string)) {
	v := new(listValue[string])
	v.parse = func(s string) (string, error) { return s, nil }
	b.bind(names, v, usage, func(m *config.Model) { set(m, v.items) })
}

func (b *binder) ints(names []string, usage string, set func(*config.Model, []int)) {
	v := new(listValue[int])
	v.parse = strconv.Atoi
	b.bind(names, v, usage, func(m *config.Model) { set(m, v.items) })
}

func (b *binder) floats(names []string, usage string, set func(*config.Model, []float64)) {
	v := new(listValue[float64])
	v.parse = func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
	b.bind(names, v, usage, func(m *config.Model) { set(m, v.items) })
}

// overrides returns the setters of the flags set on the command line, in
// flag name order. A flag given under two names applies once.
func (b *binder) overrides() []func(*config.Model) {
	var out []func(*config.Model)
	seen := make(map[flag.Value]bool)
	b.fs.Visit(func(f *flag.Flag) {
		if seen[f.Value] {
			return
		}
		seen[f.Value] = true
		if set, ok := b.apply[f.Name]; ok {
			out = append(out, set)
		}
	})
	return out
}

type stringValue string

func (v *stringValue) String() string     { return string(*v) }
func (v *stringValue) Set(s string) error { *v = stringValue(s); return nil }

type intValue int

func (v *intValue) String() string { return strconv.Itoa(int(*v)) }
func (v *intValue) Set(s string) error {
	i, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*v = intValue(i)
	return nil
}

type boolValue bool

func (v *boolValue) String() string   { return strconv.FormatBool(bool(*v)) }
func (v *boolValue) IsBoolFlag() bool { return true }
func (v *boolValue) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", s)
	}
	*v = boolValue(b)
	return nil
}

// listValue is a comma separated list. Repeating the flag appends.
type listValue[T any] struct {
	items []T
	parse func(string) (T, error)
}

func (v *listValue[T]) String() string {
	if v == nil {
		return ""
	}
	parts := make([]string, len(v.items))
	for i, it := range v.items {
		parts[i] = fmt.Sprint(it)
	}
	return strings.Join(parts, ",")
}

func (v *listValue[T]) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		it, err := v.parse(part)
		if err != nil {
			return fmt.Errorf("invalid list element %q", part)
		}
		v.items = append(v.items, it)
	}
	return nil
}
