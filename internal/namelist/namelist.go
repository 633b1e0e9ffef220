// Package namelist reads Fortran namelist files into cty values.
//
// Group and key names are case-insensitive and stored lower-cased. A key
// holding one value maps to a primitive cty.Value (string, number or bool); a
// key holding several values maps to a list, or to a tuple when the values
// have different types.
package namelist

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	// ErrSyntax is returned for malformed namelist input.
	ErrSyntax = errors.New("namelist syntax error")
	// ErrMissing is returned when a group or key is absent.
	ErrMissing = errors.New("namelist key missing")
)

// Namelist is a parsed namelist file.
type Namelist struct {
	groups map[string]map[string]cty.Value
}

// ReadFile parses the namelist file at path.
func ReadFile(path string) (*Namelist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	nml, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse namelist %s: %w", path, err)
	}
	return nml, nil
}

// Groups returns the sorted group names.
func (n *Namelist) Groups() []string {
	out := make([]string, 0, len(n.groups))
	for g := range n.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Has reports whether group.key is set.
func (n *Namelist) Has(group, key string) bool {
	_, ok := n.Get(group, key)
	return ok
}

// Get returns the value of group.key.
func (n *Namelist) Get(group, key string) (cty.Value, bool) {
	g, ok := n.groups[strings.ToLower(group)]
	if !ok {
		return cty.NilVal, false
	}
	v, ok := g[strings.ToLower(key)]
	return v, ok
}

// First returns the first element of a list value or the value itself.
func (n *Namelist) First(group, key string) (cty.Value, error) {
	v, ok := n.Get(group, key)
	if !ok {
		return cty.NilVal, fmt.Errorf("%w: %s.%s", ErrMissing, group, key)
	}
	if v.Type().IsListType() || v.Type().IsTupleType() {
		if v.LengthInt() == 0 {
			return cty.NilVal, fmt.Errorf("%w: %s.%s is empty", ErrMissing, group, key)
		}
		return v.Index(cty.NumberIntVal(0)), nil
	}
	return v, nil
}

// String returns group.key, the first element for lists, as a string.
func (n *Namelist) String(group, key string) (string, error) {
	var s string
	return s, n.decode(group, key, &s)
}

// Float returns group.key as a float.
func (n *Namelist) Float(group, key string) (float64, error) {
	var f float64
	return f, n.decode(group, key, &f)
}

// Int returns group.key as an integer.
func (n *Namelist) Int(group, key string) (int, error) {
	var i int
	return i, n.decode(group, key, &i)
}

// Bool returns group.key as a logical.
func (n *Namelist) Bool(group, key string) (bool, error) {
	var b bool
	return b, n.decode(group, key, &b)
}

func (n *Namelist) decode(group, key string, target any) error {
	v, err := n.First(group, key)
	if err != nil {
		return err
	}
	if err := gocty.FromCtyValue(v, target); err != nil {
		return fmt.Errorf("namelist %s.%s: %w", group, key, err)
	}
	return nil
}

// Parse reads every group of a namelist.
func Parse(r io.Reader) (*Namelist, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{src: []rune(string(src))}
	nml := &Namelist{groups: make(map[string]map[string]cty.Value)}
	for {
		p.skipBlank()
		if p.eof() {
			return nml, nil
		}
		c := p.peek()
		if c != '&' && c != '$' {
			// Text between groups is ignored.
			p.skipLine()
			continue
		}
		p.pos++
		name := strings.ToLower(p.ident())
		if name == "" {
			return nil, p.errorf("missing group name")
		}
		vals, err := p.group()
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", name, err)
		}
		g, ok := nml.groups[name]
		if !ok {
			g = make(map[string]cty.Value)
			nml.groups[name] = g
		}
		for k, v := range vals {
			g[k] = v
		}
	}
}
