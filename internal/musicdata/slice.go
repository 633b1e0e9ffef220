package musicdata

import (
	"fmt"
	"strconv"
	"strings"
)

// Item selects dumps of a run: an Index or a Slice.
type Item interface {
	indices(n int) []int
}

// Index selects one dump. Negative values count from the end.
type Index int

func (i Index) indices(n int) []int {
	idx := int(i)
	if idx < 0 {
		idx += n
	}
	return []int{idx}
}

// Slice selects a range of dumps with the bounds semantics of a Python
// slice. Nil bounds are open and a zero Step means 1.
type Slice struct {
	Start *int
	Stop  *int
	Step  int
}

// All selects every dump.
var All = Slice{}

// Span returns the slice [start, stop).
func Span(start, stop int) Slice { return Slice{Start: &start, Stop: &stop} }

// Bounds resolves the slice on n dumps to explicit start, stop and step.
func (s Slice) Bounds(n int) (start, stop, step int) {
	step = s.Step
	if step == 0 {
		step = 1
	}
	bound := func(p *int, def int) int {
		if p == nil {
			return def
		}
		v := *p
		if v < 0 {
			v += n
		}
		lo, hi := 0, n
		if step < 0 {
			lo, hi = -1, n-1
		}
		return min(max(v, lo), hi)
	}
	if step > 0 {
		return bound(s.Start, 0), bound(s.Stop, n), step
	}
	return bound(s.Start, n-1), bound(s.Stop, -1), step
}

func (s Slice) indices(n int) []int {
	start, stop, step := s.Bounds(n)
	var out []int
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
		return out
	}
	for i := start; i > stop; i += step {
		out = append(out, i)
	}
	return out
}

func (s Slice) String() string {
	part := func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	}
	if s.Step == 0 {
		return part(s.Start) + ":" + part(s.Stop)
	}
	return part(s.Start) + ":" + part(s.Stop) + ":" + strconv.Itoa(s.Step)
}

// ParseItems parses a comma separated list of indices and slices such as
// "0,3:20,-1" or "::10". The empty string selects every dump.
func ParseItems(s string) ([]Item, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []Item{All}, nil
	}
	var items []Item
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, ":") {
			i, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid dump index %q", part)
			}
			items = append(items, Index(i))
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) > 3 {
			return nil, fmt.Errorf("invalid dump slice %q", part)
		}
		var sl Slice
		bounds := []**int{&sl.Start, &sl.Stop}
		for k, f := range fields {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("invalid dump slice %q", part)
			}
			if k == 2 {
				if v == 0 {
					return nil, fmt.Errorf("zero step in dump slice %q", part)
				}
				sl.Step = v
				continue
			}
			*bounds[k] = &v
		}
		items = append(items, sl)
	}
	return items, nil
}
