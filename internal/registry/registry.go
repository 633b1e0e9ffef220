package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Kind is a quantity namespace. The same name may mean different things in
// different kinds.
type Kind int

const (
	Field Kind = iota
	Profile
	TimeAveragedProfile
	TimeSeries
)

// Kinds lists every Kind in order.
var Kinds = []Kind{Field, Profile, TimeAveragedProfile, TimeSeries}

func (k Kind) String() string {
	switch k {
	case Field:
		return "field"
	case Profile:
		return "profile"
	case TimeAveragedProfile:
		return "time_averaged_profile"
	case TimeSeries:
		return "time_series"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown quantity kind %q", s)
}

// Module is implemented by every quantity library.
type Module interface {
	Register(s *Set)
}

// Registry maps names of one Kind to handlers.
type Registry struct {
	kind     Kind
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates an empty Registry for kind.
func New(kind Kind) *Registry {
	return &Registry{kind: kind, handlers: make(map[string]Handler)}
}

// Kind returns the namespace of the registry.
func (r *Registry) Kind() Kind { return r.kind }

// Register binds name to h. It returns the handler that was replaced, if
// any.
func (r *Registry) Register(name string, h Handler) (prev Handler, replaced bool) {
	if h == nil {
		panic(fmt.Sprintf("nil %s handler for '%s'", r.kind, name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, replaced = r.handlers[name]
	if replaced {
		slog.Warn("Replacing quantity handler.", "kind", r.kind.String(), "name", name)
	} else {
		slog.Debug("Registering quantity handler.", "kind", r.kind.String(), "name", name)
	}
	r.handlers[name] = h
	return prev, replaced
}

// Lookup returns the handler bound to name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set bundles one Registry per Kind.
type Set struct {
	byKind map[Kind]*Registry
}

// NewSet creates a Set with an empty registry for every Kind.
func NewSet() *Set {
	s := &Set{byKind: make(map[Kind]*Registry, len(Kinds))}
	for _, k := range Kinds {
		s.byKind[k] = New(k)
	}
	return s
}

// NewSetFrom creates a Set and registers every module into it, in order.
func NewSetFrom(modules ...Module) *Set {
	s := NewSet()
	for _, m := range modules {
		m.Register(s)
	}
	return s
}

// Of returns the registry of kind. It panics on an unknown Kind.
func (s *Set) Of(kind Kind) *Registry {
	r, ok := s.byKind[kind]
	if !ok {
		panic(fmt.Sprintf("unknown quantity kind %d", int(kind)))
	}
	return r
}

// Fields returns the field registry.
func (s *Set) Fields() *Registry { return s.Of(Field) }

// Profiles returns the radial profile registry.
func (s *Set) Profiles() *Registry { return s.Of(Profile) }

// TimeAveragedProfiles returns the time-averaged profile registry.
func (s *Set) TimeAveragedProfiles() *Registry { return s.Of(TimeAveragedProfile) }

// TimeSeries returns the time series registry.
func (s *Set) TimeSeries() *Registry { return s.Of(TimeSeries) }
