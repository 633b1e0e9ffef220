// Package eos routes thermodynamic state variables of a MUSIC state through a
// tabulated equation of state.
package eos

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/musicscripts/internal/labeled"
)

// ErrBinding is returned for binding lists that cannot feed a table lookup.
var ErrBinding = errors.New("invalid eos binding")

// StateVar identifies a quantity the table can compute.
type StateVar int

const (
	LogTemperature StateVar = iota
	LogPressure
	LogGasPressure
	LogEntropy
	AdiabaticGradient
)

var stateVarNames = map[StateVar]string{
	LogTemperature:    "log_temperature",
	LogPressure:       "log_pressure",
	LogGasPressure:    "log_gas_pressure",
	LogEntropy:        "log_entropy",
	AdiabaticGradient: "adiabatic_gradient",
}

func (v StateVar) String() string {
	if s, ok := stateVarNames[v]; ok {
		return s
	}
	return fmt.Sprintf("StateVar(%d)", int(v))
}

// ParseStateVar is the inverse of StateVar.String.
func ParseStateVar(s string) (StateVar, error) {
	for v, name := range stateVarNames {
		if strings.EqualFold(s, name) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown state variable %q", s)
}

// Slot is a table lookup argument.
type Slot int

const (
	SlotDensity Slot = iota
	SlotEnergy
	SlotHelium
)

// Binding feeds the raw variable Var into a lookup Slot.
type Binding struct {
	Var  string
	Slot Slot
}

// State is one lookup key. Density and Energy are linear values.
type State struct {
	Density     float64
	Energy      float64
	Helium      float64
	Metallicity float64
}

// Table computes a state variable at one state. Points outside the table
// yield NaN.
type Table interface {
	Compute(v StateVar, st State) float64
}

// Deriver derives a state variable from a raw array carrying a var axis.
type Deriver interface {
	Derive(raw labeled.Array, v StateVar) (labeled.Array, error)
}

// EoS binds raw variables to the arguments of a Table at fixed metallicity.
// The helium fraction is either bound to a raw variable or fixed.
type EoS struct {
	table       Table
	bindings    []Binding
	metallicity float64
	helium      float64
}

var _ Deriver = (*EoS)(nil)

// New validates the binding list and returns an EoS. helium is used only
// when no binding feeds SlotHelium.
func New(table Table, metallicity, helium float64, bindings ...Binding) (*EoS, error) {
	seen := make(map[Slot]bool, len(bindings))
	for _, b := range bindings {
		if b.Slot < SlotDensity || b.Slot > SlotHelium {
			return nil, fmt.Errorf("%w: unknown slot %d for %s", ErrBinding, b.Slot, b.Var)
		}
		if seen[b.Slot] {
			return nil, fmt.Errorf("%w: slot %d bound twice", ErrBinding, b.Slot)
		}
		seen[b.Slot] = true
	}
	if !seen[SlotDensity] || !seen[SlotEnergy] {
		return nil, fmt.Errorf("%w: density and energy must be bound", ErrBinding)
	}
	return &EoS{
		table:       table,
		bindings:    append([]Binding(nil), bindings...),
		metallicity: metallicity,
		helium:      helium,
	}, nil
}

// CstMetal is the constant metallicity EoS with the helium fraction carried
// by scalar_1.
func CstMetal(table Table, metallicity float64) *EoS {
	e, _ := New(table, metallicity, 0,
		Binding{Var: "density", Slot: SlotDensity},
		Binding{Var: "e_int_spec", Slot: SlotEnergy},
		Binding{Var: "scalar_1", Slot: SlotHelium},
	)
	return e
}

// CstCompo is the constant metallicity and helium fraction EoS.
func CstCompo(table Table, metallicity, helium float64) *EoS {
	e, _ := New(table, metallicity, helium,
		Binding{Var: "density", Slot: SlotDensity},
		Binding{Var: "e_int_spec", Slot: SlotEnergy},
	)
	return e
}

// Bindings returns a copy of the binding list.
func (e *EoS) Bindings() []Binding { return append([]Binding(nil), e.bindings...) }

// Metallicity returns the fixed metallicity.
func (e *EoS) Metallicity() float64 { return e.metallicity }

// Derive builds the lazy array of v over raw. The var axis is consumed.
func (e *EoS) Derive(raw labeled.Array, v StateVar) (labeled.Array, error) {
	labels := make([]string, len(e.bindings))
	slots := make([]Slot, len(e.bindings))
	for i, b := range e.bindings {
		labels[i], slots[i] = b.Var, b.Slot
	}
	return labeled.Derived(raw, "var", labels, func(vals ...float64) float64 {
		st := State{Helium: e.helium, Metallicity: e.metallicity}
		for i, x := range vals {
			switch slots[i] {
			case SlotDensity:
				st.Density = x
			case SlotEnergy:
				st.Energy = x
			case SlotHelium:
				st.Helium = x
			}
		}
		return e.table.Compute(v, st)
	})
}

func (e *EoS) String() string {
	vars := make([]string, len(e.bindings))
	for i, b := range e.bindings {
		vars[i] = b.Var
	}
	return fmt.Sprintf("EoS(Z=%g, vars=%s)", e.metallicity, strings.Join(vars, ","))
}
