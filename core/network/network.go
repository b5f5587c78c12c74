package network

import (
	"fmt"
	"sort"

	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/policy"
)

// Flow is one power flow between a node and the bus, in MW. Bounds are
// fractions of NominalValue. When Fix is set the flow is pinned to
// Fix[t] × NominalValue and Min/Max are ignored.
type Flow struct {
	NominalValue float64
	Fix          []float64
	Min          float64
	Max          float64
	// VariableCosts is the signed objective coefficient per period, in
	// yuan/MWh, after the objective transformation.
	VariableCosts []float64
	// UnitValue is the raw economic value per period before any sign or
	// weight is applied. Revenue tells whether it is earned or paid.
	UnitValue []float64
	Revenue   bool
}

// Fixed reports whether the flow is pinned to a profile.
func (f Flow) Fixed() bool { return f.Fix != nil }

// Lower returns the lower bound of the flow in period t.
func (f Flow) Lower(t int) float64 {
	if f.Fixed() {
		return f.Fix[t] * f.NominalValue
	}
	return f.Min * f.NominalValue
}

// Upper returns the upper bound of the flow in period t.
func (f Flow) Upper(t int) float64 {
	if f.Fixed() {
		return f.Fix[t] * f.NominalValue
	}
	return f.Max * f.NominalValue
}

// Cost returns the signed objective coefficient of period t.
func (f Flow) Cost(t int) float64 {
	if t < len(f.VariableCosts) {
		return f.VariableCosts[t]
	}
	return 0
}

// Economic returns the raw unit value of period t.
func (f Flow) Economic(t int) float64 {
	if t < len(f.UnitValue) {
		return f.UnitValue[t]
	}
	return 0
}

// Bus is the single electricity balance point.
type Bus struct {
	Label string
}

// Source injects power into the bus.
type Source struct {
	Label string
	Kind  model.ResourceKind
	Flow  Flow
}

// Sink withdraws power from the bus.
type Sink struct {
	Label string
	Kind  model.ResourceKind
	Flow  Flow
}

// Storage is the battery. Levels are fractions of NominalCapacity (MWh).
type Storage struct {
	Label             string
	NominalCapacity   float64
	InitialLevel      float64
	MinLevel          float64
	MaxLevel          float64
	InflowConversion  float64
	OutflowConversion float64
	LossRate          float64
	// BalancedEnd pins the final level to the initial level.
	BalancedEnd bool
	Charge      Flow
	Discharge   Flow
}

// FlowNetwork is the assembled model of one (mode, objective) pair over
// one time grid.
type FlowNetwork struct {
	Mode         model.SchedulingMode
	Objective    model.OptimizationObjective
	Coefficients policy.Coefficients
	Resources    policy.ResourceInclusionSet
	Periods      int
	StepHours    float64
	Bus          Bus
	Sources      []Source
	Sinks        []Sink
	Storage      *Storage
	// ProfitFloor, when set, requires revenue minus cost in yuan to reach
	// this value.
	ProfitFloor *float64
}

// Labels returns every node label, sorted.
func (n *FlowNetwork) Labels() []string {
	out := make([]string, 0, len(n.Sources)+len(n.Sinks)+2)
	out = append(out, n.Bus.Label)
	for _, s := range n.Sources {
		out = append(out, s.Label)
	}
	for _, s := range n.Sinks {
		out = append(out, s.Label)
	}
	if n.Storage != nil {
		out = append(out, n.Storage.Label)
	}
	sort.Strings(out)
	return out
}

// Source returns the source with label.
func (n *FlowNetwork) Source(label string) (Source, bool) {
	for _, s := range n.Sources {
		if s.Label == label {
			return s, true
		}
	}
	return Source{}, false
}

// Sink returns the sink with label.
func (n *FlowNetwork) Sink(label string) (Sink, bool) {
	for _, s := range n.Sinks {
		if s.Label == label {
			return s, true
		}
	}
	return Sink{}, false
}

// Validate checks the structural consistency of the network: unique
// labels, per-period vectors of the right length and ordered bounds.
func (n *FlowNetwork) Validate() error {
	if n.Periods <= 0 {
		return fmt.Errorf("network has %d periods", n.Periods)
	}
	if n.StepHours <= 0 {
		return fmt.Errorf("network step must be positive, got %g h", n.StepHours)
	}
	seen := map[string]bool{n.Bus.Label: true}
	check := func(label string, f Flow) error {
		if seen[label] {
			return fmt.Errorf("duplicate node label %q", label)
		}
		seen[label] = true
		return n.checkFlow(label, f)
	}
	for _, s := range n.Sources {
		if err := check(s.Label, s.Flow); err != nil {
			return err
		}
	}
	for _, s := range n.Sinks {
		if err := check(s.Label, s.Flow); err != nil {
			return err
		}
	}
	if st := n.Storage; st != nil {
		if seen[st.Label] {
			return fmt.Errorf("duplicate node label %q", st.Label)
		}
		if st.NominalCapacity <= 0 {
			return fmt.Errorf("storage %s: nominal capacity must be positive", st.Label)
		}
		if st.MinLevel > st.MaxLevel || st.InitialLevel < st.MinLevel || st.InitialLevel > st.MaxLevel {
			return fmt.Errorf("storage %s: level bounds are inconsistent", st.Label)
		}
		if err := n.checkFlow(st.Label+".charge", st.Charge); err != nil {
			return err
		}
		if err := n.checkFlow(st.Label+".discharge", st.Discharge); err != nil {
			return err
		}
	}
	return nil
}

func (n *FlowNetwork) checkFlow(label string, f Flow) error {
	if f.NominalValue < 0 {
		return fmt.Errorf("flow %s: negative nominal value", label)
	}
	if len(f.VariableCosts) != n.Periods {
		return fmt.Errorf("flow %s: %d cost values for %d periods", label, len(f.VariableCosts), n.Periods)
	}
	if f.Fixed() {
		if len(f.Fix) != n.Periods {
			return fmt.Errorf("flow %s: %d profile values for %d periods", label, len(f.Fix), n.Periods)
		}
		return nil
	}
	if f.Min < 0 || f.Min > f.Max {
		return fmt.Errorf("flow %s: bounds [%g, %g] are inconsistent", label, f.Min, f.Max)
	}
	return nil
}
