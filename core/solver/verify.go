package solver

import (
	"fmt"
	"math"

	"github.com/kilianp07/vpp/core/network"
)

// DefaultBalanceTolerance is the accepted per-period bus residual in MW.
const DefaultBalanceTolerance = 1e-6

// VerifyBalance checks that res satisfies the bus balance of net in every
// period and that each flow honours its bounds, both within tol. NaN values
// never pass.
func VerifyBalance(net *network.FlowNetwork, res *Result, tol float64) error {
	if res == nil {
		return fmt.Errorf("no result to verify")
	}
	if tol <= 0 {
		tol = DefaultBalanceTolerance
	}
	get := func(label string) ([]float64, error) {
		v, ok := res.Flows[label]
		if !ok {
			return nil, fmt.Errorf("result has no flow for %s", label)
		}
		if len(v) != net.Periods {
			return nil, fmt.Errorf("flow %s has %d values for %d periods", label, len(v), net.Periods)
		}
		return v, nil
	}
	bounds := func(label string, f network.Flow, v []float64) error {
		for t, x := range v {
			if !(x >= f.Lower(t)-tol && x <= f.Upper(t)+tol) {
				return fmt.Errorf("flow %s[%d]=%g outside [%g, %g]", label, t, x, f.Lower(t), f.Upper(t))
			}
		}
		return nil
	}

	residual := make([]float64, net.Periods)
	for _, s := range net.Sources {
		v, err := get(s.Label)
		if err != nil {
			return err
		}
		if err := bounds(s.Label, s.Flow, v); err != nil {
			return err
		}
		for t := range residual {
			residual[t] += v[t]
		}
	}
	for _, s := range net.Sinks {
		v, err := get(s.Label)
		if err != nil {
			return err
		}
		if err := bounds(s.Label, s.Flow, v); err != nil {
			return err
		}
		for t := range residual {
			residual[t] -= v[t]
		}
	}
	if st := net.Storage; st != nil {
		if res.Storage == nil {
			return fmt.Errorf("result has no storage trajectory")
		}
		if len(res.Storage.Charge) != net.Periods || len(res.Storage.Discharge) != net.Periods || len(res.Storage.Level) != net.Periods {
			return fmt.Errorf("storage trajectory does not cover %d periods", net.Periods)
		}
		if err := bounds(st.Label+".charge", st.Charge, res.Storage.Charge); err != nil {
			return err
		}
		if err := bounds(st.Label+".discharge", st.Discharge, res.Storage.Discharge); err != nil {
			return err
		}
		lo, hi := st.MinLevel*st.NominalCapacity, st.MaxLevel*st.NominalCapacity
		for t, l := range res.Storage.Level {
			if !(l >= lo-tol && l <= hi+tol) {
				return fmt.Errorf("storage level[%d]=%g outside [%g, %g]", t, l, lo, hi)
			}
		}
		for t := range residual {
			residual[t] += res.Storage.Discharge[t] - res.Storage.Charge[t]
		}
	}
	for t, r := range residual {
		if !(math.Abs(r) <= tol) {
			return fmt.Errorf("bus imbalance of %g MW in period %d", r, t)
		}
	}
	return nil
}

// Profit returns revenue minus cost of res in yuan, valued at the raw unit
// values of net regardless of the objective signs.
func Profit(net *network.FlowNetwork, res *Result) float64 {
	if net == nil || res == nil {
		return 0
	}
	dt := net.StepHours
	value := func(f network.Flow, v []float64) float64 {
		sum := 0.0
		for t, x := range v {
			if t >= net.Periods {
				break
			}
			if f.Revenue {
				sum += f.Economic(t) * x * dt
			} else {
				sum -= f.Economic(t) * x * dt
			}
		}
		return sum
	}
	total := 0.0
	for _, s := range net.Sources {
		total += value(s.Flow, res.Flows[s.Label])
	}
	for _, s := range net.Sinks {
		total += value(s.Flow, res.Flows[s.Label])
	}
	if st := net.Storage; st != nil && res.Storage != nil {
		total += value(st.Charge, res.Storage.Charge)
		total += value(st.Discharge, res.Storage.Discharge)
	}
	return total
}
