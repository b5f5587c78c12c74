package model

import (
	"fmt"
	"strings"
)

// OptimizationObjective selects how costs and revenues are weighed.
type OptimizationObjective int

const (
	ObjectiveCostMinimization OptimizationObjective = iota
	ObjectiveRevenueMaximization
	ObjectiveProfitMaximization
	ObjectiveAncillaryRevenueMax
	ObjectiveGridSupportOptimized
)

var objectiveNames = [...]string{
	ObjectiveCostMinimization:     "cost_minimization",
	ObjectiveRevenueMaximization:  "revenue_maximization",
	ObjectiveProfitMaximization:   "profit_maximization",
	ObjectiveAncillaryRevenueMax:  "ancillary_revenue_max",
	ObjectiveGridSupportOptimized: "grid_support_optimized",
}

// AllObjectives returns every objective in declaration order.
func AllObjectives() []OptimizationObjective {
	return []OptimizationObjective{
		ObjectiveCostMinimization,
		ObjectiveRevenueMaximization,
		ObjectiveProfitMaximization,
		ObjectiveAncillaryRevenueMax,
		ObjectiveGridSupportOptimized,
	}
}

func (o OptimizationObjective) String() string {
	if !o.Valid() {
		return "unknown"
	}
	return objectiveNames[o]
}

// Valid reports whether o is one of the enumerated objectives.
func (o OptimizationObjective) Valid() bool {
	return o >= 0 && int(o) < len(objectiveNames)
}

// ParseObjective accepts the identifier in any case, with dashes or
// underscores. An empty string yields cost minimization.
func ParseObjective(s string) (OptimizationObjective, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if norm == "" {
		return ObjectiveCostMinimization, nil
	}
	for i, name := range objectiveNames {
		if name == norm {
			return OptimizationObjective(i), nil
		}
	}
	return 0, fmt.Errorf("unknown optimization objective %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o OptimizationObjective) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid optimization objective %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OptimizationObjective) UnmarshalText(b []byte) error {
	v, err := ParseObjective(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
