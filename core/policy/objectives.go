package policy

import (
	"fmt"

	"github.com/kilianp07/vpp/core/model"
)

// Direction is the economic intent of an objective. The optimizer itself
// always minimizes; signs in Coefficients encode the intent.
type Direction int

const (
	Minimize Direction = iota
	Maximize
	MultiObjective
)

func (d Direction) String() string {
	switch d {
	case Minimize:
		return "minimization"
	case Maximize:
		return "maximization"
	case MultiObjective:
		return "multi_objective"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Coefficients is the sign and weight record of one objective.
type Coefficients struct {
	Direction         Direction `json:"direction"`
	CostSign          float64   `json:"cost_sign"`
	RevenueSign       float64   `json:"revenue_sign"`
	AncillaryWeight   float64   `json:"ancillary_weight"`
	GridSupportWeight float64   `json:"grid_support_weight"`
	MinProfitRatio    *float64  `json:"min_profit_ratio,omitempty"`
}

// HasMinProfit reports whether the objective carries a profit floor ratio.
func (c Coefficients) HasMinProfit() bool { return c.MinProfitRatio != nil }

// CoefficientsFor returns the record of obj. Each call returns a fresh
// value; the pointer field is never shared between callers.
func CoefficientsFor(obj model.OptimizationObjective) Coefficients {
	c := Coefficients{Direction: Minimize, CostSign: 1, RevenueSign: -1, AncillaryWeight: 1, GridSupportWeight: 1}
	switch obj {
	case model.ObjectiveRevenueMaximization, model.ObjectiveProfitMaximization:
		c.Direction = Maximize
		c.CostSign = -1
		c.RevenueSign = 1
	case model.ObjectiveAncillaryRevenueMax:
		c.Direction = Maximize
		c.CostSign = -0.1
		c.RevenueSign = 1
		c.AncillaryWeight = 2.0
	case model.ObjectiveGridSupportOptimized:
		ratio := 0.8
		c.Direction = MultiObjective
		c.CostSign = -0.5
		c.RevenueSign = 1
		c.GridSupportWeight = 1.5
		c.MinProfitRatio = &ratio
	}
	return c
}

// TransformCost applies the cost sign to a raw unit cost.
func TransformCost(raw float64, c Coefficients) float64 { return raw * c.CostSign }

// TransformRevenue applies the revenue sign to a raw unit price.
func TransformRevenue(raw float64, c Coefficients) float64 { return raw * c.RevenueSign }

// WeightKind selects one of the optional objective weights.
type WeightKind int

const (
	WeightAncillary WeightKind = iota
	WeightGridSupport
)

func (k WeightKind) String() string {
	switch k {
	case WeightAncillary:
		return "ancillary"
	case WeightGridSupport:
		return "grid_support"
	default:
		return "unknown"
	}
}

// ApplyWeight scales value by the weight of kind. A zero weight means the
// objective does not define one and counts as 1.
func ApplyWeight(value float64, kind WeightKind, c Coefficients) float64 {
	w := 0.0
	switch kind {
	case WeightAncillary:
		w = c.AncillaryWeight
	case WeightGridSupport:
		w = c.GridSupportWeight
	}
	if w == 0 {
		w = 1
	}
	return value * w
}

var objectiveDescriptions = map[model.OptimizationObjective]struct{ summary, function string }{
	model.ObjectiveCostMinimization: {
		"Cost minimization: lowest total operating cost of the portfolio.",
		"min Σ(generation cost + storage cost + adjustable load cost + grid purchase cost) - Σ(sale revenue + ancillary revenue)",
	},
	model.ObjectiveRevenueMaximization: {
		"Revenue maximization: highest income from sales and services.",
		"max Σ(sale revenue + ancillary revenue + arbitrage revenue)",
	},
	model.ObjectiveProfitMaximization: {
		"Profit maximization: highest revenue net of costs.",
		"max Σ revenue - Σ cost",
	},
	model.ObjectiveAncillaryRevenueMax: {
		"Ancillary revenue maximization: frequency regulation and spinning reserve take priority, costs weigh one tenth.",
		"max 2.0 × Σ ancillary revenue + Σ energy revenue - 0.1 × Σ cost",
	},
	model.ObjectiveGridSupportOptimized: {
		"Grid support: favour grid stability while keeping at least 80% of the attainable profit.",
		"max grid support contribution - 0.5 × Σ cost, subject to profit ≥ 0.8 × baseline profit",
	},
}

// DescribeObjective returns the summary of obj.
func DescribeObjective(obj model.OptimizationObjective) string {
	if d, ok := objectiveDescriptions[obj]; ok {
		return d.summary
	}
	return "Unknown optimization objective."
}

// ObjectiveExpression returns the mathematical form of obj.
func ObjectiveExpression(obj model.OptimizationObjective) string {
	if d, ok := objectiveDescriptions[obj]; ok {
		return d.function
	}
	return ""
}

var costTerms = map[model.SchedulingMode]string{
	model.ModeRenewableStorage:  "storage operating cost + grid exchange cost - renewable revenue",
	model.ModeAdjustableStorage: "adjustable load cost + storage operating cost + grid exchange cost",
	model.ModeTraditional:       "generation cost + storage cost + adjustable load cost + grid exchange cost",
	model.ModeNoRenewable:       "thermal generation cost + storage cost + adjustable load cost + grid exchange cost",
	model.ModeStorageOnly:       "storage operating cost + grid exchange cost",
	model.ModeFullSystem:        "generation cost + storage cost + adjustable load cost + grid exchange cost - ancillary revenue",
}

var revenueTerms = map[model.SchedulingMode]string{
	model.ModeRenewableStorage:  "green power sales + storage arbitrage",
	model.ModeAdjustableStorage: "demand response + peak shaving + storage arbitrage",
	model.ModeTraditional:       "power sales + peak shaving + storage arbitrage",
	model.ModeNoRenewable:       "thermal power sales + peak/valley arbitrage",
	model.ModeStorageOnly:       "storage arbitrage + price spread",
	model.ModeFullSystem:        "power sales + ancillary services + storage arbitrage + demand response",
}

// ObjectiveFunction describes the objective of obj as it applies to mode.
func ObjectiveFunction(mode model.SchedulingMode, obj model.OptimizationObjective) string {
	switch obj {
	case model.ObjectiveCostMinimization:
		if t, ok := costTerms[mode]; ok {
			return "minimize total cost = " + t
		}
	case model.ObjectiveRevenueMaximization:
		if t, ok := revenueTerms[mode]; ok {
			return "maximize revenue = " + t
		}
	case model.ObjectiveProfitMaximization:
		if t, ok := revenueTerms[mode]; ok {
			return fmt.Sprintf("maximize profit = (%s) - operating cost - grid purchase cost", t)
		}
	case model.ObjectiveAncillaryRevenueMax:
		return "maximize ancillary revenue = frequency regulation + spinning reserve + grid regulation income"
	case model.ObjectiveGridSupportOptimized:
		return "grid support = maximize stability contribution while keeping the minimum profit ratio"
	}
	return ObjectiveExpression(obj)
}
