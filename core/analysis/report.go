package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/vpp/core/catalogue"
	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/network"
	"github.com/kilianp07/vpp/core/policy"
	"github.com/kilianp07/vpp/core/solver"
)

// Report is the full analysis of one solved run.
type Report struct {
	Mode      model.SchedulingMode        `json:"mode"`
	Objective model.OptimizationObjective `json:"objective"`
	// Value is the optimizer objective, signed by the objective policy.
	Value     float64                     `json:"objective_value"`
	Schedule  Schedule                    `json:"schedule"`
	Economics Economics                   `json:"economics"`
	Technical Technical                   `json:"technical"`
}

// Analyze extracts the schedule of res and values it. base is the
// catalogue the run was assembled from; its per-mode view is used.
func Analyze(grid model.TimeGrid, net *network.FlowNetwork, res *solver.Result, price []float64, base catalogue.Catalogue) (*Report, error) {
	s, err := Extract(grid, net, res)
	if err != nil {
		return nil, err
	}
	cat := policy.Derive(net.Mode, base).Catalogue
	return &Report{
		Mode:      net.Mode,
		Objective: net.Objective,
		Value:     res.Objective,
		Schedule:  s,
		Economics: ComputeEconomics(s, price, cat),
		Technical: ComputeTechnical(s, cat),
	}, nil
}

// money rounds v to the fen. NaN and infinities read as zero.
func money(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(2)
}

func fraction(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(4)
}

// Summary is the headline of a report with currency amounts rounded.
type Summary struct {
	Rank                 int             `json:"rank,omitempty"`
	Mode                 string          `json:"mode"`
	Objective            string          `json:"objective"`
	ObjectiveValue       decimal.Decimal `json:"objective_value"`
	TotalCost            decimal.Decimal `json:"total_cost_yuan"`
	TotalRevenue         decimal.Decimal `json:"total_revenue_yuan"`
	AncillaryRevenue     decimal.Decimal `json:"ancillary_services_revenue_yuan"`
	NetCost              decimal.Decimal `json:"net_cost_yuan"`
	AverageCostPerMWh    decimal.Decimal `json:"average_cost_yuan_per_mwh"`
	RenewablePenetration decimal.Decimal `json:"renewable_penetration_ratio"`
	SelfSufficiency      decimal.Decimal `json:"self_sufficiency_ratio"`
	MaxImbalance         float64         `json:"max_power_imbalance_mw"`
}

// Summarize condenses r.
func Summarize(r *Report) Summary {
	return Summary{
		Mode:                 r.Mode.String(),
		Objective:            r.Objective.String(),
		ObjectiveValue:       money(r.Value),
		TotalCost:            money(r.Economics.TotalCost),
		TotalRevenue:         money(r.Economics.TotalRevenue),
		AncillaryRevenue:     money(r.Economics.AncillaryRevenue),
		NetCost:              money(r.Economics.NetCost),
		AverageCostPerMWh:    money(r.Economics.AverageCostPerMWh),
		RenewablePenetration: fraction(r.Technical.RenewablePenetration),
		SelfSufficiency:      fraction(r.Technical.SelfSufficiency),
		MaxImbalance:         r.Technical.MaxImbalance,
	}
}

// Entry is one (mode, objective) result fed to Compare. Exactly one of
// Report and Err is set.
type Entry struct {
	Mode      model.SchedulingMode
	Objective model.OptimizationObjective
	Report    *Report
	Err       error
}

// Failure is a run that produced no schedule.
type Failure struct {
	Mode      string `json:"mode"`
	Objective string `json:"objective"`
	Class     string `json:"error_class"`
	Message   string `json:"error"`
}

// Comparison ranks successful runs by net cost, cheapest first.
type Comparison struct {
	Ranked []Summary `json:"ranked"`
	Failed []Failure `json:"failed"`
}

// Compare builds the comparison of entries. Ties keep input order.
func Compare(entries []Entry) Comparison {
	c := Comparison{Ranked: []Summary{}, Failed: []Failure{}}
	for _, e := range entries {
		if e.Err != nil || e.Report == nil {
			f := Failure{Mode: e.Mode.String(), Objective: e.Objective.String(), Class: model.ErrorClass(e.Err)}
			if e.Err != nil {
				f.Message = e.Err.Error()
			}
			c.Failed = append(c.Failed, f)
			continue
		}
		c.Ranked = append(c.Ranked, Summarize(e.Report))
	}
	sort.SliceStable(c.Ranked, func(i, j int) bool {
		return c.Ranked[i].NetCost.LessThan(c.Ranked[j].NetCost)
	})
	for i := range c.Ranked {
		c.Ranked[i].Rank = i + 1
	}
	return c
}

// Best returns the cheapest successful run.
func (c Comparison) Best() (Summary, bool) {
	if len(c.Ranked) == 0 {
		return Summary{}, false
	}
	return c.Ranked[0], true
}

// WriteText prints the ranking as an aligned table.
func (c Comparison) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-20s %-24s %16s %16s %10s\n", "rank", "mode", "objective", "net cost (yuan)", "ancillary (yuan)", "self-suff")
	for _, s := range c.Ranked {
		fmt.Fprintf(&b, "%-4d %-20s %-24s %16s %16s %9s%%\n", s.Rank, s.Mode, s.Objective,
			s.NetCost.StringFixed(2), s.AncillaryRevenue.StringFixed(2), s.SelfSufficiency.Shift(2).StringFixed(1))
	}
	for _, f := range c.Failed {
		fmt.Fprintf(&b, "%-4s %-20s %-24s failed [%s]: %s\n", "-", f.Mode, f.Objective, f.Class, f.Message)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func pct(v float64) string { return fraction(v).Shift(2).StringFixed(1) + "%" }

// WriteText prints the human-readable report of r.
func (r *Report) WriteText(w io.Writer) error {
	s, e, k := r.Schedule, r.Economics, r.Technical
	var b strings.Builder
	line := strings.Repeat("=", 72)
	fmt.Fprintf(&b, "%s\nVPP schedule report: %s / %s\n%s\n", line, r.Mode, r.Objective, line)

	fmt.Fprintf(&b, "\n[horizon]\n")
	fmt.Fprintf(&b, "periods: %d x %gh\n", s.Periods, s.StepHours)
	if s.Periods > 0 {
		times := s.Times()
		fmt.Fprintf(&b, "from %s to %s\n", times[0].Format("2006-01-02 15:04"), times[len(times)-1].Format("2006-01-02 15:04"))
	}

	fmt.Fprintf(&b, "\n[load]\n")
	fmt.Fprintf(&b, "total demand: %.2f MWh\n", k.LoadTotal)
	fmt.Fprintf(&b, "peak: %.2f MW  valley: %.2f MW  load factor: %.3f\n", k.LoadPeak, k.LoadValley, k.LoadFactor)

	fmt.Fprintf(&b, "\n[generation]\n")
	fmt.Fprintf(&b, "pv: %.2f MWh  wind: %.2f MWh  renewable: %.2f MWh\n", k.PVGeneration, k.WindGeneration, k.RenewableTotal)
	fmt.Fprintf(&b, "renewable penetration: %s\n", pct(k.RenewablePenetration))

	fmt.Fprintf(&b, "\n[storage]\n")
	fmt.Fprintf(&b, "charged: %.2f MWh  discharged: %.2f MWh  round trip: %s\n", k.BatteryCharge, k.BatteryDischarge, pct(k.BatteryRoundTrip))

	fmt.Fprintf(&b, "\n[grid]\n")
	fmt.Fprintf(&b, "purchased: %.2f MWh  sold: %.2f MWh  net: %.2f MWh\n", k.GridPurchase, k.GridSale, k.NetGridPurchase)

	if k.AdjustableLoads > 0 {
		fmt.Fprintf(&b, "\n[adjustable loads]\n")
		fmt.Fprintf(&b, "chiller: %.2f MWh  heat pump: %.2f MWh  share of demand: %s\n", k.ChillerConsumption, k.HeatPumpConsumption, pct(k.AdjustableLoadRatio))
	}
	if k.AncillaryTotal > 0 {
		fmt.Fprintf(&b, "\n[ancillary services]\n")
		fmt.Fprintf(&b, "frequency regulation up/down: %.2f / %.2f MW\n", k.FreqRegUpAvg, k.FreqRegDownAvg)
		fmt.Fprintf(&b, "spinning reserve up/down: %.2f / %.2f MW\n", k.SpinReserveUpAvg, k.SpinReserveDownAvg)
		fmt.Fprintf(&b, "participation: %s of battery power\n", pct(k.AncillaryParticipation))
	}

	fmt.Fprintf(&b, "\n[economics]\n")
	fmt.Fprintf(&b, "total cost: %s yuan\n", money(e.TotalCost).StringFixed(2))
	if e.AncillaryRevenue > 0 {
		fmt.Fprintf(&b, "ancillary revenue: %s yuan\n", money(e.AncillaryRevenue).StringFixed(2))
	}
	fmt.Fprintf(&b, "total revenue: %s yuan\n", money(e.TotalRevenue).StringFixed(2))
	fmt.Fprintf(&b, "net cost: %s yuan\n", money(e.NetCost).StringFixed(2))
	fmt.Fprintf(&b, "average price: %.2f yuan/MWh  average supply cost: %.2f yuan/MWh\n", e.AveragePrice, e.AverageCostPerMWh)

	fmt.Fprintf(&b, "\n[performance]\n")
	fmt.Fprintf(&b, "self-sufficiency: %s\n", pct(k.SelfSufficiency))
	fmt.Fprintf(&b, "power imbalance max/avg: %.6f / %.6f MW\n", k.MaxImbalance, k.AverageImbalance)
	fmt.Fprintf(&b, "supply flexibility index: %.3f\n", k.FlexibilityIndex)
	fmt.Fprintf(&b, "%s\n", line)

	_, err := io.WriteString(w, b.String())
	return err
}
