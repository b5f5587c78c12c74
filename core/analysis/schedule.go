package analysis

import (
	"fmt"
	"time"

	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/network"
	"github.com/kilianp07/vpp/core/solver"
)

// Schedule is the solved dispatch of one run, one value per period in MW.
// Resources absent from the network read as zeros. Charge and discharge
// are both non-negative; Level is the battery content in MWh.
type Schedule struct {
	Start     time.Time `json:"start"`
	StepHours float64   `json:"step_hours"`
	Periods   int       `json:"periods"`

	Load            []float64 `json:"load_demand_mw"`
	PV              []float64 `json:"pv_generation_mw"`
	Wind            []float64 `json:"wind_generation_mw"`
	Gas             []float64 `json:"gas_generation_mw"`
	Charge          []float64 `json:"battery_charge_mw"`
	Discharge       []float64 `json:"battery_discharge_mw"`
	Level           []float64 `json:"battery_level_mwh"`
	GridPurchase    []float64 `json:"grid_purchase_mw"`
	GridSale        []float64 `json:"grid_sale_mw"`
	Chiller         []float64 `json:"chiller_load_mw"`
	HeatPump        []float64 `json:"heat_pump_load_mw"`
	FreqRegUp       []float64 `json:"freq_reg_up_mw"`
	FreqRegDown     []float64 `json:"freq_reg_down_mw"`
	SpinReserveUp   []float64 `json:"spin_reserve_up_mw"`
	SpinReserveDown []float64 `json:"spin_reserve_down_mw"`

	BatteryNet     []float64 `json:"battery_net_mw"`
	TotalRenewable []float64 `json:"total_renewable_mw"`
	GridNet        []float64 `json:"grid_net_mw"`
	TotalSupply    []float64 `json:"total_supply_mw"`
	PowerBalance   []float64 `json:"power_balance_mw"`
}

// Column is one named series of a schedule.
type Column struct {
	Name   string
	Values []float64
}

// Columns returns the series in a stable order, derived series last.
func (s Schedule) Columns() []Column {
	return []Column{
		{"load_demand_mw", s.Load},
		{"pv_generation_mw", s.PV},
		{"wind_generation_mw", s.Wind},
		{"gas_generation_mw", s.Gas},
		{"battery_charge_mw", s.Charge},
		{"battery_discharge_mw", s.Discharge},
		{"battery_level_mwh", s.Level},
		{"grid_purchase_mw", s.GridPurchase},
		{"grid_sale_mw", s.GridSale},
		{"chiller_load_mw", s.Chiller},
		{"heat_pump_load_mw", s.HeatPump},
		{"freq_reg_up_mw", s.FreqRegUp},
		{"freq_reg_down_mw", s.FreqRegDown},
		{"spin_reserve_up_mw", s.SpinReserveUp},
		{"spin_reserve_down_mw", s.SpinReserveDown},
		{"battery_net_mw", s.BatteryNet},
		{"total_renewable_mw", s.TotalRenewable},
		{"grid_net_mw", s.GridNet},
		{"total_supply_mw", s.TotalSupply},
		{"power_balance_mw", s.PowerBalance},
	}
}

// Times returns the start of every period.
func (s Schedule) Times() []time.Time {
	step := time.Duration(s.StepHours * float64(time.Hour))
	out := make([]time.Time, s.Periods)
	for i := range out {
		out[i] = s.Start.Add(time.Duration(i) * step)
	}
	return out
}

// Extract reads the solved flows of net out of res. The result never
// aliases res.
func Extract(grid model.TimeGrid, net *network.FlowNetwork, res *solver.Result) (Schedule, error) {
	if net == nil || res == nil {
		return Schedule{}, fmt.Errorf("extract: nil network or result")
	}
	p := net.Periods
	if grid.Periods() != p {
		return Schedule{}, fmt.Errorf("extract: time grid has %d periods, network has %d", grid.Periods(), p)
	}
	col := func(label string) []float64 {
		out := make([]float64, p)
		copy(out, res.Flow(label))
		return out
	}
	s := Schedule{
		Start:           grid.Start(),
		StepHours:       net.StepHours,
		Periods:         p,
		Load:            col(model.LabelLoad),
		PV:              col(model.LabelPV),
		Wind:            col(model.LabelWind),
		Gas:             col(model.LabelGasTurbine),
		GridPurchase:    col(model.LabelGridImport),
		GridSale:        col(model.LabelGridExport),
		Chiller:         col(model.LabelChiller),
		HeatPump:        col(model.LabelHeatPump),
		FreqRegUp:       col(model.LabelFreqRegUp),
		FreqRegDown:     col(model.LabelFreqRegDown),
		SpinReserveUp:   col(model.LabelSpinReserveUp),
		SpinReserveDown: col(model.LabelSpinReserveDown),
		Charge:          make([]float64, p),
		Discharge:       make([]float64, p),
		Level:           make([]float64, p),
	}
	if res.Storage != nil {
		copy(s.Charge, res.Storage.Charge)
		copy(s.Discharge, res.Storage.Discharge)
		copy(s.Level, res.Storage.Level)
	}
	s.derive()
	return s, nil
}

// derive fills the aggregate series. Upward ancillary capacity is modelled
// as a sink and downward capacity as a source, so both enter the balance.
func (s *Schedule) derive() {
	p := s.Periods
	s.BatteryNet = make([]float64, p)
	s.TotalRenewable = make([]float64, p)
	s.GridNet = make([]float64, p)
	s.TotalSupply = make([]float64, p)
	s.PowerBalance = make([]float64, p)
	for t := 0; t < p; t++ {
		s.BatteryNet[t] = s.Discharge[t] - s.Charge[t]
		s.TotalRenewable[t] = s.PV[t] + s.Wind[t]
		s.GridNet[t] = s.GridPurchase[t] - s.GridSale[t]
		ancillary := s.FreqRegDown[t] + s.SpinReserveDown[t] - s.FreqRegUp[t] - s.SpinReserveUp[t]
		s.TotalSupply[t] = s.TotalRenewable[t] + s.Gas[t] + s.BatteryNet[t] + s.GridNet[t] + ancillary
		demand := s.Load[t] + s.Chiller[t] + s.HeatPump[t]
		s.PowerBalance[t] = s.TotalSupply[t] - demand
	}
}
