package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/vpp/core/catalogue"
)

// Technical holds the operational KPIs of a schedule. Energies are in MWh,
// powers in MW and ratios are fractions.
type Technical struct {
	LoadPeak    float64 `json:"load_peak_mw"`
	LoadValley  float64 `json:"load_valley_mw"`
	LoadAverage float64 `json:"load_average_mw"`
	LoadTotal   float64 `json:"load_total_mwh"`
	LoadFactor  float64 `json:"load_factor"`

	PVGeneration         float64 `json:"pv_generation_mwh"`
	WindGeneration       float64 `json:"wind_generation_mwh"`
	RenewableTotal       float64 `json:"total_renewable_mwh"`
	RenewablePenetration float64 `json:"renewable_penetration_ratio"`

	BatteryCharge    float64 `json:"battery_charge_mwh"`
	BatteryDischarge float64 `json:"battery_discharge_mwh"`
	BatteryRoundTrip float64 `json:"battery_round_trip_efficiency"`

	GridPurchase    float64 `json:"grid_purchase_mwh"`
	GridSale        float64 `json:"grid_sale_mwh"`
	NetGridPurchase float64 `json:"net_grid_purchase_mwh"`

	ChillerConsumption  float64 `json:"chiller_consumption_mwh"`
	HeatPumpConsumption float64 `json:"heat_pump_consumption_mwh"`
	AdjustableLoads     float64 `json:"total_adjustable_loads_mwh"`
	AdjustableLoadRatio float64 `json:"adjustable_load_ratio"`

	FreqRegUpAvg           float64 `json:"freq_reg_up_avg_mw"`
	FreqRegDownAvg         float64 `json:"freq_reg_down_avg_mw"`
	SpinReserveUpAvg       float64 `json:"spin_reserve_up_avg_mw"`
	SpinReserveDownAvg     float64 `json:"spin_reserve_down_avg_mw"`
	AncillaryTotal         float64 `json:"total_ancillary_services_mw"`
	AncillaryParticipation float64 `json:"ancillary_services_participation_ratio"`

	SelfSufficiency  float64 `json:"self_sufficiency_ratio"`
	MaxImbalance     float64 `json:"max_power_imbalance_mw"`
	AverageImbalance float64 `json:"average_power_imbalance_mw"`
	FlexibilityIndex float64 `json:"supply_flexibility_index"`
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// ComputeTechnical derives the KPIs of s. The ancillary participation is
// measured against the battery power capacity of cat.
func ComputeTechnical(s Schedule, cat catalogue.Catalogue) Technical {
	var k Technical
	if s.Periods == 0 {
		return k
	}

	k.LoadPeak = floats.Max(s.Load)
	k.LoadValley = floats.Min(s.Load)
	k.LoadAverage = mean(s.Load)
	k.LoadTotal = s.energy(s.Load)
	k.LoadFactor = ratio(k.LoadAverage, k.LoadPeak)

	k.PVGeneration = s.energy(s.PV)
	k.WindGeneration = s.energy(s.Wind)
	k.RenewableTotal = k.PVGeneration + k.WindGeneration
	gas := s.energy(s.Gas)
	k.RenewablePenetration = ratio(k.RenewableTotal, k.RenewableTotal+gas)

	k.BatteryCharge = s.energy(s.Charge)
	k.BatteryDischarge = s.energy(s.Discharge)
	k.BatteryRoundTrip = ratio(k.BatteryDischarge, k.BatteryCharge)

	k.GridPurchase = s.energy(s.GridPurchase)
	k.GridSale = s.energy(s.GridSale)
	k.NetGridPurchase = k.GridPurchase - k.GridSale

	k.ChillerConsumption = s.energy(s.Chiller)
	k.HeatPumpConsumption = s.energy(s.HeatPump)
	k.AdjustableLoads = k.ChillerConsumption + k.HeatPumpConsumption
	k.AdjustableLoadRatio = ratio(k.AdjustableLoads, k.LoadTotal)

	k.FreqRegUpAvg = mean(s.FreqRegUp)
	k.FreqRegDownAvg = mean(s.FreqRegDown)
	k.SpinReserveUpAvg = mean(s.SpinReserveUp)
	k.SpinReserveDownAvg = mean(s.SpinReserveDown)
	k.AncillaryTotal = k.FreqRegUpAvg + k.FreqRegDownAvg + k.SpinReserveUpAvg + k.SpinReserveDownAvg
	k.AncillaryParticipation = ratio(k.AncillaryTotal, cat.EnergyResources.Battery.PowerCapacityMW)

	if k.LoadTotal > 0 {
		k.SelfSufficiency = math.Min((k.RenewableTotal+gas)/k.LoadTotal, 1)
	}

	abs := make([]float64, len(s.PowerBalance))
	for i, v := range s.PowerBalance {
		abs[i] = math.Abs(v)
	}
	if len(abs) > 0 {
		k.MaxImbalance = floats.Max(abs)
		k.AverageImbalance = mean(abs)
	}

	if s.Periods > 1 {
		k.FlexibilityIndex = ratio(stat.StdDev(s.TotalSupply, nil), stat.StdDev(s.Load, nil))
	}
	return k
}
