package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/vpp/core/catalogue"
)

// defaultSaleRatio applies when the catalogue carries no sale ratio.
const defaultSaleRatio = 0.95

// Economics is the cost breakdown of a schedule in yuan, valued at the raw
// catalogue prices whatever the objective was.
type Economics struct {
	PVCost              float64 `json:"pv_cost_yuan"`
	WindCost            float64 `json:"wind_cost_yuan"`
	RenewableCost       float64 `json:"renewable_cost_yuan"`
	GasCost             float64 `json:"gas_cost_yuan"`
	BatteryChargeCost   float64 `json:"battery_charge_cost_yuan"`
	BatteryDischarge    float64 `json:"battery_discharge_cost_yuan"`
	BatteryCost         float64 `json:"battery_total_cost_yuan"`
	ChillerCost         float64 `json:"chiller_cost_yuan"`
	HeatPumpCost        float64 `json:"heat_pump_cost_yuan"`
	AdjustableLoadsCost float64 `json:"adjustable_loads_cost_yuan"`

	FreqRegUpRevenue       float64 `json:"freq_reg_up_revenue_yuan"`
	FreqRegDownRevenue     float64 `json:"freq_reg_down_revenue_yuan"`
	SpinReserveUpRevenue   float64 `json:"spin_reserve_up_revenue_yuan"`
	SpinReserveDownRevenue float64 `json:"spin_reserve_down_revenue_yuan"`
	AncillaryRevenue       float64 `json:"ancillary_services_revenue_yuan"`

	GridPurchaseCost float64 `json:"grid_purchase_cost_yuan"`
	GridSaleRevenue  float64 `json:"grid_sale_revenue_yuan"`

	GenerationCost    float64 `json:"total_generation_cost_yuan"`
	TotalCost         float64 `json:"total_cost_yuan"`
	TotalRevenue      float64 `json:"total_revenue_yuan"`
	NetCost           float64 `json:"net_cost_yuan"`
	AverageCostPerMWh float64 `json:"average_cost_yuan_per_mwh"`
	AveragePrice      float64 `json:"average_electricity_price_yuan_mwh"`
}

// energy integrates a power series over the schedule step.
func (s Schedule) energy(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Sum(x) * s.StepHours
}

// ComputeEconomics values s with the prices of cat. cat should be the view
// of the run's mode so that only enabled ancillary services earn revenue.
// A price series that does not match the schedule is replaced by its mean.
func ComputeEconomics(s Schedule, price []float64, cat catalogue.Catalogue) Economics {
	er := cat.EnergyResources
	al := cat.AdjustableLoads
	var e Economics

	e.PVCost = s.energy(s.PV) * er.Photovoltaic.VariableCost
	e.WindCost = s.energy(s.Wind) * er.Wind.VariableCost
	e.RenewableCost = e.PVCost + e.WindCost
	e.GasCost = s.energy(s.Gas) * er.GasTurbine.VariableCost
	e.BatteryChargeCost = s.energy(s.Charge) * er.Battery.ChargeCost
	e.BatteryDischarge = s.energy(s.Discharge) * er.Battery.DischargeCost
	e.BatteryCost = e.BatteryChargeCost + e.BatteryDischarge
	e.ChillerCost = s.energy(s.Chiller) * al.Chiller.OperatingCost
	e.HeatPumpCost = s.energy(s.HeatPump) * al.HeatPump.OperatingCost
	e.AdjustableLoadsCost = e.ChillerCost + e.HeatPumpCost

	if fr := er.Battery.Ancillary.FrequencyRegulation; fr.Enable {
		e.FreqRegUpRevenue = s.energy(s.FreqRegUp) * fr.UpPrice
		e.FreqRegDownRevenue = s.energy(s.FreqRegDown) * fr.DownPrice
	}
	if sr := er.Battery.Ancillary.SpinningReserve; sr.Enable {
		e.SpinReserveUpRevenue = s.energy(s.SpinReserveUp) * sr.UpPrice
		e.SpinReserveDownRevenue = s.energy(s.SpinReserveDown) * sr.DownPrice
	}
	e.AncillaryRevenue = e.FreqRegUpRevenue + e.FreqRegDownRevenue + e.SpinReserveUpRevenue + e.SpinReserveDownRevenue

	ratio := cat.Grid.SalePriceRatio
	if ratio <= 0 {
		ratio = defaultSaleRatio
	}
	if len(price) > 0 {
		e.AveragePrice = stat.Mean(price, nil)
	}
	if len(price) == s.Periods && s.Periods > 0 {
		e.GridPurchaseCost = floats.Dot(s.GridPurchase, price) * s.StepHours
		e.GridSaleRevenue = floats.Dot(s.GridSale, price) * s.StepHours * ratio
	} else {
		e.GridPurchaseCost = s.energy(s.GridPurchase) * e.AveragePrice
		e.GridSaleRevenue = s.energy(s.GridSale) * e.AveragePrice * ratio
	}

	e.GenerationCost = e.RenewableCost + e.GasCost + e.BatteryCost + e.AdjustableLoadsCost
	e.TotalCost = e.GenerationCost + e.GridPurchaseCost
	e.TotalRevenue = e.GridSaleRevenue + e.AncillaryRevenue
	e.NetCost = e.TotalCost - e.TotalRevenue
	if demand := s.energy(s.Load); demand > 0 {
		e.AverageCostPerMWh = e.NetCost / demand
	}
	return e
}
