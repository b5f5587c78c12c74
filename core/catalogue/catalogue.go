package catalogue

// RenewableDefinition describes a PV or wind plant. The capacity only
// scales synthetic profiles; assembly sizes the source from the series.
type RenewableDefinition struct {
	CapacityMW   float64 `json:"capacity_mw"`
	VariableCost float64 `json:"variable_cost_yuan_mwh"`
}

// GasTurbineDefinition describes the dispatchable thermal unit.
type GasTurbineDefinition struct {
	CapacityMW     float64 `json:"capacity_mw"`
	VariableCost   float64 `json:"variable_cost_yuan_mwh"`
	MinOutputRatio float64 `json:"min_output_ratio"`
}

// ServiceDefinition is one ancillary capacity product sold from the battery.
type ServiceDefinition struct {
	Enable        bool    `json:"enable"`
	MaxCapacityMW float64 `json:"max_capacity_mw"`
	UpPrice       float64 `json:"up_price_yuan_mw"`
	DownPrice     float64 `json:"down_price_yuan_mw"`
}

// AncillaryDefinition groups the services the battery can offer.
type AncillaryDefinition struct {
	FrequencyRegulation ServiceDefinition `json:"frequency_regulation"`
	SpinningReserve     ServiceDefinition `json:"spinning_reserve"`
}

// AnyEnabled reports whether at least one service is switched on.
func (a AncillaryDefinition) AnyEnabled() bool {
	return a.FrequencyRegulation.Enable || a.SpinningReserve.Enable
}

// BatteryDefinition holds the storage parameters. SOC values are fractions
// of the energy capacity.
type BatteryDefinition struct {
	PowerCapacityMW     float64             `json:"power_capacity_mw"`
	EnergyCapacityMWh   float64             `json:"energy_capacity_mwh"`
	ChargeEfficiency    float64             `json:"charge_efficiency"`
	DischargeEfficiency float64             `json:"discharge_efficiency"`
	SelfDischargeRate   float64             `json:"self_discharge_rate"`
	InitialSOC          float64             `json:"initial_soc"`
	MinSOC              float64             `json:"min_soc"`
	MaxSOC              float64             `json:"max_soc"`
	ChargeCost          float64             `json:"charge_cost_yuan_mwh"`
	DischargeCost       float64             `json:"discharge_cost_yuan_mwh"`
	Ancillary           AncillaryDefinition `json:"ancillary_services"`
}

// AdjustableLoadDefinition describes a flexible consumer such as a chiller
// or a heat pump.
type AdjustableLoadDefinition struct {
	RatedPowerMW  float64 `json:"rated_power_mw"`
	MinPowerRatio float64 `json:"min_power_ratio"`
	MaxPowerRatio float64 `json:"max_power_ratio"`
	Efficiency    float64 `json:"efficiency,omitempty"`
	COP           float64 `json:"cop,omitempty"`
	OperatingCost float64 `json:"operating_cost_yuan_mwh"`
}

// EnergyResources groups generation and storage definitions.
type EnergyResources struct {
	Photovoltaic RenewableDefinition  `json:"photovoltaic"`
	Wind         RenewableDefinition  `json:"wind"`
	GasTurbine   GasTurbineDefinition `json:"gas_turbine"`
	Battery      BatteryDefinition    `json:"battery_storage"`
}

// AdjustableLoads groups the flexible consumers.
type AdjustableLoads struct {
	Chiller  AdjustableLoadDefinition `json:"chiller"`
	HeatPump AdjustableLoadDefinition `json:"heat_pump"`
}

// GridDefinition bounds the exchange with the public grid.
type GridDefinition struct {
	MaxPurchaseMW  float64 `json:"max_purchase_mw"`
	MaxSaleMW      float64 `json:"max_sale_mw"`
	SalePriceRatio float64 `json:"sale_price_ratio"`
}

// Catalogue is the full resource definition table. It contains no maps or
// slices, so a plain assignment yields an independent copy.
type Catalogue struct {
	EnergyResources EnergyResources `json:"energy_resources"`
	AdjustableLoads AdjustableLoads `json:"adjustable_loads"`
	Grid            GridDefinition  `json:"grid_connection"`
}

// Default returns the reference portfolio. Ancillary services are priced
// but disabled; configuration switches them on.
func Default() Catalogue {
	return Catalogue{
		EnergyResources: EnergyResources{
			Photovoltaic: RenewableDefinition{CapacityMW: 50, VariableCost: 5},
			Wind:         RenewableDefinition{CapacityMW: 30, VariableCost: 8},
			GasTurbine:   GasTurbineDefinition{CapacityMW: 100, VariableCost: 600, MinOutputRatio: 0.3},
			Battery: BatteryDefinition{
				PowerCapacityMW:     50,
				EnergyCapacityMWh:   200,
				ChargeEfficiency:    0.95,
				DischargeEfficiency: 0.95,
				SelfDischargeRate:   0.001,
				InitialSOC:          0.5,
				MinSOC:              0.2,
				MaxSOC:              0.9,
				ChargeCost:          10,
				DischargeCost:       15,
				Ancillary: AncillaryDefinition{
					FrequencyRegulation: ServiceDefinition{MaxCapacityMW: 20, UpPrice: 80, DownPrice: 70},
					SpinningReserve:     ServiceDefinition{MaxCapacityMW: 15, UpPrice: 60, DownPrice: 50},
				},
			},
		},
		AdjustableLoads: AdjustableLoads{
			Chiller:  AdjustableLoadDefinition{RatedPowerMW: 20, MinPowerRatio: 0.3, MaxPowerRatio: 1.0, Efficiency: 0.85, OperatingCost: 50},
			HeatPump: AdjustableLoadDefinition{RatedPowerMW: 15, MinPowerRatio: 0.2, MaxPowerRatio: 1.0, COP: 3.5, OperatingCost: 40},
		},
		Grid: GridDefinition{MaxPurchaseMW: 1000, MaxSaleMW: 500, SalePriceRatio: 0.95},
	}
}
