package catalogue

import (
	"github.com/kilianp07/vpp/core/model"
)

// Documented fallbacks for price parameters. Structural parameters never
// fall back.
const (
	FallbackSalePriceRatio   = 0.95
	FallbackFreqRegUpPrice   = 80.0
	FallbackFreqRegDownPrice = 70.0
	FallbackSpinUpPrice      = 60.0
	FallbackSpinDownPrice    = 50.0
)

// WithCostFallbacks returns a copy where unset price parameters take their
// documented fallback value.
func (c Catalogue) WithCostFallbacks() Catalogue {
	out := c
	if out.Grid.SalePriceRatio == 0 {
		out.Grid.SalePriceRatio = FallbackSalePriceRatio
	}
	fr := &out.EnergyResources.Battery.Ancillary.FrequencyRegulation
	if fr.UpPrice == 0 {
		fr.UpPrice = FallbackFreqRegUpPrice
	}
	if fr.DownPrice == 0 {
		fr.DownPrice = FallbackFreqRegDownPrice
	}
	sr := &out.EnergyResources.Battery.Ancillary.SpinningReserve
	if sr.UpPrice == 0 {
		sr.UpPrice = FallbackSpinUpPrice
	}
	if sr.DownPrice == 0 {
		sr.DownPrice = FallbackSpinDownPrice
	}
	return out
}

func missing(kind model.ResourceKind, param string) error {
	return &model.ConfigurationError{Resource: kind, Param: param}
}

func invalid(kind model.ResourceKind, param, reason string) error {
	return &model.ConfigurationError{Resource: kind, Param: param, Reason: reason}
}

// Validate checks the structural parameters of the gas turbine.
func (g GasTurbineDefinition) Validate() error {
	if g.CapacityMW <= 0 {
		return missing(model.ResourceGasTurbine, "capacity_mw")
	}
	if g.MinOutputRatio < 0 || g.MinOutputRatio > 1 {
		return invalid(model.ResourceGasTurbine, "min_output_ratio", "must be within [0, 1]")
	}
	return nil
}

// Validate checks the structural parameters of the battery and of every
// enabled ancillary service.
func (b BatteryDefinition) Validate() error {
	const k = model.ResourceBattery
	switch {
	case b.PowerCapacityMW <= 0:
		return missing(k, "power_capacity_mw")
	case b.EnergyCapacityMWh <= 0:
		return missing(k, "energy_capacity_mwh")
	case b.ChargeEfficiency <= 0:
		return missing(k, "charge_efficiency")
	case b.ChargeEfficiency > 1:
		return invalid(k, "charge_efficiency", "must be within (0, 1]")
	case b.DischargeEfficiency <= 0:
		return missing(k, "discharge_efficiency")
	case b.DischargeEfficiency > 1:
		return invalid(k, "discharge_efficiency", "must be within (0, 1]")
	case b.SelfDischargeRate < 0 || b.SelfDischargeRate >= 1:
		return invalid(k, "self_discharge_rate", "must be within [0, 1)")
	case b.MaxSOC <= 0:
		return missing(k, "max_soc")
	case b.MinSOC < 0 || b.MinSOC > b.MaxSOC || b.MaxSOC > 1:
		return invalid(k, "min_soc", "must satisfy 0 <= min_soc <= max_soc <= 1")
	case b.InitialSOC < b.MinSOC || b.InitialSOC > b.MaxSOC:
		return invalid(k, "initial_soc", "must lie within [min_soc, max_soc]")
	}
	if s := b.Ancillary.FrequencyRegulation; s.Enable && s.MaxCapacityMW <= 0 {
		return missing(model.ResourceFrequencyRegulation, "max_capacity_mw")
	}
	if s := b.Ancillary.SpinningReserve; s.Enable && s.MaxCapacityMW <= 0 {
		return missing(model.ResourceSpinningReserve, "max_capacity_mw")
	}
	return nil
}

func (a AdjustableLoadDefinition) validate(kind model.ResourceKind) error {
	switch {
	case a.RatedPowerMW <= 0:
		return missing(kind, "rated_power_mw")
	case a.MaxPowerRatio <= 0:
		return missing(kind, "max_power_ratio")
	case a.MinPowerRatio < 0 || a.MinPowerRatio > a.MaxPowerRatio:
		return invalid(kind, "min_power_ratio", "must satisfy 0 <= min_power_ratio <= max_power_ratio")
	}
	return nil
}

// Validate checks the exchange limits.
func (g GridDefinition) Validate() error {
	if g.MaxPurchaseMW <= 0 {
		return missing(model.ResourceGrid, "max_purchase_mw")
	}
	if g.MaxSaleMW < 0 {
		return invalid(model.ResourceGrid, "max_sale_mw", "must not be negative")
	}
	return nil
}

// Require validates the definitions of the given kinds. Renewable kinds
// have no structural parameter at assembly time and always pass.
func (c Catalogue) Require(kinds ...model.ResourceKind) error {
	for _, k := range kinds {
		var err error
		switch k {
		case model.ResourceGasTurbine:
			err = c.EnergyResources.GasTurbine.Validate()
		case model.ResourceBattery:
			err = c.EnergyResources.Battery.Validate()
		case model.ResourceChiller:
			err = c.AdjustableLoads.Chiller.validate(model.ResourceChiller)
		case model.ResourceHeatPump:
			err = c.AdjustableLoads.HeatPump.validate(model.ResourceHeatPump)
		case model.ResourceGrid:
			err = c.Grid.Validate()
		}
		if err != nil {
			return err
		}
	}
	return nil
}
