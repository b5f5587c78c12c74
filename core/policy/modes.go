package policy

import (
	"encoding/json"

	"github.com/kilianp07/vpp/core/catalogue"
	"github.com/kilianp07/vpp/core/model"
)

// ResourceInclusionSet records which resource groups a mode schedules.
// Fields are unexported so a set obtained from ResourcesFor cannot be
// altered by its holder. Grid exchange is always included.
type ResourceInclusionSet struct {
	pv         bool
	wind       bool
	gas        bool
	battery    bool
	adjustable bool
	ancillary  bool
}

// modeTable is built once at package initialisation and only read after.
var modeTable = map[model.SchedulingMode]ResourceInclusionSet{
	model.ModeRenewableStorage:  {pv: true, wind: true, battery: true},
	model.ModeAdjustableStorage: {battery: true, adjustable: true},
	model.ModeTraditional:       {pv: true, wind: true, gas: true, battery: true, adjustable: true},
	model.ModeNoRenewable:       {gas: true, battery: true, adjustable: true},
	model.ModeStorageOnly:       {battery: true},
	model.ModeFullSystem:        {pv: true, wind: true, gas: true, battery: true, adjustable: true, ancillary: true},
}

// ResourcesFor returns the inclusion set of mode. Unknown values yield a
// set holding only the grid exchange.
func ResourcesFor(mode model.SchedulingMode) ResourceInclusionSet {
	return modeTable[mode]
}

// Includes reports whether kind takes part in the mode. Ancillary kinds
// report whether the mode permits them; the catalogue still decides
// whether they are enabled.
func (s ResourceInclusionSet) Includes(kind model.ResourceKind) bool {
	switch kind {
	case model.ResourcePV:
		return s.pv
	case model.ResourceWind:
		return s.wind
	case model.ResourceGasTurbine:
		return s.gas
	case model.ResourceBattery:
		return s.battery
	case model.ResourceChiller, model.ResourceHeatPump:
		return s.adjustable
	case model.ResourceGrid:
		return true
	case model.ResourceFrequencyRegulation, model.ResourceSpinningReserve:
		return s.ancillary
	default:
		return false
	}
}

// PV reports whether the photovoltaic source is part of the network.
func (s ResourceInclusionSet) PV() bool { return s.pv }

// Wind reports whether the wind source is part of the network.
func (s ResourceInclusionSet) Wind() bool { return s.wind }

// Gas reports whether the gas turbine is part of the network.
func (s ResourceInclusionSet) Gas() bool { return s.gas }

// Battery reports whether the battery storage is part of the network.
func (s ResourceInclusionSet) Battery() bool { return s.battery }

// AdjustableLoads reports whether the chiller and heat pump are included.
func (s ResourceInclusionSet) AdjustableLoads() bool { return s.adjustable }

// AncillaryAllowed reports whether the battery may offer ancillary
// services. The services still need to be enabled in the catalogue.
func (s ResourceInclusionSet) AncillaryAllowed() bool { return s.ancillary }

// Kinds lists the included kinds in catalogue order.
func (s ResourceInclusionSet) Kinds() []model.ResourceKind {
	var out []model.ResourceKind
	for _, k := range model.AllResourceKinds() {
		if s.Includes(k) {
			out = append(out, k)
		}
	}
	return out
}

// Flags returns a fresh map keyed by resource group, for reports.
func (s ResourceInclusionSet) Flags() map[string]bool {
	return map[string]bool{
		"photovoltaic":       s.pv,
		"wind":               s.wind,
		"gas_turbine":        s.gas,
		"battery_storage":    s.battery,
		"adjustable_loads":   s.adjustable,
		"ancillary_services": s.ancillary,
	}
}

// MarshalJSON encodes the set as its flag map.
func (s ResourceInclusionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Flags())
}

// ModeConfig is the catalogue as seen by one mode.
type ModeConfig struct {
	Mode      model.SchedulingMode
	Resources ResourceInclusionSet
	Catalogue catalogue.Catalogue
}

// Derive builds the per-mode view of base. Excluded definitions are zeroed
// and ancillary services are switched off unless the mode permits them.
// base is passed by value and never modified.
func Derive(mode model.SchedulingMode, base catalogue.Catalogue) ModeConfig {
	set := ResourcesFor(mode)
	cat := base.WithCostFallbacks()
	er := &cat.EnergyResources
	if !set.pv {
		er.Photovoltaic = catalogue.RenewableDefinition{}
	}
	if !set.wind {
		er.Wind = catalogue.RenewableDefinition{}
	}
	if !set.gas {
		er.GasTurbine = catalogue.GasTurbineDefinition{}
	}
	if !set.battery {
		er.Battery = catalogue.BatteryDefinition{}
	}
	if !set.adjustable {
		cat.AdjustableLoads = catalogue.AdjustableLoads{}
	}
	if !set.ancillary {
		er.Battery.Ancillary.FrequencyRegulation.Enable = false
		er.Battery.Ancillary.SpinningReserve.Enable = false
	}
	return ModeConfig{Mode: mode, Resources: set, Catalogue: cat}
}

// FrequencyRegulationEnabled reports whether the derived view offers
// frequency regulation.
func (c ModeConfig) FrequencyRegulationEnabled() bool {
	return c.Resources.battery && c.Catalogue.EnergyResources.Battery.Ancillary.FrequencyRegulation.Enable
}

// SpinningReserveEnabled reports whether the derived view offers spinning
// reserve.
func (c ModeConfig) SpinningReserveEnabled() bool {
	return c.Resources.battery && c.Catalogue.EnergyResources.Battery.Ancillary.SpinningReserve.Enable
}

var modeDescriptions = map[model.SchedulingMode]string{
	model.ModeRenewableStorage:  "Renewable + storage: PV, wind and the battery only. Suited to green energy parks.",
	model.ModeAdjustableStorage: "Adjustable loads + storage: chiller, heat pump and the battery. Suited to demand-side management in industrial parks.",
	model.ModeTraditional:       "Traditional dispatch: every resource except ancillary services. Suited to conventional power system scheduling.",
	model.ModeNoRenewable:       "No renewables: gas turbine, battery and adjustable loads. Suited to conventional grid environments.",
	model.ModeStorageOnly:       "Storage only: the battery trades against the grid. Suited to stand-alone storage plant operation.",
	model.ModeFullSystem:        "Full system: every adjustable resource plus configured ancillary services. Suited to integrated energy systems.",
}

// Describe returns the fixed human-readable description of mode.
func Describe(mode model.SchedulingMode) string {
	if d, ok := modeDescriptions[mode]; ok {
		return d
	}
	return "Unknown scheduling mode."
}
