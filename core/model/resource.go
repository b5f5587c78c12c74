package model

// ResourceKind identifies a resource type of the catalogue.
type ResourceKind int

const (
	ResourcePV ResourceKind = iota
	ResourceWind
	ResourceGasTurbine
	ResourceBattery
	ResourceChiller
	ResourceHeatPump
	ResourceGrid
	ResourceFrequencyRegulation
	ResourceSpinningReserve
	// ResourceLoad tags the fixed demand sink. It is not a catalogue entry.
	ResourceLoad
)

var resourceNames = [...]string{
	ResourcePV:                  "photovoltaic",
	ResourceWind:                "wind",
	ResourceGasTurbine:          "gas_turbine",
	ResourceBattery:             "battery_storage",
	ResourceChiller:             "chiller",
	ResourceHeatPump:            "heat_pump",
	ResourceGrid:                "grid_connection",
	ResourceFrequencyRegulation: "frequency_regulation",
	ResourceSpinningReserve:     "spinning_reserve",
	ResourceLoad:                "load_demand",
}

// AllResourceKinds lists every catalogue kind in declaration order.
func AllResourceKinds() []ResourceKind {
	out := make([]ResourceKind, ResourceLoad)
	for i := range out {
		out[i] = ResourceKind(i)
	}
	return out
}

func (k ResourceKind) String() string {
	if k < 0 || int(k) >= len(resourceNames) {
		return "unknown"
	}
	return resourceNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k ResourceKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Ancillary reports whether the kind is an ancillary capacity service.
func (k ResourceKind) Ancillary() bool {
	return k == ResourceFrequencyRegulation || k == ResourceSpinningReserve
}

// Node labels shared by the assembler, the solver backends and the
// result consumers.
const (
	LabelBus             = "bus_electricity"
	LabelLoad            = "load_demand"
	LabelPV              = "pv_source"
	LabelWind            = "wind_source"
	LabelGasTurbine      = "gas_turbine"
	LabelBattery         = "battery_storage"
	LabelFreqRegUp       = "freq_reg_up_service"
	LabelFreqRegDown     = "freq_reg_down_service"
	LabelSpinReserveUp   = "spin_reserve_up_service"
	LabelSpinReserveDown = "spin_reserve_down_service"
	LabelChiller         = "chiller_load"
	LabelHeatPump        = "heat_pump_load"
	LabelGridImport      = "grid_source"
	LabelGridExport      = "grid_sink"
)
