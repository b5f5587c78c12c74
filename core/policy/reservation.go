package policy

import "math"

// Reservation holds the capacity reservation policy for ancillary services
// sold from the battery. The shares and the floor are policy defaults, not
// physical constants, and can be overridden from configuration.
type Reservation struct {
	FrequencyShare float64 `json:"frequency_share"`
	SpinningShare  float64 `json:"spinning_share"`
	FloorRatio     float64 `json:"floor_ratio"`
}

// DefaultReservation returns 0.5 × frequency regulation, 0.3 × spinning
// reserve and a 60% floor.
func DefaultReservation() Reservation {
	return Reservation{FrequencyShare: 0.5, SpinningShare: 0.3, FloorRatio: 0.6}
}

// SetDefaults fills unset fields with the default policy.
func (r *Reservation) SetDefaults() {
	d := DefaultReservation()
	if r.FrequencyShare == 0 {
		r.FrequencyShare = d.FrequencyShare
	}
	if r.SpinningShare == 0 {
		r.SpinningShare = d.SpinningShare
	}
	if r.FloorRatio == 0 {
		r.FloorRatio = d.FloorRatio
	}
}

// Available returns the power left for energy arbitrage when freqMW of
// frequency regulation and spinMW of spinning reserve are reserved. Pass 0
// for a disabled service.
func (r Reservation) Available(nominal, freqMW, spinMW float64) float64 {
	raw := nominal - r.FrequencyShare*freqMW - r.SpinningShare*spinMW
	return math.Max(raw, r.FloorRatio*nominal)
}
