package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TimeGrid is an ordered sequence of equal-length periods. It is immutable
// once created; accessors return copies.
type TimeGrid struct {
	start   time.Time
	step    time.Duration
	periods int
}

// NewTimeGrid builds a grid of periods steps starting at start.
func NewTimeGrid(start time.Time, periods int, step time.Duration) (TimeGrid, error) {
	if periods <= 0 {
		return TimeGrid{}, errors.New("periods must be positive")
	}
	if step <= 0 {
		return TimeGrid{}, errors.New("step must be positive")
	}
	return TimeGrid{start: start, step: step, periods: periods}, nil
}

// HourlyGrid is a convenience constructor for hourly horizons.
func HourlyGrid(start time.Time, periods int) TimeGrid {
	g, err := NewTimeGrid(start, periods, time.Hour)
	if err != nil {
		return TimeGrid{}
	}
	return g
}

// Periods returns the number of periods.
func (g TimeGrid) Periods() int { return g.periods }

// Step returns the period length.
func (g TimeGrid) Step() time.Duration { return g.step }

// Start returns the start of the first period.
func (g TimeGrid) Start() time.Time { return g.start }

// Hours returns the period duration in hours, used to turn MW into MWh.
func (g TimeGrid) Hours() float64 { return g.step.Hours() }

// At returns the start time of period i.
func (g TimeGrid) At(i int) time.Time { return g.start.Add(time.Duration(i) * g.step) }

// Times returns the start time of every period.
func (g TimeGrid) Times() []time.Time {
	out := make([]time.Time, g.periods)
	for i := range out {
		out[i] = g.At(i)
	}
	return out
}

// ResourceSeries holds the four aligned input series of a run, in MW and
// yuan/MWh.
type ResourceSeries struct {
	Load  []float64 `json:"load_demand_mw"`
	PV    []float64 `json:"pv_generation_mw"`
	Wind  []float64 `json:"wind_generation_mw"`
	Price []float64 `json:"electricity_price_yuan_mwh"`
}

// Len returns the length of the load series.
func (s ResourceSeries) Len() int { return len(s.Load) }

// Validate checks alignment with the grid and the sign constraints. NaN and
// infinite values are rejected.
func (s ResourceSeries) Validate(grid TimeGrid) error {
	p := grid.Periods()
	named := []struct {
		name string
		data []float64
	}{
		{"load_demand_mw", s.Load},
		{"pv_generation_mw", s.PV},
		{"wind_generation_mw", s.Wind},
		{"electricity_price_yuan_mwh", s.Price},
	}
	for _, n := range named {
		if len(n.data) != p {
			return fmt.Errorf("%s has %d values, time grid has %d periods", n.name, len(n.data), p)
		}
	}
	for _, n := range named {
		for t, v := range n.data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s[%d] is not finite: %g", n.name, t, v)
			}
		}
	}
	for _, n := range named[:3] {
		for t, v := range n.data {
			if v < 0 {
				return fmt.Errorf("%s[%d] is negative: %g", n.name, t, v)
			}
		}
	}
	for t, v := range s.Price {
		if v <= 0 {
			return fmt.Errorf("electricity_price_yuan_mwh[%d] must be positive: %g", t, v)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can hand series to other goroutines.
func (s ResourceSeries) Clone() ResourceSeries {
	return ResourceSeries{
		Load:  append([]float64(nil), s.Load...),
		PV:    append([]float64(nil), s.PV...),
		Wind:  append([]float64(nil), s.Wind...),
		Price: append([]float64(nil), s.Price...),
	}
}
