package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModeAcceptsVariants(t *testing.T) {
	cases := map[string]SchedulingMode{
		"storage_only":      ModeStorageOnly,
		"STORAGE-ONLY":      ModeStorageOnly,
		" full_system ":     ModeFullSystem,
		"renewable_storage": ModeRenewableStorage,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("nuclear")
	assert.Error(t, err)
}

func TestParseObjectiveDefaultsToCost(t *testing.T) {
	got, err := ParseObjective("")
	require.NoError(t, err)
	assert.Equal(t, ObjectiveCostMinimization, got)

	got, err = ParseObjective("Grid-Support-Optimized")
	require.NoError(t, err)
	assert.Equal(t, ObjectiveGridSupportOptimized, got)
}

func TestModeJSONUsesNames(t *testing.T) {
	b, err := json.Marshal(struct {
		Mode SchedulingMode `json:"mode"`
	}{ModeNoRenewable})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"no_renewable"}`, string(b))

	var out struct {
		Objective OptimizationObjective `json:"objective"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"objective":"profit_maximization"}`), &out))
	assert.Equal(t, ObjectiveProfitMaximization, out.Objective)
}

func TestResourceSeriesValidate(t *testing.T) {
	grid := HourlyGrid(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2)
	ok := ResourceSeries{Load: []float64{1, 2}, PV: []float64{0, 0}, Wind: []float64{0, 1}, Price: []float64{300, 500}}
	assert.NoError(t, ok.Validate(grid))

	short := ok.Clone()
	short.Wind = short.Wind[:1]
	assert.Error(t, short.Validate(grid))

	neg := ok.Clone()
	neg.PV[1] = -1
	assert.Error(t, neg.Validate(grid))

	zeroPrice := ok.Clone()
	zeroPrice.Price[0] = 0
	assert.Error(t, zeroPrice.Validate(grid))
}

func TestResourceSeriesValidateRejectsNonFinite(t *testing.T) {
	grid := HourlyGrid(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2)
	base := ResourceSeries{Load: []float64{1, 2}, PV: []float64{0, 0}, Wind: []float64{0, 1}, Price: []float64{300, 500}}
	tests := []struct {
		name string
		set  func(*ResourceSeries)
		want string
	}{
		{"nan load", func(s *ResourceSeries) { s.Load[1] = math.NaN() }, "load_demand_mw[1]"},
		{"inf pv", func(s *ResourceSeries) { s.PV[0] = math.Inf(1) }, "pv_generation_mw[0]"},
		{"negative inf wind", func(s *ResourceSeries) { s.Wind[1] = math.Inf(-1) }, "wind_generation_mw[1]"},
		{"nan price", func(s *ResourceSeries) { s.Price[0] = math.NaN() }, "electricity_price_yuan_mwh[0]"},
		{"inf price", func(s *ResourceSeries) { s.Price[1] = math.Inf(1) }, "electricity_price_yuan_mwh[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base.Clone()
			tt.set(&s)
			err := s.Validate(grid)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "not finite")
		})
	}
}

func TestTimeGrid(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g, err := NewTimeGrid(start, 4, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0.5, g.Hours())
	assert.Equal(t, start.Add(90*time.Minute), g.At(3))
	assert.Len(t, g.Times(), 4)

	_, err = NewTimeGrid(start, 0, time.Hour)
	assert.Error(t, err)
}

func TestErrorTaxonomy(t *testing.T) {
	cfgErr := &ConfigurationError{Resource: ResourceBattery, Param: "energy_capacity_mwh"}
	wrapped := fmt.Errorf("assemble: %w", Annotate(cfgErr, ModeStorageOnly, ObjectiveCostMinimization))

	assert.True(t, errors.Is(wrapped, ErrConfiguration))
	assert.False(t, Retryable(wrapped))
	assert.Contains(t, wrapped.Error(), "battery_storage.energy_capacity_mwh")
	assert.Contains(t, wrapped.Error(), "mode=storage_only")
	assert.Equal(t, "configuration", ErrorClass(wrapped))

	timeout := &SolverTimeoutError{Attempts: 3, TimeLimit: time.Second}
	assert.True(t, Retryable(timeout))
	assert.Equal(t, "timeout", ErrorClass(timeout))

	inf := &InfeasibleModelError{Err: errors.New("lp: infeasible")}
	assert.False(t, Retryable(inf))
	assert.True(t, errors.Is(inf, ErrInfeasible))

	un := &SolverUnavailableError{Solver: "cbc"}
	assert.Equal(t, "solver_unavailable", ErrorClass(un))
	assert.Equal(t, "internal", ErrorClass(errors.New("boom")))
}
