package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/vpp/core/catalogue"
	"github.com/kilianp07/vpp/core/model"
)

func TestResourcesForTable(t *testing.T) {
	type row struct{ pv, wind, gas, battery, adjustable, ancillary bool }
	want := map[model.SchedulingMode]row{
		model.ModeRenewableStorage:  {true, true, false, true, false, false},
		model.ModeAdjustableStorage: {false, false, false, true, true, false},
		model.ModeTraditional:       {true, true, true, true, true, false},
		model.ModeNoRenewable:       {false, false, true, true, true, false},
		model.ModeStorageOnly:       {false, false, false, true, false, false},
		model.ModeFullSystem:        {true, true, true, true, true, true},
	}
	require.Len(t, want, len(model.AllModes()))
	for _, mode := range model.AllModes() {
		set := ResourcesFor(mode)
		got := row{set.PV(), set.Wind(), set.Gas(), set.Battery(), set.AdjustableLoads(), set.AncillaryAllowed()}
		assert.Equal(t, want[mode], got, mode.String())
		assert.True(t, set.Includes(model.ResourceGrid), mode.String())
		assert.Equal(t, set.AdjustableLoads(), set.Includes(model.ResourceChiller))
		assert.Equal(t, set.AdjustableLoads(), set.Includes(model.ResourceHeatPump))
		assert.NotEmpty(t, Describe(mode))
	}
}

func TestResourcesForUnknownMode(t *testing.T) {
	set := ResourcesFor(model.SchedulingMode(42))
	assert.Equal(t, []model.ResourceKind{model.ResourceGrid}, set.Kinds())
	assert.Equal(t, "Unknown scheduling mode.", Describe(model.SchedulingMode(42)))
}

func TestCoefficientsForTable(t *testing.T) {
	cases := []struct {
		obj         model.OptimizationObjective
		dir         Direction
		cost, rev   float64
		anc, grid   float64
		minProfit   float64
		hasMinRatio bool
	}{
		{model.ObjectiveCostMinimization, Minimize, 1, -1, 1, 1, 0, false},
		{model.ObjectiveRevenueMaximization, Maximize, -1, 1, 1, 1, 0, false},
		{model.ObjectiveProfitMaximization, Maximize, -1, 1, 1, 1, 0, false},
		{model.ObjectiveAncillaryRevenueMax, Maximize, -0.1, 1, 2.0, 1, 0, false},
		{model.ObjectiveGridSupportOptimized, MultiObjective, -0.5, 1, 1, 1.5, 0.8, true},
	}
	for _, tc := range cases {
		c := CoefficientsFor(tc.obj)
		assert.Equal(t, tc.dir, c.Direction, tc.obj.String())
		assert.Equal(t, tc.cost, c.CostSign, tc.obj.String())
		assert.Equal(t, tc.rev, c.RevenueSign, tc.obj.String())
		assert.Equal(t, tc.anc, c.AncillaryWeight, tc.obj.String())
		assert.Equal(t, tc.grid, c.GridSupportWeight, tc.obj.String())
		assert.Equal(t, tc.hasMinRatio, c.HasMinProfit(), tc.obj.String())
		if tc.hasMinRatio {
			assert.Equal(t, tc.minProfit, *c.MinProfitRatio)
		}
	}
}

func TestCoefficientsAreNotShared(t *testing.T) {
	a := CoefficientsFor(model.ObjectiveGridSupportOptimized)
	*a.MinProfitRatio = 0.1
	b := CoefficientsFor(model.ObjectiveGridSupportOptimized)
	assert.Equal(t, 0.8, *b.MinProfitRatio)
}

func TestSignRoundTrip(t *testing.T) {
	assert.Equal(t, 100.0, TransformCost(100, CoefficientsFor(model.ObjectiveCostMinimization)))
	assert.Equal(t, -100.0, TransformCost(100, CoefficientsFor(model.ObjectiveRevenueMaximization)))

	anc := CoefficientsFor(model.ObjectiveAncillaryRevenueMax)
	assert.InDelta(t, 160.0, ApplyWeight(TransformRevenue(80, anc), WeightAncillary, anc), 1e-12)

	cost := CoefficientsFor(model.ObjectiveCostMinimization)
	assert.Equal(t, -80.0, ApplyWeight(TransformRevenue(80, cost), WeightAncillary, cost))
	assert.Equal(t, 10.0, ApplyWeight(10, WeightGridSupport, Coefficients{}))
}

func TestReservationExample(t *testing.T) {
	r := DefaultReservation()
	assert.InDelta(t, 35.5, r.Available(50, 20, 15), 1e-12)
	assert.InDelta(t, 30.0, r.Available(50, 60, 15), 1e-12)
	assert.Equal(t, 50.0, r.Available(50, 0, 0))

	var custom Reservation
	custom.SetDefaults()
	assert.Equal(t, r, custom)
}

func TestReservationInvariant(t *testing.T) {
	r := DefaultReservation()
	for _, nominal := range []float64{10, 50, 120} {
		for _, f := range []float64{0, 5, 20, 80} {
			for _, s := range []float64{0, 15, 40} {
				got := r.Available(nominal, f, s)
				want := nominal - 0.5*f - 0.3*s
				if want < 0.6*nominal {
					want = 0.6 * nominal
				}
				assert.InDelta(t, want, got, 1e-9)
			}
		}
	}
}

func TestDeriveStripsAndNeverMutates(t *testing.T) {
	base := catalogue.Default()
	base.EnergyResources.Battery.Ancillary.FrequencyRegulation.Enable = true
	base.EnergyResources.Battery.Ancillary.SpinningReserve.Enable = true
	snapshot := base

	storage := Derive(model.ModeStorageOnly, base)
	assert.False(t, storage.FrequencyRegulationEnabled())
	assert.False(t, storage.SpinningReserveEnabled())
	assert.Zero(t, storage.Catalogue.EnergyResources.GasTurbine.CapacityMW)
	assert.Zero(t, storage.Catalogue.AdjustableLoads.Chiller.RatedPowerMW)
	assert.Equal(t, 200.0, storage.Catalogue.EnergyResources.Battery.EnergyCapacityMWh)

	full := Derive(model.ModeFullSystem, base)
	assert.True(t, full.FrequencyRegulationEnabled())
	assert.True(t, full.SpinningReserveEnabled())
	assert.Equal(t, 100.0, full.Catalogue.EnergyResources.GasTurbine.CapacityMW)

	assert.Equal(t, snapshot, base)
}

func TestDeriveFullSystemRespectsDisabledServices(t *testing.T) {
	full := Derive(model.ModeFullSystem, catalogue.Default())
	assert.False(t, full.FrequencyRegulationEnabled())
	assert.False(t, full.SpinningReserveEnabled())
}

func TestObjectiveDescriptions(t *testing.T) {
	for _, obj := range model.AllObjectives() {
		assert.NotEmpty(t, DescribeObjective(obj))
		assert.NotEmpty(t, ObjectiveExpression(obj))
		for _, mode := range model.AllModes() {
			assert.NotEmpty(t, ObjectiveFunction(mode, obj))
		}
	}
	assert.Contains(t, ObjectiveFunction(model.ModeStorageOnly, model.ObjectiveCostMinimization), "storage operating cost")
}
