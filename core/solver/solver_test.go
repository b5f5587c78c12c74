package solver

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/vpp/core/factory"
	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/network"
)

// scripted returns the queued errors in order, then succeeds.
type scripted struct {
	mu    sync.Mutex
	errs  []error
	calls []Options
	res   func(*network.FlowNetwork) *Result
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) Solve(_ context.Context, net *network.FlowNetwork, opts Options) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, opts)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if s.res != nil {
		return s.res(net), nil
	}
	return balanced(net), nil
}

func tinyNetwork() *network.FlowNetwork {
	cost := []float64{1, 1}
	return &network.FlowNetwork{
		Mode:      model.ModeStorageOnly,
		Objective: model.ObjectiveCostMinimization,
		Periods:   2,
		StepHours: 1,
		Bus:       network.Bus{Label: model.LabelBus},
		Sources: []network.Source{
			{Label: model.LabelGridImport, Kind: model.ResourceGrid, Flow: network.Flow{NominalValue: 100, Max: 1, VariableCosts: cost}},
		},
		Sinks: []network.Sink{
			{Label: model.LabelLoad, Kind: model.ResourceLoad, Flow: network.Flow{NominalValue: 1, Fix: []float64{10, 20}, VariableCosts: []float64{0, 0}}},
		},
	}
}

func balanced(net *network.FlowNetwork) *Result {
	load, _ := net.Sink(model.LabelLoad)
	return &Result{
		Status: StatusOptimal,
		Flows: map[string][]float64{
			model.LabelLoad:       load.Flow.Fix,
			model.LabelGridImport: append([]float64(nil), load.Flow.Fix...),
		},
	}
}

func TestRelaxSchedule(t *testing.T) {
	base := Options{Threads: 4, TimeLimit: 300 * time.Second, Gap: 0.01}
	assert.Equal(t, base, Relax(base, 0))

	one := Relax(base, 1)
	assert.InDelta(t, 0.02, one.Gap, 1e-12)
	assert.Equal(t, base.TimeLimit, one.TimeLimit)

	two := Relax(base, 2)
	assert.InDelta(t, 0.05, two.Gap, 1e-12)
	assert.Equal(t, 600*time.Second, two.TimeLimit)

	three := Relax(base, 3)
	assert.InDelta(t, 0.25, three.Gap, 1e-12)
	assert.Equal(t, 1200*time.Second, three.TimeLimit)
	assert.Equal(t, 4, three.Threads)
}

func TestRunnerRetriesRetryableFailures(t *testing.T) {
	opt := &scripted{errs: []error{
		&model.SolverTimeoutError{Err: errors.New("time limit")},
		&model.SolverError{Solver: "scripted", Err: errors.New("numerical trouble")},
	}}
	var seen []Attempt
	r := NewRunner(opt, RunnerConfig{Verify: true}, nil)
	res, err := r.Run(context.Background(), tinyNetwork(), func(a Attempt) { seen = append(seen, a) })
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.Attempts)
	assert.Equal(t, "scripted", res.Stats.Solver)
	require.Len(t, opt.calls, 3)
	assert.InDelta(t, 0.02, opt.calls[1].Gap, 1e-12)
	assert.Equal(t, 600*time.Second, opt.calls[2].TimeLimit)
	require.Len(t, seen, 3)
	assert.Error(t, seen[0].Err)
	assert.NoError(t, seen[2].Err)
	assert.Equal(t, opt.calls[2], res.Stats.Options)
}

func TestRunnerGivesUpAfterMaxAttempts(t *testing.T) {
	timeout := func() error { return &model.SolverTimeoutError{Err: errors.New("time limit")} }
	opt := &scripted{errs: []error{timeout(), timeout(), timeout(), nil}}
	r := NewRunner(opt, RunnerConfig{MaxAttempts: 3}, nil)
	_, err := r.Run(context.Background(), tinyNetwork())
	require.Error(t, err)
	assert.Len(t, opt.calls, 3)
	assert.True(t, errors.Is(err, model.ErrSolverTimeout))
	var te *model.SolverTimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 3, te.Attempts)
	assert.True(t, te.Set)
	assert.Equal(t, model.ModeStorageOnly, te.Mode)
	assert.Contains(t, err.Error(), "no solution after 3 attempt(s)")
	assert.Contains(t, err.Error(), "mode=storage_only objective=cost_minimization")
}

func TestRunnerSolverErrorCarriesRun(t *testing.T) {
	fail := func() error { return &model.SolverError{Solver: "scripted", Err: errors.New("numerical trouble")} }
	opt := &scripted{errs: []error{fail(), fail()}}
	_, err := NewRunner(opt, RunnerConfig{MaxAttempts: 2}, nil).Run(context.Background(), tinyNetwork())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSolver))
	assert.Contains(t, err.Error(), "numerical trouble")
	assert.Contains(t, err.Error(), "mode=storage_only")
}

func TestRunnerConfirmsInfeasibilityOnce(t *testing.T) {
	inf := func() error { return &model.InfeasibleModelError{Err: errors.New("no feasible point")} }
	opt := &scripted{errs: []error{inf(), inf(), nil}}
	r := NewRunner(opt, RunnerConfig{MaxAttempts: 5}, nil)
	_, err := r.Run(context.Background(), tinyNetwork())
	require.Error(t, err)
	assert.Len(t, opt.calls, 2)
	assert.True(t, errors.Is(err, model.ErrInfeasible))
	assert.False(t, model.Retryable(err))
}

func TestRunnerInfeasibleThenSolved(t *testing.T) {
	opt := &scripted{errs: []error{&model.InfeasibleModelError{}}}
	r := NewRunner(opt, RunnerConfig{}, nil)
	res, err := r.Run(context.Background(), tinyNetwork())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Attempts)
}

func TestRunnerDoesNotRetryDefinitiveErrors(t *testing.T) {
	cases := []error{
		&model.SolverUnavailableError{Solver: "cbc"},
		&model.ConfigurationError{Resource: model.ResourceBattery, Param: "energy_capacity_mwh"},
		errors.New("boom"),
	}
	for _, e := range cases {
		opt := &scripted{errs: []error{e}}
		_, err := NewRunner(opt, RunnerConfig{}, nil).Run(context.Background(), tinyNetwork())
		require.Error(t, err)
		assert.Len(t, opt.calls, 1, e.Error())
		assert.True(t, errors.Is(err, e))
	}
}

func TestRunnerVerificationFailureIsRetried(t *testing.T) {
	bad := func(net *network.FlowNetwork) *Result {
		r := balanced(net)
		r.Flows[model.LabelGridImport] = []float64{10, 19}
		return r
	}
	opt := &scripted{res: bad}
	_, err := NewRunner(opt, RunnerConfig{Verify: true, MaxAttempts: 2}, nil).Run(context.Background(), tinyNetwork())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSolver))
	assert.Len(t, opt.calls, 2)
	assert.Contains(t, err.Error(), "imbalance")
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opt := &scripted{}
	_, err := NewRunner(opt, RunnerConfig{}, nil).Run(ctx, tinyNetwork())
	require.Error(t, err)
	assert.Empty(t, opt.calls)
	assert.True(t, errors.Is(err, model.ErrSolverTimeout))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunnerWithoutOptimizer(t *testing.T) {
	_, err := NewRunner(nil, RunnerConfig{}, nil).Run(context.Background(), tinyNetwork())
	assert.True(t, errors.Is(err, model.ErrSolverUnavailable))
}

func TestVerifyBalance(t *testing.T) {
	net := tinyNetwork()
	assert.NoError(t, VerifyBalance(net, balanced(net), 1e-6))

	missing := balanced(net)
	delete(missing.Flows, model.LabelGridImport)
	assert.Error(t, VerifyBalance(net, missing, 1e-6))

	over := balanced(net)
	over.Flows[model.LabelGridImport] = []float64{10, 200}
	assert.ErrorContains(t, VerifyBalance(net, over, 1e-6), "outside")

	net.Storage = &network.Storage{
		Label: model.LabelBattery, NominalCapacity: 10, MinLevel: 0.1, MaxLevel: 0.9, InitialLevel: 0.5,
		Charge:    network.Flow{NominalValue: 5, Max: 1, VariableCosts: []float64{0, 0}},
		Discharge: network.Flow{NominalValue: 5, Max: 1, VariableCosts: []float64{0, 0}},
	}
	withStorage := balanced(net)
	withStorage.Flows[model.LabelGridImport] = []float64{15, 15}
	withStorage.Storage = &StorageResult{Charge: []float64{5, 0}, Discharge: []float64{0, 5}, Level: []float64{9, 5}}
	assert.NoError(t, VerifyBalance(net, withStorage, 1e-6))
	withStorage.Storage.Level[0] = 9.5
	assert.ErrorContains(t, VerifyBalance(net, withStorage, 1e-6), "storage level")
}

func TestVerifyBalanceRejectsNaN(t *testing.T) {
	net := tinyNetwork()
	res := balanced(net)
	res.Flows[model.LabelGridImport] = []float64{10, math.NaN()}
	assert.Error(t, VerifyBalance(net, res, 1e-6))

	net = tinyNetwork()
	load, _ := net.Sink(model.LabelLoad)
	load.Flow.Fix[0] = math.NaN()
	assert.Error(t, VerifyBalance(net, balanced(net), 1e-6), "NaN on both sides of the bus")

	net = tinyNetwork()
	net.Storage = &network.Storage{
		Label: model.LabelBattery, NominalCapacity: 10, MinLevel: 0.1, MaxLevel: 0.9, InitialLevel: 0.5,
		Charge:    network.Flow{NominalValue: 5, Max: 1, VariableCosts: []float64{0, 0}},
		Discharge: network.Flow{NominalValue: 5, Max: 1, VariableCosts: []float64{0, 0}},
	}
	res = balanced(net)
	res.Storage = &StorageResult{Charge: []float64{0, 0}, Discharge: []float64{0, 0}, Level: []float64{5, math.NaN()}}
	assert.ErrorContains(t, VerifyBalance(net, res, 1e-6), "storage level")
}

func TestRegistryUnknownBackend(t *testing.T) {
	_, err := New(factory.ModuleConfig{Type: "cplex"})
	require.Error(t, err)
	var ue *model.SolverUnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "cplex", ue.Solver)
	assert.True(t, errors.Is(err, factory.ErrUnknownType))
}

func TestRegistryBackendInitFailure(t *testing.T) {
	require.NoError(t, Register("broken-test", func(map[string]any) (Optimizer, error) {
		return nil, errors.New("license missing")
	}))
	_, err := New(factory.ModuleConfig{Type: "broken-test"})
	assert.True(t, errors.Is(err, model.ErrSolverUnavailable))
	assert.Contains(t, Backends(), "broken-test")
}

func TestProfit(t *testing.T) {
	net := tinyNetwork()
	net.Sources[0].Flow.UnitValue = []float64{300, 500}
	net.Sinks = append(net.Sinks, network.Sink{
		Label: model.LabelGridExport, Kind: model.ResourceGrid,
		Flow: network.Flow{NominalValue: 50, Max: 1, UnitValue: []float64{285, 475}, Revenue: true},
	})
	res := balanced(net)
	res.Flows[model.LabelGridImport] = []float64{10, 24}
	res.Flows[model.LabelGridExport] = []float64{0, 4}
	assert.InDelta(t, -(10*300+24*500)+4*475, Profit(net, res), 1e-9)

	net.StepHours = 0.5
	assert.InDelta(t, 0.5*(-(10*300+24*500)+4*475), Profit(net, res), 1e-9)
	assert.Zero(t, Profit(net, nil))
}
