package lpsolver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/vpp/core/factory"
	"github.com/kilianp07/vpp/core/logger"
	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/network"
	"github.com/kilianp07/vpp/core/solver"
)

// Name is the registry key of the backend.
const Name = "simplex"

// baseTolerance is the simplex tolerance used at a 1% gap.
const baseTolerance = 1e-9

// Config tunes the backend.
type Config struct {
	// Tolerance overrides the gap-derived simplex tolerance when set.
	Tolerance float64 `json:"tolerance"`
	// MaxConcurrent bounds the simplex runs in flight, abandoned ones
	// included. Defaults to the number of CPUs.
	MaxConcurrent int `json:"max_concurrent"`
}

// Simplex solves flow networks with the dense simplex method of gonum.
// Threads is ignored.
type Simplex struct {
	cfg   Config
	log   logger.Logger
	slots chan struct{}
}

// New returns a Simplex backend.
func New(cfg Config, log logger.Logger) *Simplex {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = runtime.NumCPU()
	}
	return &Simplex{cfg: cfg, log: logger.OrNop(log), slots: make(chan struct{}, cfg.MaxConcurrent)}
}

func init() {
	_ = solver.Register(Name, func(conf map[string]any) (solver.Optimizer, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return New(c, nil), nil
	})
}

// lpSolve points to the function used to solve the standard-form program.
// It can be overridden in tests to simulate solver failures.
var lpSolve = func(c []float64, a mat.Matrix, b []float64, tol float64) (float64, []float64, error) {
	return lp.Simplex(c, a, b, tol, nil)
}

func (s *Simplex) Name() string { return Name }

func (s *Simplex) tolerance(gap float64) float64 {
	if s.cfg.Tolerance > 0 {
		return s.cfg.Tolerance
	}
	if gap <= 0 {
		return baseTolerance
	}
	return math.Min(baseTolerance*gap/0.01, 1e-6)
}

type outcome struct {
	x   []float64
	err error
}

// Solve builds the standard-form program of net and runs the simplex method
// under the time limit of opts. gonum cannot be interrupted: a run that
// times out keeps its CPU and its slot until it returns, and later calls
// wait for a free slot within their own time limit.
func (s *Simplex) Solve(ctx context.Context, net *network.FlowNetwork, opts solver.Options) (*solver.Result, error) {
	if err := net.Validate(); err != nil {
		return nil, &model.SolverError{Solver: Name, Err: err}
	}
	prog := build(net)
	c, data, b, m, n := prog.standardForm()
	a := mat.NewDense(m, n, data)
	tol := s.tolerance(opts.Gap)
	s.log.Debugw("simplex program", map[string]any{
		"mode":      net.Mode.String(),
		"objective": net.Objective.String(),
		"rows":      m,
		"columns":   n,
		"tolerance": tol,
	})

	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, &model.SolverTimeoutError{Attempts: 1, TimeLimit: opts.TimeLimit, Err: fmt.Errorf("waiting for a free simplex slot: %w", ctx.Err())}
	}
	solve := lpSolve
	done := make(chan outcome, 1)
	go func() {
		defer func() { <-s.slots }()
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("simplex panic: %v", r)}
			}
		}()
		_, x, err := solve(c, a, b, tol)
		done <- outcome{x: x, err: err}
	}()

	var out outcome
	select {
	case <-ctx.Done():
		return nil, &model.SolverTimeoutError{Attempts: 1, TimeLimit: opts.TimeLimit, Err: ctx.Err()}
	case out = <-done:
	}
	if out.err != nil {
		return nil, classify(out.err)
	}
	if len(out.x) < len(prog.vars) {
		return nil, &model.SolverError{Solver: Name, Err: fmt.Errorf("solution has %d columns, want %d", len(out.x), n)}
	}

	flows, charge, discharge, level := prog.values(out.x)
	res := &solver.Result{
		Status:    solver.StatusOptimal,
		Objective: prog.objective(out.x),
		Flows:     flows,
	}
	if net.Storage != nil {
		res.Storage = &solver.StorageResult{Charge: charge, Discharge: discharge, Level: level}
	}
	return res, nil
}

// classify maps gonum errors onto the error taxonomy. Only infeasibility is
// definitive; everything else may succeed with relaxed options.
func classify(err error) error {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return &model.InfeasibleModelError{Constraint: "bus balance or storage bounds", Err: err}
	default:
		return &model.SolverError{Solver: Name, Err: err}
	}
}
