package solver

import (
	"context"
	"time"

	"github.com/kilianp07/vpp/core/network"
)

// Options bound one solve attempt.
type Options struct {
	Threads   int           `json:"threads"`
	TimeLimit time.Duration `json:"time_limit"`
	// Gap is the accepted relative optimality gap.
	Gap float64 `json:"ratio_gap"`
}

// DefaultOptions mirrors the usual MILP defaults: 4 threads, 300 s and a
// 1% gap.
func DefaultOptions() Options {
	return Options{Threads: 4, TimeLimit: 300 * time.Second, Gap: 0.01}
}

// Status is the termination state of a successful solve.
type Status string

const (
	StatusOptimal  Status = "optimal"
	StatusFeasible Status = "feasible"
)

// StorageResult holds the battery trajectories in MW and MWh.
type StorageResult struct {
	Charge    []float64 `json:"charge_mw"`
	Discharge []float64 `json:"discharge_mw"`
	Level     []float64 `json:"level_mwh"`
}

// Stats describes how a result was obtained.
type Stats struct {
	Solver     string        `json:"solver"`
	Attempts   int           `json:"attempts"`
	Duration   time.Duration `json:"duration"`
	AllocBytes uint64        `json:"alloc_bytes"`
	Options    Options       `json:"options"`
}

// Result is a solved network: per-node per-period flows in MW and the
// value of the internal minimisation objective.
type Result struct {
	Status    Status               `json:"status"`
	Objective float64              `json:"objective"`
	Flows     map[string][]float64 `json:"flows"`
	Storage   *StorageResult       `json:"storage,omitempty"`
	Stats     Stats                `json:"stats"`
}

// Flow returns the series of label, or nil.
func (r *Result) Flow(label string) []float64 {
	if r == nil {
		return nil
	}
	return r.Flows[label]
}

// Optimizer is an LP/MILP backend. Solve must fail with one of the
// taxonomy errors of the model package: InfeasibleModelError for a
// definitive verdict, SolverTimeoutError for a time-limit hit or any other
// non-optimal termination, SolverError for unexpected failures.
type Optimizer interface {
	Name() string
	Solve(ctx context.Context, net *network.FlowNetwork, opts Options) (*Result, error)
}

// OptimizerFunc adapts a function to the Optimizer interface.
type OptimizerFunc func(ctx context.Context, net *network.FlowNetwork, opts Options) (*Result, error)

func (f OptimizerFunc) Name() string { return "func" }

func (f OptimizerFunc) Solve(ctx context.Context, net *network.FlowNetwork, opts Options) (*Result, error) {
	return f(ctx, net, opts)
}
