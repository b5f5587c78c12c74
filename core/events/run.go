package events

import (
	"time"

	"github.com/kilianp07/vpp/core/analysis"
	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/solver"
)

// RunStarted is published before a run is assembled.
type RunStarted struct {
	RunID     string
	Mode      model.SchedulingMode
	Objective model.OptimizationObjective
	Time      time.Time
}

// AttemptFinished is published after each optimizer call of a run.
type AttemptFinished struct {
	RunID     string
	Mode      model.SchedulingMode
	Objective model.OptimizationObjective
	Attempt   int
	Options   solver.Options
	Duration  time.Duration
	Err       error
}

// RunFinished is published once per run. Value is the optimizer objective
// and is zero on failure; Report is nil on failure and must not be
// modified by subscribers.
type RunFinished struct {
	RunID     string
	Mode      model.SchedulingMode
	Objective model.OptimizationObjective
	Status    string
	Attempts  int
	Duration  time.Duration
	Value     float64
	NetCost   float64
	Report    *analysis.Report
	Err       error
	Time      time.Time
}
