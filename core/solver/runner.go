package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/kilianp07/vpp/core/logger"
	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/network"
)

// RunnerConfig holds the retry policy of a Runner.
type RunnerConfig struct {
	Base             Options `json:"base"`
	MaxAttempts      int     `json:"max_attempts"`
	Verify           bool    `json:"verify_solution"`
	BalanceTolerance float64 `json:"balance_tolerance"`
}

// SetDefaults fills zero values.
func (c *RunnerConfig) SetDefaults() {
	d := DefaultOptions()
	if c.Base.Threads == 0 {
		c.Base.Threads = d.Threads
	}
	if c.Base.TimeLimit == 0 {
		c.Base.TimeLimit = d.TimeLimit
	}
	if c.Base.Gap == 0 {
		c.Base.Gap = d.Gap
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BalanceTolerance == 0 {
		c.BalanceTolerance = DefaultBalanceTolerance
	}
}

// Relax returns the options of the given zero-based attempt. The first
// retry doubles the gap; later retries scale the time limit by 2^(n-1) and
// the gap by 5^(n-1).
func Relax(base Options, attempt int) Options {
	out := base
	switch {
	case attempt <= 0:
	case attempt == 1:
		out.Gap = base.Gap * 2
	default:
		n := float64(attempt - 1)
		out.TimeLimit = time.Duration(float64(base.TimeLimit) * math.Pow(2, n))
		out.Gap = base.Gap * math.Pow(5, n)
	}
	return out
}

// Attempt describes one finished solve call.
type Attempt struct {
	Number   int
	Options  Options
	Duration time.Duration
	Err      error
}

// AttemptObserver is notified after every solve call.
type AttemptObserver func(Attempt)

// Runner applies the retry policy around an Optimizer. It holds no
// per-run state and may be shared between goroutines.
type Runner struct {
	opt Optimizer
	cfg RunnerConfig
	log logger.Logger
}

// NewRunner returns a Runner over opt. cfg zero values take defaults.
func NewRunner(opt Optimizer, cfg RunnerConfig, log logger.Logger) *Runner {
	cfg.SetDefaults()
	return &Runner{opt: opt, cfg: cfg, log: logger.OrNop(log)}
}

// Config returns the effective retry policy.
func (r *Runner) Config() RunnerConfig { return r.cfg }

// Run solves net. Retryable failures are retried with relaxed options up
// to MaxAttempts calls. An infeasible verdict is confirmed by one more
// call and then returned; configuration and availability errors are
// returned at once.
func (r *Runner) Run(ctx context.Context, net *network.FlowNetwork, observers ...AttemptObserver) (*Result, error) {
	if r.opt == nil {
		return nil, model.Annotate(&model.SolverUnavailableError{Solver: "none", Err: errors.New("no optimizer configured")}, net.Mode, net.Objective)
	}
	start := time.Now()
	var before runtime.MemStats
	runtime.ReadMemStats(&before)

	var (
		lastErr    error
		infeasible bool
		calls      int
	)
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = &model.SolverTimeoutError{Attempts: calls, TimeLimit: r.cfg.Base.TimeLimit, Err: err}
			}
			break
		}
		opts := Relax(r.cfg.Base, attempt)
		t0 := time.Now()
		res, err := r.opt.Solve(ctx, net, opts)
		calls++
		if err == nil && r.cfg.Verify {
			if verr := VerifyBalance(net, res, r.cfg.BalanceTolerance); verr != nil {
				err = &model.SolverError{Solver: r.opt.Name(), Err: fmt.Errorf("solution check: %w", verr)}
			}
		}
		for _, o := range observers {
			o(Attempt{Number: attempt + 1, Options: opts, Duration: time.Since(t0), Err: err})
		}
		if err == nil {
			var after runtime.MemStats
			runtime.ReadMemStats(&after)
			res.Stats = Stats{
				Solver:     r.opt.Name(),
				Attempts:   calls,
				Duration:   time.Since(start),
				AllocBytes: after.TotalAlloc - before.TotalAlloc,
				Options:    opts,
			}
			if attempt > 0 {
				r.log.Infof("%s/%s solved on attempt %d", net.Mode, net.Objective, attempt+1)
			}
			return res, nil
		}

		switch {
		case errors.Is(err, model.ErrInfeasible):
			if infeasible || attempt == r.cfg.MaxAttempts-1 {
				return nil, model.Annotate(err, net.Mode, net.Objective)
			}
			infeasible = true
			r.log.Warnf("%s/%s reported infeasible, confirming", net.Mode, net.Objective)
		case model.Retryable(err):
			r.log.Warnf("%s/%s attempt %d failed: %v", net.Mode, net.Objective, attempt+1, err)
		default:
			return nil, model.Annotate(err, net.Mode, net.Objective)
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = &model.SolverError{Solver: r.opt.Name(), Err: errors.New("no attempt made")}
	}
	var te *model.SolverTimeoutError
	if errors.As(lastErr, &te) {
		te.Attempts = calls
		if te.TimeLimit == 0 {
			te.TimeLimit = Relax(r.cfg.Base, calls-1).TimeLimit
		}
	}
	if errors.Is(lastErr, model.ErrInfeasible) {
		return nil, model.Annotate(lastErr, net.Mode, net.Objective)
	}
	lastErr = model.Annotate(lastErr, net.Mode, net.Objective)
	return nil, fmt.Errorf("no solution after %d attempt(s): %w", calls, lastErr)
}

