package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrInfeasible        = errors.New("infeasible model")
	ErrSolverUnavailable = errors.New("solver unavailable")
	ErrSolverTimeout     = errors.New("solver timeout or ambiguous termination")
	ErrSolver            = errors.New("solver error")
)

// RunRef names the (mode, objective) pair an error belongs to.
type RunRef struct {
	Mode      SchedulingMode
	Objective OptimizationObjective
	Set       bool
}

func (r RunRef) suffix() string {
	if !r.Set {
		return ""
	}
	return fmt.Sprintf(" (mode=%s objective=%s)", r.Mode, r.Objective)
}

// ConfigurationError reports a structural parameter that is missing or
// unusable for a resource the current mode includes.
type ConfigurationError struct {
	RunRef
	Resource ResourceKind
	Param    string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is missing"
	}
	return fmt.Sprintf("%s: %s.%s %s%s", ErrConfiguration, e.Resource, e.Param, reason, e.suffix())
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// InfeasibleModelError is a definitive infeasibility verdict.
type InfeasibleModelError struct {
	RunRef
	Constraint string
	Err        error
}

func (e *InfeasibleModelError) Error() string {
	msg := ErrInfeasible.Error()
	if e.Constraint != "" {
		msg += ": " + e.Constraint
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + e.suffix()
}

func (e *InfeasibleModelError) Is(target error) bool { return target == ErrInfeasible }
func (e *InfeasibleModelError) Unwrap() error        { return e.Err }

// SolverUnavailableError means the requested backend cannot be invoked.
type SolverUnavailableError struct {
	RunRef
	Solver string
	Err    error
}

func (e *SolverUnavailableError) Error() string {
	msg := fmt.Sprintf("%s: %q", ErrSolverUnavailable, e.Solver)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + e.suffix()
}

func (e *SolverUnavailableError) Is(target error) bool { return target == ErrSolverUnavailable }
func (e *SolverUnavailableError) Unwrap() error        { return e.Err }

// SolverTimeoutError covers time-limit hits and other terminations that
// are neither optimal nor infeasible.
type SolverTimeoutError struct {
	RunRef
	Attempts  int
	TimeLimit time.Duration
	Err       error
}

func (e *SolverTimeoutError) Error() string {
	msg := fmt.Sprintf("%s after %d attempt(s), time limit %s", ErrSolverTimeout, e.Attempts, e.TimeLimit)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + e.suffix()
}

func (e *SolverTimeoutError) Is(target error) bool { return target == ErrSolverTimeout }
func (e *SolverTimeoutError) Unwrap() error        { return e.Err }

// SolverError wraps an unexpected failure raised by the backend.
type SolverError struct {
	RunRef
	Solver string
	Err    error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("%s (%s): %v%s", ErrSolver, e.Solver, e.Err, e.suffix())
}

func (e *SolverError) Is(target error) bool { return target == ErrSolver }
func (e *SolverError) Unwrap() error        { return e.Err }

// Annotate stamps the run reference on any taxonomy error found in err's
// chain that does not carry one yet, and returns err. Wrappers built with
// fmt.Errorf keep the text of the moment they were created, so annotate
// before wrapping.
func Annotate(err error, mode SchedulingMode, obj OptimizationObjective) error {
	if err == nil {
		return nil
	}
	ref := RunRef{Mode: mode, Objective: obj, Set: true}
	var ce *ConfigurationError
	if errors.As(err, &ce) && !ce.Set {
		ce.RunRef = ref
	}
	var ie *InfeasibleModelError
	if errors.As(err, &ie) && !ie.Set {
		ie.RunRef = ref
	}
	var ue *SolverUnavailableError
	if errors.As(err, &ue) && !ue.Set {
		ue.RunRef = ref
	}
	var te *SolverTimeoutError
	if errors.As(err, &te) && !te.Set {
		te.RunRef = ref
	}
	var se *SolverError
	if errors.As(err, &se) && !se.Set {
		se.RunRef = ref
	}
	return err
}

// Retryable reports whether a relaxed retry may change the outcome.
func Retryable(err error) bool {
	return errors.Is(err, ErrSolverTimeout) || errors.Is(err, ErrSolver)
}

// ErrorClass returns a short stable name for logs, metrics and API payloads.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrInfeasible):
		return "infeasible"
	case errors.Is(err, ErrSolverUnavailable):
		return "solver_unavailable"
	case errors.Is(err, ErrSolverTimeout):
		return "timeout"
	case errors.Is(err, ErrSolver):
		return "solver_error"
	default:
		return "internal"
	}
}
