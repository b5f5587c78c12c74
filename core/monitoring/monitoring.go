package monitoring

import (
	"time"

	"github.com/kilianp07/vpp/core/model"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// Current returns the global monitor.
func Current() Monitor { return current }

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	current.CaptureException(err, tags)
}

// Flush flushes buffered events.
func Flush(d time.Duration) { current.Flush(d) }

// Reportable tells whether err deserves an error report. Configuration
// mistakes and infeasible models are user outcomes, not faults.
func Reportable(err error) bool {
	switch model.ErrorClass(err) {
	case "solver_error", "solver_unavailable", "internal":
		return true
	default:
		return false
	}
}
