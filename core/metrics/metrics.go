package metrics

import (
	"time"

	"github.com/kilianp07/vpp/core/analysis"
)

// RunEvent is a finished (mode, objective) run.
type RunEvent struct {
	RunID     string
	Mode      string
	Objective string
	Status    string
	Attempts  int
	Duration  time.Duration
	Value     float64
	NetCost   float64
	Time      time.Time
}

// OK reports whether the run produced a schedule.
func (e RunEvent) OK() bool { return e.Status == "ok" }

// MetricsSink records finished runs.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// AttemptEvent is one optimizer call. ErrorClass is "none" on success.
type AttemptEvent struct {
	RunID      string
	Mode       string
	Objective  string
	Attempt    int
	Gap        float64
	TimeLimit  time.Duration
	Duration   time.Duration
	ErrorClass string
	Time       time.Time
}

// AttemptRecorder records optimizer attempts.
type AttemptRecorder interface {
	RecordAttempt(ev AttemptEvent) error
}

// ScheduleEvent carries a solved schedule. Report is shared and read-only.
type ScheduleEvent struct {
	RunID  string
	Report *analysis.Report
	Time   time.Time
}

// ScheduleRecorder records solved schedules period by period.
type ScheduleRecorder interface {
	RecordSchedule(ev ScheduleEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error           { return nil }
func (NopSink) RecordAttempt(AttemptEvent) error   { return nil }
func (NopSink) RecordSchedule(ScheduleEvent) error { return nil }
