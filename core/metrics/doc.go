// Package metrics defines the sinks that record scheduling activity. Every
// sink records finished runs; sinks may also implement AttemptRecorder and
// ScheduleRecorder to receive optimizer attempts and solved schedules.
// NewMetricsSink returns a MultiSink when several sinks are configured.
package metrics
