package metrics

import "errors"

// MultiSink fans events out to several sinks. Optional recorders are only
// called on the sinks that implement them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards ev to every sink and joins their errors.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordAttempt forwards ev to the sinks implementing AttemptRecorder.
func (m *MultiSink) RecordAttempt(ev AttemptEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AttemptRecorder); ok {
			if err := r.RecordAttempt(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordSchedule forwards ev to the sinks implementing ScheduleRecorder.
func (m *MultiSink) RecordSchedule(ev ScheduleEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ScheduleRecorder); ok {
			if err := r.RecordSchedule(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks that hold connections.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		Close(s)
	}
}

// Close releases sink when it has a Close method.
func Close(sink MetricsSink) {
	if c, ok := sink.(interface{ Close() }); ok {
		c.Close()
	}
}
