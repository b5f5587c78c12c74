package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type runOnly struct{ runs int }

func (r *runOnly) RecordRun(RunEvent) error { r.runs++; return nil }

type recordSink struct {
	runs, attempts, schedules int
	err                       error
}

func (r *recordSink) RecordRun(RunEvent) error { r.runs++; return r.err }
func (r *recordSink) RecordAttempt(AttemptEvent) error {
	r.attempts++
	return r.err
}
func (r *recordSink) RecordSchedule(ScheduleEvent) error {
	r.schedules++
	return r.err
}

func TestMultiSink(t *testing.T) {
	full := &recordSink{}
	failing := &recordSink{err: errors.New("down")}
	basic := &runOnly{}
	m := NewMultiSink(failing, full, basic)

	assert.EqualError(t, m.RecordRun(RunEvent{}), "down")
	assert.Error(t, m.RecordAttempt(AttemptEvent{}))
	assert.Error(t, m.RecordSchedule(ScheduleEvent{}))

	assert.Equal(t, 1, full.runs, "a failing sink does not stop the others")
	assert.Equal(t, 1, full.attempts)
	assert.Equal(t, 1, full.schedules)
	assert.Equal(t, 1, basic.runs)
	assert.Equal(t, 1, failing.runs)
}

func TestNopSink(t *testing.T) {
	var s NopSink
	assert.NoError(t, s.RecordRun(RunEvent{}))
	assert.NoError(t, s.RecordAttempt(AttemptEvent{}))
	assert.NoError(t, s.RecordSchedule(ScheduleEvent{}))
	assert.True(t, RunEvent{Status: "ok"}.OK())
}

type closeSink struct {
	runOnly
	closed bool
}

func (c *closeSink) Close() { c.closed = true }

func TestMultiSinkClose(t *testing.T) {
	a, b := &closeSink{}, &runOnly{}
	NewMultiSink(a, b).Close()
	assert.True(t, a.closed)
	Close(NopSink{})
}
