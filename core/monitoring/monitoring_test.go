package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/vpp/core/model"
)

type recorder struct {
	errs []error
	tags []map[string]string
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recorder) Flush(time.Duration) {}

func TestGlobalMonitor(t *testing.T) {
	defer Init(NopMonitor{})
	rec := &recorder{}
	Init(rec)
	Init(nil)
	assert.Same(t, rec, Current())
	CaptureException(errors.New("boom"), map[string]string{"mode": "storage_only"})
	Flush(time.Second)
	assert.Len(t, rec.errs, 1)
	assert.Equal(t, "storage_only", rec.tags[0]["mode"])
}

func TestReportable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&model.ConfigurationError{}, false},
		{&model.InfeasibleModelError{}, false},
		{&model.SolverTimeoutError{}, false},
		{&model.SolverError{Err: errors.New("x")}, true},
		{&model.SolverUnavailableError{}, true},
		{errors.New("unexpected"), true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Reportable(c.err), "%v", c.err)
	}
}
