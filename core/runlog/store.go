// Package runlog persists one record per scheduling run so that past
// outcomes can be listed and compared.
package runlog

import (
	"context"
	"time"

	"github.com/kilianp07/vpp/core/analysis"
)

// StatusOK marks a run that produced a schedule. Failed runs carry the
// error class of model.ErrorClass instead.
const StatusOK = "ok"

// RunRecord captures one run and its headline figures.
type RunRecord struct {
	RunID     string            `json:"run_id"`
	Timestamp time.Time         `json:"timestamp"`
	Mode      string            `json:"mode"`
	Objective string            `json:"objective"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Solver    string            `json:"solver,omitempty"`
	Attempts  int               `json:"attempts"`
	Duration  time.Duration     `json:"duration_ns"`
	Value     float64           `json:"objective_value"`
	Summary   *analysis.Summary `json:"summary,omitempty"`
}

// Query filters records. Zero fields match everything; Limit keeps the
// most recent records.
type Query struct {
	Start     time.Time
	End       time.Time
	Mode      string
	Objective string
	Status    string
	Limit     int
}

// Match reports whether r passes the filters of q.
func (q Query) Match(r RunRecord) bool {
	switch {
	case !q.Start.IsZero() && r.Timestamp.Before(q.Start):
		return false
	case !q.End.IsZero() && r.Timestamp.After(q.End):
		return false
	case q.Mode != "" && r.Mode != q.Mode:
		return false
	case q.Objective != "" && r.Objective != q.Objective:
		return false
	case q.Status != "" && r.Status != q.Status:
		return false
	}
	return true
}

// limit trims recs, sorted by time, to the last q.Limit entries.
func (q Query) limit(recs []RunRecord) []RunRecord {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}
