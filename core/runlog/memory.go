package runlog

import (
	"context"
	"sync"
)

// MemoryStore keeps records in memory for tests or lightweight usage.
type MemoryStore struct {
	mu   sync.Mutex
	recs []RunRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Summary != nil {
		cp := *rec.Summary
		rec.Summary = &cp
	}
	s.recs = append(s.recs, rec)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []RunRecord
	for _, r := range s.recs {
		if q.Match(r) {
			res = append(res, r)
		}
	}
	sortByTime(res)
	return q.limit(res), nil
}

func (s *MemoryStore) Close() error { return nil }
