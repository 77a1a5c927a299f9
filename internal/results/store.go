// Package results holds finished jobs in memory for the export surface.
package results

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/claimstack/pricing-service/internal/types"
)

// ErrNotFound reports an unknown or expired job id.
var ErrNotFound = errors.New("results: job not found")

// DefaultRetention is how long a job's results stay retrievable.
const DefaultRetention = 24 * time.Hour

// Store is the in-memory job -> results map. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]types.JobResults
	retention time.Duration

	now func() time.Time
}

// NewStore builds a store. Non-positive retention uses the default.
func NewStore(retention time.Duration) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		jobs:      make(map[string]types.JobResults),
		retention: retention,
		now:       time.Now,
	}
}

// Put stores the emitted rows for a job, replacing any prior entry.
func (s *Store) Put(jobID string, rows []types.PricingResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = types.JobResults{
		JobID:     jobID,
		Rows:      rows,
		CreatedAt: s.now(),
	}
}

// Append adds one row to a job, creating the job if needed. Used by the
// streaming emit path so cancellation keeps partial results.
func (s *Store) Append(jobID string, row types.PricingResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jr, ok := s.jobs[jobID]
	if !ok {
		jr = types.JobResults{JobID: jobID, CreatedAt: s.now()}
	}
	jr.Rows = append(jr.Rows, row)
	s.jobs[jobID] = jr
}

// Get returns a job's results ordered by row index.
func (s *Store) Get(jobID string) (types.JobResults, error) {
	s.mu.RLock()
	jr, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok || s.now().Sub(jr.CreatedAt) > s.retention {
		return types.JobResults{}, ErrNotFound
	}

	rows := make([]types.PricingResult, len(jr.Rows))
	copy(rows, jr.Rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].RowIndex < rows[j].RowIndex })
	jr.Rows = rows
	return jr, nil
}

// Delete removes a job.
func (s *Store) Delete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}

// Len returns the number of retained jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// sweep drops jobs past retention and returns how many were removed.
func (s *Store) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	removed := 0
	for id, jr := range s.jobs {
		if jr.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}
