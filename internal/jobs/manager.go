// Package jobs tracks pricing jobs from submission to completion. A job
// is one parsed claim file run through the scheduler; results stream
// into the result store so cancellation keeps partial output.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/claimstack/pricing-service/internal/results"
	"github.com/claimstack/pricing-service/internal/scheduler"
	"github.com/claimstack/pricing-service/internal/types"
)

// ErrNotFound reports an unknown job id.
var ErrNotFound = errors.New("jobs: job not found")

// Status is the lifecycle position of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusComplete  Status = "complete"
	StatusCancelled Status = "cancelled"
)

// Job is the trackable state of one pricing run.
type Job struct {
	ID          string        `json:"id"`
	Status      Status        `json:"status"`
	Total       int           `json:"total"`
	Processed   int           `json:"processed"`
	Found       int           `json:"found"`
	Estimated   int           `json:"estimated"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Elapsed     time.Duration `json:"elapsed_ms"`
}

type tracked struct {
	job    Job
	cancel context.CancelFunc
}

// Manager owns the job table and dispatches runs to the scheduler.
type Manager struct {
	mu    sync.RWMutex
	jobs  map[string]*tracked
	sched *scheduler.Scheduler
	store *results.Store
	log   zerolog.Logger
}

// NewManager builds a manager.
func NewManager(sched *scheduler.Scheduler, store *results.Store, log zerolog.Logger) *Manager {
	return &Manager{
		jobs:  make(map[string]*tracked),
		sched: sched,
		store: store,
		log:   log.With().Str("component", "jobs").Logger(),
	}
}

// Start launches a pricing run in the background and returns its job id
// immediately.
func (m *Manager) Start(rows []types.Row) string {
	jobID := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.Background())

	t := &tracked{
		job: Job{
			ID:        jobID,
			Status:    StatusRunning,
			Total:     len(rows),
			StartedAt: time.Now(),
		},
		cancel: cancel,
	}

	m.mu.Lock()
	m.jobs[jobID] = t
	m.mu.Unlock()

	go m.run(runCtx, jobID, rows)
	return jobID
}

func (m *Manager) run(ctx context.Context, jobID string, rows []types.Row) {
	emit := func(res types.PricingResult) {
		m.store.Append(jobID, res)
	}
	onProgress := func(p scheduler.Progress) {
		m.mu.Lock()
		if t, ok := m.jobs[jobID]; ok {
			t.job.Processed = p.Processed
			t.job.Elapsed = p.Elapsed
		}
		m.mu.Unlock()
	}

	stats, err := m.sched.Run(ctx, rows, emit, onProgress)

	now := time.Now()
	m.mu.Lock()
	if t, ok := m.jobs[jobID]; ok {
		t.job.Processed = stats.Processed
		t.job.Found = stats.Found
		t.job.Estimated = stats.Estimated
		t.job.Elapsed = stats.Elapsed
		t.job.CompletedAt = &now
		if errors.Is(err, scheduler.ErrCancelled) {
			t.job.Status = StatusCancelled
		} else {
			t.job.Status = StatusComplete
		}
	}
	m.mu.Unlock()

	m.log.Info().Str("job_id", jobID).Int("processed", stats.Processed).
		Int("found", stats.Found).Msg("job finished")
}

// Get returns a job's current state.
func (m *Manager) Get(jobID string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return t.job, nil
}

// Cancel aborts a running job. Results emitted so far are kept.
func (m *Manager) Cancel(jobID string) error {
	m.mu.RLock()
	t, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	t.cancel()
	return nil
}

// List returns every tracked job, newest first by start time.
func (m *Manager) List() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Job, 0, len(m.jobs))
	for _, t := range m.jobs {
		out = append(out, t.job)
	}
	return out
}
