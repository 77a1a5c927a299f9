// Package scheduler dispatches rows to a bounded worker pool. Batch size
// and concurrency follow the job size, and an adaptive throttle backs off
// between batches when providers start failing.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/claimstack/pricing-service/internal/types"
)

// ErrCancelled reports a job stopped by its context. Results emitted
// before cancellation are kept.
var ErrCancelled = errors.New("scheduler: job cancelled")

// Processor prices one row. Implementations never return an error; a row
// always produces a result.
type Processor interface {
	ProcessRow(ctx context.Context, row types.Row) types.PricingResult
}

// Progress is emitted after every completed item.
type Progress struct {
	Processed int
	Total     int
	Elapsed   time.Duration
}

// Stats summarizes a finished job.
type Stats struct {
	Processed int
	Found     int
	Estimated int
	Fallbacks int
	Elapsed   time.Duration
}

// plan is the batch/concurrency choice for a job size.
type plan struct {
	batchSize   int
	concurrency int
}

// planFor sizes the pool: small jobs run serially, medium jobs fan wide,
// large jobs pair rows and narrow the pool to stay under provider rate
// limits.
func planFor(total int) plan {
	switch {
	case total <= 20:
		return plan{batchSize: total, concurrency: 1}
	case total <= 100:
		return plan{batchSize: 1, concurrency: 15}
	default:
		return plan{batchSize: 2, concurrency: 10}
	}
}

const (
	minDelay = 100 * time.Millisecond
	maxDelay = 2 * time.Second
)

// throttle adapts the inter-batch delay to the failure density.
type throttle struct {
	mu          sync.Mutex
	delay       time.Duration
	consecFails int
}

func newThrottle() *throttle {
	return &throttle{delay: minDelay}
}

// observe updates the delay: consecutive failures grow it by half, a
// clean batch shrinks it by a fifth.
func (t *throttle) observe(failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if failed {
		t.consecFails++
		t.delay = time.Duration(float64(t.delay) * 1.5)
		if t.delay > maxDelay {
			t.delay = maxDelay
		}
		return
	}
	t.consecFails = 0
	t.delay = time.Duration(float64(t.delay) * 0.8)
	if t.delay < minDelay {
		t.delay = minDelay
	}
}

func (t *throttle) current() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay
}

// Scheduler runs jobs against a processor.
type Scheduler struct {
	processor Processor
	log       zerolog.Logger
}

// New builds a scheduler.
func New(processor Processor, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		processor: processor,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Run prices every row, invoking emit per result and onProgress after
// each completed item. Both callbacks may be nil. Emission order is
// arbitrary; results carry their row index. On cancellation the stats
// cover everything emitted so far and the error is ErrCancelled.
func (s *Scheduler) Run(ctx context.Context, rows []types.Row, emit func(types.PricingResult), onProgress func(Progress)) (Stats, error) {
	start := time.Now()
	total := len(rows)
	if total == 0 {
		return Stats{}, nil
	}

	pl := planFor(total)
	th := newThrottle()
	sem := semaphore.NewWeighted(int64(pl.concurrency))

	var (
		mu    sync.Mutex
		stats Stats
		wg    sync.WaitGroup
	)

	s.log.Info().Int("total", total).Int("batch_size", pl.batchSize).
		Int("concurrency", pl.concurrency).Msg("job started")

	processOne := func(row types.Row) bool {
		res := s.processor.ProcessRow(ctx, row)

		mu.Lock()
		stats.Processed++
		if res.Status == types.StatusFound {
			stats.Found++
		} else {
			stats.Estimated++
		}
		fallback := res.PricingTier == types.TierFallback
		if fallback {
			stats.Fallbacks++
		}
		processed := stats.Processed
		mu.Unlock()

		if emit != nil {
			emit(res)
		}
		if onProgress != nil {
			onProgress(Progress{Processed: processed, Total: total, Elapsed: time.Since(start)})
		}
		return fallback
	}

	cancelled := false
dispatch:
	for i := 0; i < total; i += pl.batchSize {
		end := i + pl.batchSize
		if end > total {
			end = total
		}
		batch := rows[i:end]

		if err := sem.Acquire(ctx, 1); err != nil {
			cancelled = true
			break dispatch
		}

		wg.Add(1)
		go func(batch []types.Row) {
			defer wg.Done()
			defer sem.Release(1)

			batchFailed := false
			for _, row := range batch {
				if ctx.Err() != nil {
					return
				}
				if processOne(row) {
					batchFailed = true
				}
			}
			th.observe(batchFailed)
		}(batch)

		if end < total {
			select {
			case <-ctx.Done():
				cancelled = true
				break dispatch
			case <-time.After(th.current()):
			}
		}
	}

	wg.Wait()

	mu.Lock()
	stats.Elapsed = time.Since(start)
	out := stats
	mu.Unlock()

	if cancelled {
		s.log.Warn().Int("processed", out.Processed).Int("total", total).Msg("job cancelled")
		return out, ErrCancelled
	}
	s.log.Info().Int("processed", out.Processed).Int("found", out.Found).
		Dur("elapsed", out.Elapsed).Msg("job complete")
	return out, nil
}
