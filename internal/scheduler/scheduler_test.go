package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimstack/pricing-service/internal/types"
)

type fakeProcessor struct {
	mu      sync.Mutex
	calls   int
	delay   time.Duration
	results func(row types.Row) types.PricingResult
}

func (f *fakeProcessor) ProcessRow(ctx context.Context, row types.Row) types.PricingResult {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	if f.results != nil {
		return f.results(row)
	}
	return types.PricingResult{
		RowIndex:    row.RowIndex,
		Status:      types.StatusEstimated,
		PricingTier: types.TierSERP,
	}
}

func makeRows(n int) []types.Row {
	rows := make([]types.Row, n)
	for i := range rows {
		rows[i] = types.Row{RowIndex: i, Description: "item", Qty: 1}
	}
	return rows
}

func TestPlanFor(t *testing.T) {
	tests := []struct {
		total       int
		batchSize   int
		concurrency int
	}{
		{1, 1, 1},
		{20, 20, 1},
		{21, 1, 15},
		{100, 1, 15},
		{101, 2, 10},
		{500, 2, 10},
	}

	for _, tt := range tests {
		pl := planFor(tt.total)
		if pl.batchSize != tt.batchSize || pl.concurrency != tt.concurrency {
			t.Errorf("planFor(%d) = {%d, %d}, want {%d, %d}",
				tt.total, pl.batchSize, pl.concurrency, tt.batchSize, tt.concurrency)
		}
	}
}

func TestThrottleGrowsOnFailure(t *testing.T) {
	th := newThrottle()
	assert.Equal(t, minDelay, th.current())

	th.observe(true)
	assert.Equal(t, 150*time.Millisecond, th.current())
	th.observe(true)
	assert.Equal(t, 225*time.Millisecond, th.current())

	for i := 0; i < 20; i++ {
		th.observe(true)
	}
	assert.Equal(t, maxDelay, th.current())
}

func TestThrottleShrinksOnSuccess(t *testing.T) {
	th := newThrottle()
	th.observe(true)
	th.observe(true)

	th.observe(false)
	assert.Equal(t, 180*time.Millisecond, th.current())

	for i := 0; i < 20; i++ {
		th.observe(false)
	}
	assert.Equal(t, minDelay, th.current())
}

func TestRunCountsStats(t *testing.T) {
	fp := &fakeProcessor{results: func(row types.Row) types.PricingResult {
		res := types.PricingResult{RowIndex: row.RowIndex, PricingTier: types.TierSERP}
		switch {
		case row.RowIndex < 3:
			res.Status = types.StatusFound
		case row.RowIndex < 5:
			res.Status = types.StatusEstimated
		default:
			res.Status = types.StatusEstimated
			res.PricingTier = types.TierFallback
		}
		return res
	}}
	s := New(fp, zerolog.Nop())

	var (
		mu       sync.Mutex
		emitted  []types.PricingResult
		lastProg Progress
	)
	stats, err := s.Run(context.Background(), makeRows(6),
		func(res types.PricingResult) {
			mu.Lock()
			emitted = append(emitted, res)
			mu.Unlock()
		},
		func(p Progress) {
			mu.Lock()
			lastProg = p
			mu.Unlock()
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 6, stats.Processed)
	assert.Equal(t, 3, stats.Found)
	assert.Equal(t, 3, stats.Estimated)
	assert.Equal(t, 1, stats.Fallbacks)
	assert.Len(t, emitted, 6)
	assert.Equal(t, 6, lastProg.Processed)
	assert.Equal(t, 6, lastProg.Total)
}

func TestRunEmpty(t *testing.T) {
	s := New(&fakeProcessor{}, zerolog.Nop())

	stats, err := s.Run(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestRunNilCallbacks(t *testing.T) {
	fp := &fakeProcessor{}
	s := New(fp, zerolog.Nop())

	stats, err := s.Run(context.Background(), makeRows(3), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 3, fp.calls)
}

func TestRunEveryRowEmittedOnce(t *testing.T) {
	fp := &fakeProcessor{}
	s := New(fp, zerolog.Nop())

	var mu sync.Mutex
	seen := make(map[int]int)
	stats, err := s.Run(context.Background(), makeRows(21),
		func(res types.PricingResult) {
			mu.Lock()
			seen[res.RowIndex]++
			mu.Unlock()
		}, nil)

	require.NoError(t, err)
	assert.Equal(t, 21, stats.Processed)
	assert.Len(t, seen, 21)
	for idx, n := range seen {
		assert.Equal(t, 1, n, "row %d emitted %d times", idx, n)
	}
}

func TestRunCancelledKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fp := &fakeProcessor{delay: 5 * time.Millisecond}
	s := New(fp, zerolog.Nop())

	var mu sync.Mutex
	var emitted int
	stats, err := s.Run(ctx, makeRows(50),
		func(res types.PricingResult) {
			mu.Lock()
			emitted++
			mu.Unlock()
		},
		func(p Progress) {
			if p.Processed >= 5 {
				cancel()
			}
		},
	)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.GreaterOrEqual(t, stats.Processed, 5)
	assert.Less(t, stats.Processed, 50)
	mu.Lock()
	assert.Equal(t, stats.Processed, emitted)
	mu.Unlock()
}
