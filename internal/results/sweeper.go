package results

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically drops expired jobs from a store.
type Sweeper struct {
	store    *Store
	logger   zerolog.Logger
	interval time.Duration
	stopChan chan struct{}
}

// NewSweeper creates a retention sweeper for the store.
func NewSweeper(store *Store, logger zerolog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{
		store:    store,
		logger:   logger.With().Str("component", "results-sweeper").Logger(),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep. Blocks until the context is cancelled
// or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Starting results retention sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Results sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Results sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if removed := s.store.sweep(); removed > 0 {
				s.logger.Info().
					Int("removed", removed).
					Int("retained", s.store.Len()).
					Msg("Swept expired job results")
			}
		}
	}
}

// Stop signals the sweeper to stop.
func (s *Sweeper) Stop() {
	close(s.stopChan)
}
