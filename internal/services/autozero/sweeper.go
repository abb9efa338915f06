package autozero

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/homefleet/autopi-bridge/internal/appmetrics"
	"github.com/homefleet/autopi-bridge/internal/constants"
)

// ReadingPurger removes reading entries not observed since cutoff and
// reports how many were dropped.
type ReadingPurger interface {
	PurgeUnobserved(cutoff time.Time) int
}

// Sweeper periodically drops metrics nothing has reported on for longer than
// the retention window, from both the reading store and the zero-state table.
type Sweeper struct {
	log       zerolog.Logger
	manager   *Manager
	readings  ReadingPurger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
}

func NewSweeper(logger *zerolog.Logger, manager *Manager, readings ReadingPurger, interval, threshold time.Duration) *Sweeper {
	if interval == 0 {
		interval = constants.PurgeSweepInterval
	}
	if threshold == 0 {
		threshold = constants.ZeroStateRetention
	}

	return &Sweeper{
		log:       logger.With().Str("component", "autozero-sweeper").Logger(),
		manager:   manager,
		readings:  readings,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
	}
}

// Start runs one sweep immediately, then sweeps on the interval until Stop or
// context cancellation.
func (s *Sweeper) Start(ctx context.Context) {
	s.Sweep(time.Now())

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(time.Now())
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the sweeper.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}

// Sweep removes entries unobserved since now minus the retention threshold
// and persists if any zeroed entries went away.
func (s *Sweeper) Sweep(now time.Time) {
	cutoff := now.Add(-s.threshold)

	droppedReadings := 0
	if s.readings != nil {
		droppedReadings = s.readings.PurgeUnobserved(cutoff)
	}
	removed, zeroed := s.manager.PurgeUntouched(cutoff)

	total := droppedReadings + removed
	if total == 0 {
		s.log.Debug().Msg("Nothing to purge.")
		return
	}

	appmetrics.PurgedMetricsTotalOps.Add(float64(total))
	if zeroed > 0 {
		s.manager.RequestSave()
	}

	s.log.Info().
		Int("readings", droppedReadings).
		Int("states", removed).
		Int("zeroedStates", zeroed).
		Msg("Purged metrics unobserved past retention.")
}
