package tracker

import (
	"context"
	"time"

	"github.com/goodtune/sitetime/internal/storage"
	"github.com/rs/zerolog"
)

// resetTimeout bounds a single daily reset against the store.
const resetTimeout = 30 * time.Second

// ResetScheduler clears the today bucket once a day.
type ResetScheduler struct {
	counters  storage.CounterStore
	resetTime time.Time // Time of day to reset (only hour and minute are used)
	clock     Clock
	logger    zerolog.Logger
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewResetScheduler creates a new reset scheduler
func NewResetScheduler(counters storage.CounterStore, resetTime string, clock Clock, logger zerolog.Logger) (*ResetScheduler, error) {
	// Parse reset time (HH:MM format)
	parsedTime, err := time.Parse("15:04", resetTime)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = RealClock{}
	}

	return &ResetScheduler{
		counters:  counters,
		resetTime: parsedTime,
		clock:     clock,
		logger:    logger.With().Str("component", "reset-scheduler").Logger(),
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}, nil
}

// Start begins the reset scheduler
func (rs *ResetScheduler) Start() {
	go rs.run()
	rs.logger.Info().
		Str("reset_time", rs.resetTime.Format("15:04")).
		Msg("Daily reset scheduler started")
}

// Stop stops the reset scheduler and waits for it to exit
func (rs *ResetScheduler) Stop() {
	close(rs.stopChan)
	<-rs.doneChan
	rs.logger.Info().Msg("Daily reset scheduler stopped")
}

func (rs *ResetScheduler) run() {
	defer close(rs.doneChan)

	for {
		nextReset := rs.nextReset(rs.clock.Now())
		waitDuration := nextReset.Sub(rs.clock.Now())

		rs.logger.Info().
			Time("next_reset", nextReset).
			Dur("wait_duration", waitDuration).
			Msg("Scheduled next daily reset")

		timer := time.NewTimer(waitDuration)
		select {
		case <-timer.C:
			rs.performReset()
		case <-rs.stopChan:
			timer.Stop()
			return
		}
	}
}

// nextReset returns the first reset time strictly after now.
func (rs *ResetScheduler) nextReset(now time.Time) time.Time {
	todayReset := time.Date(
		now.Year(), now.Month(), now.Day(),
		rs.resetTime.Hour(), rs.resetTime.Minute(), 0, 0,
		now.Location(),
	)

	// If we've already reached today's reset time, schedule for tomorrow
	if !now.Before(todayReset) {
		return todayReset.AddDate(0, 0, 1)
	}

	return todayReset
}

func (rs *ResetScheduler) performReset() {
	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()

	if err := rs.counters.ResetToday(ctx); err != nil {
		rs.logger.Error().Err(err).Msg("Failed to reset today's counters")
		return
	}

	rs.logger.Info().Msg("Daily reset complete")
}
