// Package tracker attributes focused time to website domains.
//
// A Tracker owns the single active session. Host events are queued and
// handled one at a time by Run, so a flush and the state change that
// follows it are never interleaved with another event.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goodtune/sitetime/internal/metrics"
	"github.com/goodtune/sitetime/internal/site"
	"github.com/goodtune/sitetime/internal/storage"
	"github.com/rs/zerolog"
)

// DefaultQueueSize is the event buffer used when Config.QueueSize is unset.
const DefaultQueueSize = 64

// ErrStopped is returned for events submitted after Run has exited.
var ErrStopped = errors.New("tracker stopped")

// Config holds tracker configuration
type Config struct {
	QueueSize int
	Clock     Clock
}

type event struct {
	kind   string
	handle func(ctx context.Context) error
	result chan error
}

// Tracker manages the focused-domain session
type Tracker struct {
	counters storage.CounterStore
	settings storage.SettingsStore
	clock    Clock
	logger   zerolog.Logger

	events  chan event
	stopped chan struct{}

	// session is only touched by the Run goroutine.
	session *Session
	enabled atomic.Bool

	mu       sync.Mutex
	watchers map[chan bool]struct{}
}

// New creates a tracker and loads the persisted tracking flag.
func New(ctx context.Context, counters storage.CounterStore, settings storage.SettingsStore, cfg Config, logger zerolog.Logger) (*Tracker, error) {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}

	current, err := settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	t := &Tracker{
		counters: counters,
		settings: settings,
		clock:    cfg.Clock,
		logger:   logger.With().Str("component", "tracker").Logger(),
		events:   make(chan event, cfg.QueueSize),
		stopped:  make(chan struct{}),
		watchers: make(map[chan bool]struct{}),
	}
	t.enabled.Store(current.TrackingEnabled)
	metrics.TrackingEnabled.Set(boolGauge(current.TrackingEnabled))

	return t, nil
}

// Run consumes events until ctx is cancelled. It must be called exactly once.
func (t *Tracker) Run(ctx context.Context) error {
	defer close(t.stopped)

	t.logger.Info().Bool("tracking_enabled", t.enabled.Load()).Msg("Tracker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("Tracker stopped")
			return ctx.Err()
		case ev := <-t.events:
			start := time.Now()
			err := ev.handle(ctx)
			metrics.EventsTotal.WithLabelValues(ev.kind).Inc()
			metrics.EventDuration.WithLabelValues(ev.kind).Observe(time.Since(start).Seconds())
			ev.result <- err
		}
	}
}

// submit enqueues an event and waits for Run to finish handling it.
func (t *Tracker) submit(ctx context.Context, kind string, handle func(ctx context.Context) error) error {
	ev := event{kind: kind, handle: handle, result: make(chan error, 1)}

	select {
	case t.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	case <-t.stopped:
		return ErrStopped
	}

	select {
	case err := <-ev.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-t.stopped:
		return ErrStopped
	}
}

// FocusChanged commits time for the current domain and starts a session
// for the tab's domain. Tabs without a trackable domain end the session.
func (t *Tracker) FocusChanged(ctx context.Context, tab TabInfo) error {
	return t.submit(ctx, "focus", func(ctx context.Context) error {
		now := t.clock.Now()
		t.flush(ctx, now, flushFocus)

		domain, err := site.Domain(tab.URL)
		if err != nil {
			reason := site.Reason(err)
			metrics.IgnoredURLs.WithLabelValues(reason).Inc()
			t.logger.Debug().
				Err(err).
				Int("tab_id", tab.TabID).
				Str("reason", reason).
				Msg("Focused tab has no trackable domain")
			t.session = nil
			return nil
		}

		t.session = &Session{Domain: domain, StartedAt: now, TabID: tab.TabID}
		t.logger.Debug().
			Str("domain", domain).
			Int("tab_id", tab.TabID).
			Msg("Session started")
		return nil
	})
}

// Idle commits the time accrued so far and restarts the session clock.
// The active domain is kept.
func (t *Tracker) Idle(ctx context.Context) error {
	return t.submit(ctx, "idle", func(ctx context.Context) error {
		t.flush(ctx, t.clock.Now(), flushIdle)
		return nil
	})
}

// Resume restarts the session clock without committing, so time spent
// idle is not attributed to the domain.
func (t *Tracker) Resume(ctx context.Context) error {
	return t.submit(ctx, "resume", func(ctx context.Context) error {
		if t.session != nil {
			t.session.StartedAt = t.clock.Now()
		}
		return nil
	})
}

// Flush commits pending time without changing the active domain.
func (t *Tracker) Flush(ctx context.Context) error {
	return t.submit(ctx, "flush", func(ctx context.Context) error {
		t.flush(ctx, t.clock.Now(), flushShutdown)
		return nil
	})
}

// SetTrackingEnabled persists the flag and notifies watchers.
// The session is neither flushed nor cleared. Re-enabling restarts the
// session clock so time accrued while disabled is never committed.
func (t *Tracker) SetTrackingEnabled(ctx context.Context, enabled bool) error {
	return t.submit(ctx, "tracking", func(ctx context.Context) error {
		if err := t.settings.SetTrackingEnabled(ctx, enabled); err != nil {
			return fmt.Errorf("persist tracking flag: %w", err)
		}

		previous := t.enabled.Swap(enabled)
		if enabled && !previous && t.session != nil {
			t.session.StartedAt = t.clock.Now()
		}
		metrics.TrackingEnabled.Set(boolGauge(enabled))

		t.logger.Info().Bool("tracking_enabled", enabled).Msg("Tracking state changed")
		t.broadcast(enabled)
		return nil
	})
}

// TrackingEnabled returns the in-memory tracking flag.
func (t *Tracker) TrackingEnabled() bool {
	return t.enabled.Load()
}

// State returns a snapshot of the current session.
func (t *Tracker) State(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := t.submit(ctx, "state", func(context.Context) error {
		snap.TrackingEnabled = t.enabled.Load()
		if t.session == nil {
			return nil
		}
		started := t.session.StartedAt
		snap.Domain = t.session.Domain
		snap.TabID = t.session.TabID
		snap.StartedAt = &started
		if snap.TrackingEnabled {
			if pending := t.clock.Now().Sub(started).Milliseconds(); pending > 0 {
				snap.PendingMS = pending
			}
		}
		return nil
	})
	return snap, err
}

// Watch returns a channel that receives the tracking flag whenever it
// changes, and a function that stops the subscription. Slow receivers
// only see the latest value.
func (t *Tracker) Watch() (<-chan bool, func()) {
	ch := make(chan bool, 1)

	t.mu.Lock()
	t.watchers[ch] = struct{}{}
	t.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.watchers, ch)
			t.mu.Unlock()
		})
	}
	return ch, cancel
}

func (t *Tracker) broadcast(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for ch := range t.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- enabled
	}
}

// flush commits the elapsed session time and restarts the session clock.
// Store failures are logged and the interval is dropped.
func (t *Tracker) flush(ctx context.Context, now time.Time, reason string) {
	if t.session == nil {
		return
	}

	domain := t.session.Domain
	elapsed := now.Sub(t.session.StartedAt).Milliseconds()
	t.session.StartedAt = now

	if !t.enabled.Load() || elapsed <= 0 {
		return
	}

	metrics.Flushes.WithLabelValues(reason).Inc()

	if err := t.counters.AddDuration(ctx, domain, elapsed); err != nil {
		metrics.CommitErrors.Inc()
		t.logger.Error().
			Err(err).
			Str("domain", domain).
			Int64("elapsed_ms", elapsed).
			Str("reason", reason).
			Msg("Failed to commit session time")
		return
	}

	metrics.CommittedSeconds.WithLabelValues(domain).Add(float64(elapsed) / 1000)
	t.logger.Debug().
		Str("domain", domain).
		Int64("elapsed_ms", elapsed).
		Str("reason", reason).
		Msg("Committed session time")
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
