package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// ErrInvalidDuration is returned when a commit carries a non-positive duration.
var ErrInvalidDuration = errors.New("storage: duration must be positive")

// Store represents the root storage interface.
// Counters and settings live in separate namespaces so a domain name can
// never shadow a setting.
type Store interface {
	Close() error
	Counters() CounterStore
	Settings() SettingsStore
}

// CounterStore manages accumulated per-domain durations in milliseconds.
type CounterStore interface {
	// Get returns the all-time total for domain, or 0 if absent.
	Get(ctx context.Context, domain string) (int64, error)
	// AddDuration atomically adds deltaMS to both the all-time and the
	// today counter for domain, creating them if absent.
	AddDuration(ctx context.Context, domain string, deltaMS int64) error
	ListAll(ctx context.Context) (map[string]int64, error)
	ListToday(ctx context.Context) (map[string]int64, error)
	ResetDomain(ctx context.Context, domain string) error
	ResetAll(ctx context.Context) error
	ResetToday(ctx context.Context) error
}

// SettingsStore manages the scalar user settings.
type SettingsStore interface {
	// Get returns the stored settings; missing fields take their defaults.
	Get(ctx context.Context) (Settings, error)
	SetTrackingEnabled(ctx context.Context, enabled bool) error
	// SetDailyGoal stores the goal in minutes; nil clears it.
	SetDailyGoal(ctx context.Context, minutes *int) error
	SetHideDistracting(ctx context.Context, hide bool) error
}
