package storage

import (
	"fmt"
	"strings"
)

// Settings holds the user preferences persisted next to the counters.
type Settings struct {
	TrackingEnabled  bool `json:"tracking_enabled"`
	DailyGoalMinutes *int `json:"daily_goal_minutes,omitempty"`
	HideDistracting  bool `json:"hide_distracting"`
}

// DefaultSettings returns the settings used when nothing has been stored yet.
func DefaultSettings() Settings {
	return Settings{TrackingEnabled: true}
}

// ValidateGoal checks that a daily goal, when set, is a positive number of minutes.
func ValidateGoal(minutes *int) error {
	if minutes != nil && *minutes <= 0 {
		return fmt.Errorf("invalid daily goal: %d (must be a positive number of minutes)", *minutes)
	}
	return nil
}

// ValidateDelta rejects empty domains and non-positive durations before a commit.
func ValidateDelta(domain string, deltaMS int64) error {
	if strings.TrimSpace(domain) == "" {
		return fmt.Errorf("empty domain")
	}
	if deltaMS <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, deltaMS)
	}
	return nil
}
