package redis

import (
	"fmt"
	"strconv"

	"github.com/goodtune/sitetime/internal/storage"
)

const (
	fieldTrackingEnabled  = "tracking_enabled"
	fieldDailyGoalMinutes = "daily_goal_minutes"
	fieldHideDistracting  = "hide_distracting"
)

// parseCounters converts a Redis hash of domain -> milliseconds
func parseCounters(data map[string]string) (map[string]int64, error) {
	counters := make(map[string]int64, len(data))
	for domain, raw := range data {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse counter for %s: %w", domain, err)
		}
		counters[domain] = ms
	}
	return counters, nil
}

// parseSettings converts the settings hash, falling back to defaults for absent fields
func parseSettings(data map[string]string) (storage.Settings, error) {
	settings := storage.DefaultSettings()

	if raw, ok := data[fieldTrackingEnabled]; ok {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return settings, fmt.Errorf("failed to parse %s: %w", fieldTrackingEnabled, err)
		}
		settings.TrackingEnabled = enabled
	}

	if raw, ok := data[fieldDailyGoalMinutes]; ok {
		goal, err := strconv.Atoi(raw)
		if err != nil {
			return settings, fmt.Errorf("failed to parse %s: %w", fieldDailyGoalMinutes, err)
		}
		settings.DailyGoalMinutes = &goal
	}

	if raw, ok := data[fieldHideDistracting]; ok {
		hide, err := strconv.ParseBool(raw)
		if err != nil {
			return settings, fmt.Errorf("failed to parse %s: %w", fieldHideDistracting, err)
		}
		settings.HideDistracting = hide
	}

	return settings, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
