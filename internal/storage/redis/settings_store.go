package redis

import (
	"context"
	"strconv"

	"github.com/goodtune/sitetime/internal/storage"
	"github.com/redis/go-redis/v9"
)

type settingsStore struct {
	client *redis.Client
	keys   keySpace
}

// Get returns the stored settings
func (s *settingsStore) Get(ctx context.Context) (storage.Settings, error) {
	data, err := s.client.HGetAll(ctx, s.keys.settings).Result()
	if err != nil {
		return storage.DefaultSettings(), err
	}
	return parseSettings(data)
}

// SetTrackingEnabled persists the tracking flag
func (s *settingsStore) SetTrackingEnabled(ctx context.Context, enabled bool) error {
	return s.client.HSet(ctx, s.keys.settings, fieldTrackingEnabled, formatBool(enabled)).Err()
}

// SetDailyGoal persists the daily goal, or clears it when minutes is nil
func (s *settingsStore) SetDailyGoal(ctx context.Context, minutes *int) error {
	if err := storage.ValidateGoal(minutes); err != nil {
		return err
	}
	if minutes == nil {
		return s.client.HDel(ctx, s.keys.settings, fieldDailyGoalMinutes).Err()
	}
	return s.client.HSet(ctx, s.keys.settings, fieldDailyGoalMinutes, strconv.Itoa(*minutes)).Err()
}

// SetHideDistracting persists the hide-distracting preference
func (s *settingsStore) SetHideDistracting(ctx context.Context, hide bool) error {
	return s.client.HSet(ctx, s.keys.settings, fieldHideDistracting, formatBool(hide)).Err()
}
