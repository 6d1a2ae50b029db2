package bolt

import (
	"context"
	"fmt"

	"github.com/goodtune/sitetime/internal/storage"
	"go.etcd.io/bbolt"
)

type settingsStore struct {
	db *bbolt.DB
}

func (s *settingsStore) Get(ctx context.Context) (storage.Settings, error) {
	settings := storage.DefaultSettings()
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketSettings))
		if b == nil {
			return nil
		}
		value := b.Get([]byte(settingsKey))
		if value == nil {
			return nil
		}
		return unmarshal(value, &settings)
	})
	return settings, err
}

func (s *settingsStore) SetTrackingEnabled(ctx context.Context, enabled bool) error {
	return s.update(ctx, func(settings *storage.Settings) {
		settings.TrackingEnabled = enabled
	})
}

func (s *settingsStore) SetDailyGoal(ctx context.Context, minutes *int) error {
	if err := storage.ValidateGoal(minutes); err != nil {
		return err
	}
	return s.update(ctx, func(settings *storage.Settings) {
		if minutes == nil {
			settings.DailyGoalMinutes = nil
			return
		}
		goal := *minutes
		settings.DailyGoalMinutes = &goal
	})
}

func (s *settingsStore) SetHideDistracting(ctx context.Context, hide bool) error {
	return s.update(ctx, func(settings *storage.Settings) {
		settings.HideDistracting = hide
	})
}

// update applies mutate to the stored record within a single transaction.
func (s *settingsStore) update(ctx context.Context, mutate func(*storage.Settings)) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketSettings))
		if b == nil {
			return fmt.Errorf("settings bucket missing")
		}

		settings := storage.DefaultSettings()
		if existing := b.Get([]byte(settingsKey)); existing != nil {
			if err := unmarshal(existing, &settings); err != nil {
				return err
			}
		}

		mutate(&settings)

		data, err := marshal(settings)
		if err != nil {
			return err
		}
		return b.Put([]byte(settingsKey), data)
	})
}
