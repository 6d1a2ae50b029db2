package bolt

import (
	"context"
	"fmt"

	"github.com/goodtune/sitetime/internal/storage"
	"go.etcd.io/bbolt"
)

type counterStore struct {
	db *bbolt.DB
}

func (s *counterStore) Get(ctx context.Context, domain string) (int64, error) {
	var ms int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketCounters))
		if b == nil {
			return nil
		}
		value := b.Get([]byte(domain))
		if value == nil {
			return nil
		}
		var err error
		ms, err = decodeMillis(value)
		return err
	})
	return ms, err
}

// AddDuration increments both buckets in one read-modify-write transaction.
// bbolt serializes writers, so overlapping commits never lose an update.
func (s *counterStore) AddDuration(ctx context.Context, domain string, deltaMS int64) error {
	if err := storage.ValidateDelta(domain, deltaMS); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		for _, name := range []string{bucketCounters, bucketToday} {
			b := tx.Bucket([]byte(name))
			if b == nil {
				return fmt.Errorf("%s bucket missing", name)
			}
			var current int64
			if existing := b.Get([]byte(domain)); existing != nil {
				var err error
				if current, err = decodeMillis(existing); err != nil {
					return err
				}
			}
			if err := b.Put([]byte(domain), encodeMillis(current+deltaMS)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *counterStore) ListAll(ctx context.Context) (map[string]int64, error) {
	return listCounters(ctx, s.db, bucketCounters)
}

func (s *counterStore) ListToday(ctx context.Context) (map[string]int64, error) {
	return listCounters(ctx, s.db, bucketToday)
}

func (s *counterStore) ResetDomain(ctx context.Context, domain string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		counters := tx.Bucket([]byte(bucketCounters))
		if counters == nil || counters.Get([]byte(domain)) == nil {
			return storage.ErrNotFound
		}
		if err := counters.Delete([]byte(domain)); err != nil {
			return err
		}
		if today := tx.Bucket([]byte(bucketToday)); today != nil {
			return today.Delete([]byte(domain))
		}
		return nil
	})
}

func (s *counterStore) ResetAll(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := recreateBucket(tx, bucketCounters); err != nil {
			return err
		}
		return recreateBucket(tx, bucketToday)
	})
}

func (s *counterStore) ResetToday(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return recreateBucket(tx, bucketToday)
	})
}
