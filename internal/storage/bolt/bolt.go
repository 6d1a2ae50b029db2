package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/goodtune/sitetime/internal/storage"
	"go.etcd.io/bbolt"
)

const (
	bucketCounters = "counters"
	bucketToday    = "today"
	bucketSettings = "settings"

	settingsKey = "settings"
)

// Store implements the storage.Store interface using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return storage.EnsureDir(dir)
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{
			[]byte(bucketCounters),
			[]byte(bucketToday),
			[]byte(bucketSettings),
		}

		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Counters returns the counter store.
func (s *Store) Counters() storage.CounterStore { return &counterStore{db: s.db} }

// Settings returns the settings store.
func (s *Store) Settings() storage.SettingsStore { return &settingsStore{db: s.db} }

func marshal(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}

func unmarshal(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	return nil
}

func encodeMillis(ms int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(ms))
	return buf
}

func decodeMillis(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid counter value length: %d", len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

func listCounters(ctx context.Context, db *bbolt.DB, bucket string) (map[string]int64, error) {
	counters := make(map[string]int64)
	return counters, db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ms, err := decodeMillis(v)
			if err != nil {
				return fmt.Errorf("counter %s: %w", k, err)
			}
			counters[string(k)] = ms
			return nil
		})
	})
}

// recreateBucket drops and recreates a bucket inside tx.
func recreateBucket(tx *bbolt.Tx, name string) error {
	if err := tx.DeleteBucket([]byte(name)); err != nil && err != bbolt.ErrBucketNotFound {
		return fmt.Errorf("delete bucket %s: %w", name, err)
	}
	if _, err := tx.CreateBucket([]byte(name)); err != nil {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	return nil
}
