package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/goodtune/sitetime/internal/storage"
	"github.com/redis/go-redis/v9"
)

var (
	addDuration = redis.NewScript(addDurationScript)
	resetDomain = redis.NewScript(resetDomainScript)
)

type counterStore struct {
	client *redis.Client
	keys   keySpace
}

// Get returns the all-time total for a domain
func (s *counterStore) Get(ctx context.Context, domain string) (int64, error) {
	raw, err := s.client.HGet(ctx, s.keys.counters, domain).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// AddDuration atomically adds to the all-time and today counters
func (s *counterStore) AddDuration(ctx context.Context, domain string, deltaMS int64) error {
	if err := storage.ValidateDelta(domain, deltaMS); err != nil {
		return err
	}

	keys := []string{s.keys.counters, s.keys.today}
	return addDuration.Run(ctx, s.client, keys, domain, deltaMS).Err()
}

// ListAll returns a snapshot of the all-time counters
func (s *counterStore) ListAll(ctx context.Context) (map[string]int64, error) {
	return s.list(ctx, s.keys.counters)
}

// ListToday returns a snapshot of today's counters
func (s *counterStore) ListToday(ctx context.Context) (map[string]int64, error) {
	return s.list(ctx, s.keys.today)
}

func (s *counterStore) list(ctx context.Context, key string) (map[string]int64, error) {
	data, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	return parseCounters(data)
}

// ResetDomain removes a domain from both counter hashes
func (s *counterStore) ResetDomain(ctx context.Context, domain string) error {
	keys := []string{s.keys.counters, s.keys.today}
	removed, err := resetDomain.Run(ctx, s.client, keys, domain).Int64()
	if err != nil {
		return err
	}
	if removed == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ResetAll clears every counter, leaving settings untouched
func (s *counterStore) ResetAll(ctx context.Context) error {
	return s.client.Del(ctx, s.keys.counters, s.keys.today).Err()
}

// ResetToday clears the today bucket only
func (s *counterStore) ResetToday(ctx context.Context) error {
	return s.client.Del(ctx, s.keys.today).Err()
}
