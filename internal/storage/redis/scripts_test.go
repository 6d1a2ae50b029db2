package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a miniredis instance for testing Lua scripts
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func TestAddDurationScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()
	defer mr.Close()

	ctx := context.Background()
	keys := []string{"sitetime:counters", "sitetime:today"}

	tests := []struct {
		name      string
		domain    string
		delta     int64
		wantTotal int64
	}{
		{name: "create entry", domain: "github.com", delta: 1000, wantTotal: 1000},
		{name: "accumulate entry", domain: "github.com", delta: 500, wantTotal: 1500},
		{name: "independent domain", domain: "youtube.com", delta: 250, wantTotal: 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := client.Eval(ctx, addDurationScript, keys, tt.domain, tt.delta).Int64()
			if err != nil {
				t.Fatalf("Script execution failed: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, total)
			}

			today := mr.HGet("sitetime:today", tt.domain)
			if today != mr.HGet("sitetime:counters", tt.domain) {
				t.Errorf("Expected today and all-time to match on a fresh store, got today=%s all=%s",
					today, mr.HGet("sitetime:counters", tt.domain))
			}
		})
	}
}

func TestAddDurationScript_ConcurrentCommitsAreLossless(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()
	defer mr.Close()

	ctx := context.Background()
	keys := []string{"sitetime:counters", "sitetime:today"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := client.Eval(ctx, addDurationScript, keys, "example.com", 10).Err(); err != nil {
				t.Errorf("Script execution failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := mr.HGet("sitetime:counters", "example.com"); got != "500" {
		t.Errorf("Expected counters total 500, got %s", got)
	}
	if got := mr.HGet("sitetime:today", "example.com"); got != "500" {
		t.Errorf("Expected today total 500, got %s", got)
	}
}

func TestResetDomainScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()
	defer mr.Close()

	ctx := context.Background()
	keys := []string{"sitetime:counters", "sitetime:today"}

	mr.HSet("sitetime:counters", "github.com", "1000")
	mr.HSet("sitetime:today", "github.com", "400")
	mr.HSet("sitetime:counters", "notion.so", "300")

	removed, err := client.Eval(ctx, resetDomainScript, keys, "github.com").Int64()
	if err != nil {
		t.Fatalf("Script execution failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed field, got %d", removed)
	}

	if mr.HGet("sitetime:counters", "github.com") != "" {
		t.Error("github.com should be removed from counters")
	}
	if mr.HGet("sitetime:today", "github.com") != "" {
		t.Error("github.com should be removed from today")
	}
	if mr.HGet("sitetime:counters", "notion.so") != "300" {
		t.Error("notion.so should be untouched")
	}

	removed, err = client.Eval(ctx, resetDomainScript, keys, "missing.example").Int64()
	if err != nil {
		t.Fatalf("Script execution failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected 0 removed fields for missing domain, got %d", removed)
	}
}
