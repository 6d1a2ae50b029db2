package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestResetSchedulerNextReset(t *testing.T) {
	rs, err := NewResetScheduler(newMemStore(true), "03:30", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("new reset scheduler: %v", err)
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before reset time",
			now:  time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 1, 3, 30, 0, 0, time.UTC),
		},
		{
			name: "exactly at reset time",
			now:  time.Date(2024, 3, 1, 3, 30, 0, 0, time.UTC),
			want: time.Date(2024, 3, 2, 3, 30, 0, 0, time.UTC),
		},
		{
			name: "after reset time",
			now:  time.Date(2024, 3, 1, 22, 15, 0, 0, time.UTC),
			want: time.Date(2024, 3, 2, 3, 30, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			now:  time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC),
			want: time.Date(2024, 3, 1, 3, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rs.nextReset(tt.now); !got.Equal(tt.want) {
				t.Errorf("nextReset(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestResetSchedulerInvalidTime(t *testing.T) {
	if _, err := NewResetScheduler(newMemStore(true), "25:00", nil, zerolog.Nop()); err == nil {
		t.Fatal("expected error for invalid reset time")
	}
}

func TestResetSchedulerClearsTodayOnly(t *testing.T) {
	store := newMemStore(true)
	ctx := context.Background()
	_ = store.AddDuration(ctx, "github.com", 1000)

	rs, err := NewResetScheduler(store, "00:00", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("new reset scheduler: %v", err)
	}
	rs.performReset()

	today, _ := store.ListToday(ctx)
	if len(today) != 0 {
		t.Fatalf("expected today bucket cleared, got %v", today)
	}
	all, _ := store.ListAll(ctx)
	if all["github.com"] != 1000 {
		t.Fatalf("expected all-time counter kept, got %v", all)
	}
}

func TestResetSchedulerStartStop(t *testing.T) {
	clock := &TestClock{CurrentTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rs, err := NewResetScheduler(newMemStore(true), "00:00", clock, zerolog.Nop())
	if err != nil {
		t.Fatalf("new reset scheduler: %v", err)
	}

	rs.Start()
	done := make(chan struct{})
	go func() {
		rs.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
