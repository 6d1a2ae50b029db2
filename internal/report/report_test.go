package report

import (
	"context"
	"testing"

	"github.com/goodtune/sitetime/internal/classify"
	"github.com/goodtune/sitetime/internal/storage"
)

const minute = int64(60000)

var testClassifier = classify.Func(func(_ context.Context, domain string) classify.Category {
	switch domain {
	case "github.com", "docs.google.com":
		return classify.Productive
	case "youtube.com", "reddit.com":
		return classify.Distracting
	default:
		return classify.Neutral
	}
})

func goal(minutes int) *int { return &minutes }

func TestBuildTotals(t *testing.T) {
	counters := map[string]int64{
		"github.com":  30 * minute,
		"youtube.com": 20 * minute,
		"example.org": 10 * minute,
	}

	s := Build(context.Background(), ScopeToday, counters, storage.DefaultSettings(), testClassifier)

	if s.TotalMS != 60*minute {
		t.Errorf("expected total 60m, got %d", s.TotalMS)
	}
	if s.ProductiveMS != 30*minute || s.DistractingMS != 20*minute || s.NeutralMS != 10*minute {
		t.Errorf("unexpected split: %+v", s)
	}
	if s.Goal != nil {
		t.Errorf("expected no goal progress without a goal, got %+v", s.Goal)
	}
	if len(s.Sites) != 3 {
		t.Fatalf("expected 3 sites, got %d", len(s.Sites))
	}
	if s.Sites[0].Domain != "github.com" || s.Sites[0].SharePercent != 50 {
		t.Errorf("unexpected top site: %+v", s.Sites[0])
	}
}

func TestBuildGoalProgress(t *testing.T) {
	tests := []struct {
		name          string
		counters      map[string]int64
		goal          int
		wantPercent   float64
		wantRemaining int64
		wantAchieved  bool
	}{
		{
			name:          "neutral counts as productive",
			counters:      map[string]int64{"github.com": 30 * minute, "example.org": 15 * minute, "youtube.com": 60 * minute},
			goal:          90,
			wantPercent:   50,
			wantRemaining: 45,
		},
		{
			name:          "capped at 100",
			counters:      map[string]int64{"github.com": 200 * minute},
			goal:          120,
			wantPercent:   100,
			wantRemaining: 0,
			wantAchieved:  true,
		},
		{
			name:          "no time yet",
			counters:      map[string]int64{},
			goal:          60,
			wantPercent:   0,
			wantRemaining: 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := storage.DefaultSettings()
			settings.DailyGoalMinutes = goal(tt.goal)

			s := Build(context.Background(), ScopeToday, tt.counters, settings, testClassifier)
			if s.Goal == nil {
				t.Fatal("expected goal progress")
			}
			if s.Goal.Percent != tt.wantPercent {
				t.Errorf("expected %.1f%%, got %.1f%%", tt.wantPercent, s.Goal.Percent)
			}
			if s.Goal.RemainingMinutes != tt.wantRemaining {
				t.Errorf("expected %d remaining, got %d", tt.wantRemaining, s.Goal.RemainingMinutes)
			}
			if s.Goal.Achieved != tt.wantAchieved {
				t.Errorf("expected achieved=%v, got %v", tt.wantAchieved, s.Goal.Achieved)
			}
		})
	}
}

func TestBuildHideDistractingKeepsTotals(t *testing.T) {
	counters := map[string]int64{
		"github.com":  10 * minute,
		"reddit.com":  40 * minute,
		"youtube.com": 5 * minute,
	}
	settings := storage.DefaultSettings()
	settings.HideDistracting = true

	s := Build(context.Background(), ScopeAll, counters, settings, testClassifier)

	if len(s.Sites) != 1 || s.Sites[0].Domain != "github.com" {
		t.Fatalf("expected only github.com listed, got %+v", s.Sites)
	}
	if s.DistractingMS != 45*minute || s.TotalMS != 55*minute {
		t.Errorf("hidden sites must still count in totals: %+v", s)
	}
}

func TestBuildSitesOrderingAndFiltering(t *testing.T) {
	counters := map[string]int64{
		"b.example":       5 * minute,
		"a.example":       5 * minute,
		"c.example":       9 * minute,
		"blip.example":    20000, // rounds to 0 minutes
		"www.github.com":  2 * minute,
		"github.com":      1 * minute,
		"zero.example":    0,
		"negative.sample": -5,
	}

	s := Build(context.Background(), ScopeAll, counters, storage.DefaultSettings(), testClassifier)

	want := []string{"c.example", "a.example", "b.example", "github.com"}
	if len(s.Sites) != len(want) {
		t.Fatalf("expected %d sites, got %+v", len(want), s.Sites)
	}
	for i, domain := range want {
		if s.Sites[i].Domain != domain {
			t.Errorf("site %d: expected %s, got %s", i, domain, s.Sites[i].Domain)
		}
	}
	if s.Sites[3].Minutes != 3 || s.Sites[3].Category != classify.Productive {
		t.Errorf("expected www.github.com merged into github.com, got %+v", s.Sites[3])
	}
	if s.TotalMS != 22*minute+20000 {
		t.Errorf("sub-minute sites still count in totals, got %d", s.TotalMS)
	}
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": ScopeToday, "today": ScopeToday, "all": ScopeAll} {
		got, err := ParseScope(in)
		if err != nil || got != want {
			t.Errorf("ParseScope(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseScope("week"); err == nil {
		t.Error("expected error for unknown scope")
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := map[int64]string{0: "0m", 45: "45m", 60: "1h", 65: "1h 5m", 150: "2h 30m"}
	for in, want := range tests {
		if got := FormatMinutes(in); got != want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", in, got, want)
		}
	}
}

type stubCounters struct {
	storage.CounterStore
	all, today map[string]int64
}

func (s stubCounters) ListAll(context.Context) (map[string]int64, error)   { return s.all, nil }
func (s stubCounters) ListToday(context.Context) (map[string]int64, error) { return s.today, nil }

type stubSettings struct {
	storage.SettingsStore
	settings storage.Settings
}

func (s stubSettings) Get(context.Context) (storage.Settings, error) { return s.settings, nil }

func TestReporterSummaryScopes(t *testing.T) {
	counters := stubCounters{
		all:   map[string]int64{"github.com": 90 * minute},
		today: map[string]int64{"github.com": 15 * minute},
	}
	r := NewReporter(counters, stubSettings{settings: storage.DefaultSettings()}, testClassifier)

	today, err := r.Summary(context.Background(), ScopeToday)
	if err != nil {
		t.Fatalf("today summary: %v", err)
	}
	if today.TotalMS != 15*minute || today.Scope != ScopeToday {
		t.Errorf("unexpected today summary: %+v", today)
	}

	all, err := r.Summary(context.Background(), ScopeAll)
	if err != nil {
		t.Fatalf("all summary: %v", err)
	}
	if all.TotalMS != 90*minute {
		t.Errorf("unexpected all summary: %+v", all)
	}
}
