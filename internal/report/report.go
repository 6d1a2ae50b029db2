// Package report summarizes counter snapshots for the dashboard and CLI.
package report

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/goodtune/sitetime/internal/classify"
	"github.com/goodtune/sitetime/internal/site"
	"github.com/goodtune/sitetime/internal/storage"
)

// Scope selects which counter bucket a summary covers.
type Scope string

const (
	ScopeToday Scope = "today"
	ScopeAll   Scope = "all"
)

// ParseScope validates a scope name. Empty means today.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeToday:
		return ScopeToday, nil
	case ScopeAll:
		return ScopeAll, nil
	default:
		return "", fmt.Errorf("invalid scope %q (must be today or all)", s)
	}
}

// SiteUsage is the time spent on one display domain.
type SiteUsage struct {
	Domain       string            `json:"domain"`
	MS           int64             `json:"ms"`
	Minutes      int64             `json:"minutes"`
	SharePercent int64             `json:"share_percent"`
	Category     classify.Category `json:"category"`
}

// GoalProgress tracks productive time against the daily goal.
type GoalProgress struct {
	GoalMinutes       int     `json:"goal_minutes"`
	ProductiveMinutes int64   `json:"productive_minutes"`
	Percent           float64 `json:"percent"`
	RemainingMinutes  int64   `json:"remaining_minutes"`
	Achieved          bool    `json:"achieved"`
}

// Summary is the report for one scope.
type Summary struct {
	Scope           Scope         `json:"scope"`
	TotalMS         int64         `json:"total_ms"`
	ProductiveMS    int64         `json:"productive_ms"`
	DistractingMS   int64         `json:"distracting_ms"`
	NeutralMS       int64         `json:"neutral_ms"`
	Goal            *GoalProgress `json:"goal,omitempty"`
	HideDistracting bool          `json:"hide_distracting"`
	Sites           []SiteUsage   `json:"sites"`
}

// Build computes a summary from a counter snapshot.
// Productive time is everything not classified as distracting.
func Build(ctx context.Context, scope Scope, counters map[string]int64, settings storage.Settings, classifier classify.Classifier) *Summary {
	merged := make(map[string]int64, len(counters))
	for domain, ms := range counters {
		if ms <= 0 {
			continue
		}
		merged[site.DisplayName(domain)] += ms
	}

	summary := &Summary{
		Scope:           scope,
		HideDistracting: settings.HideDistracting,
		Sites:           make([]SiteUsage, 0, len(merged)),
	}

	for domain, ms := range merged {
		category := classifier.Classify(ctx, domain)

		summary.TotalMS += ms
		switch category {
		case classify.Distracting:
			summary.DistractingMS += ms
		case classify.Productive:
			summary.ProductiveMS += ms
		default:
			summary.NeutralMS += ms
		}

		minutes := Minutes(ms)
		if minutes < 1 {
			continue
		}
		if settings.HideDistracting && category == classify.Distracting {
			continue
		}
		summary.Sites = append(summary.Sites, SiteUsage{
			Domain:   domain,
			MS:       ms,
			Minutes:  minutes,
			Category: category,
		})
	}

	totalMinutes := Minutes(summary.TotalMS)
	for i := range summary.Sites {
		if totalMinutes > 0 {
			summary.Sites[i].SharePercent = int64(math.Round(float64(summary.Sites[i].Minutes) / float64(totalMinutes) * 100))
		}
	}

	sort.Slice(summary.Sites, func(i, j int) bool {
		if summary.Sites[i].MS != summary.Sites[j].MS {
			return summary.Sites[i].MS > summary.Sites[j].MS
		}
		return summary.Sites[i].Domain < summary.Sites[j].Domain
	})

	if settings.DailyGoalMinutes != nil && *settings.DailyGoalMinutes > 0 {
		summary.Goal = progress(*settings.DailyGoalMinutes, summary.TotalMS-summary.DistractingMS)
	}

	return summary
}

func progress(goalMinutes int, productiveMS int64) *GoalProgress {
	productive := Minutes(productiveMS)
	percent := math.Min(float64(productive)/float64(goalMinutes)*100, 100)
	remaining := int64(goalMinutes) - productive
	if remaining < 0 {
		remaining = 0
	}

	return &GoalProgress{
		GoalMinutes:       goalMinutes,
		ProductiveMinutes: productive,
		Percent:           percent,
		RemainingMinutes:  remaining,
		Achieved:          percent >= 100,
	}
}

// Minutes converts milliseconds to whole minutes, rounding half up.
func Minutes(ms int64) int64 {
	return int64(math.Round(float64(ms) / 60000))
}

// FormatMinutes renders minutes as "45m", "2h" or "1h 5m".
func FormatMinutes(minutes int64) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dh", hours)
}

// Reporter builds summaries straight from storage.
type Reporter struct {
	counters   storage.CounterStore
	settings   storage.SettingsStore
	classifier classify.Classifier
}

// NewReporter creates a reporter.
func NewReporter(counters storage.CounterStore, settings storage.SettingsStore, classifier classify.Classifier) *Reporter {
	return &Reporter{counters: counters, settings: settings, classifier: classifier}
}

// Summary reads the counters for scope and the current settings.
func (r *Reporter) Summary(ctx context.Context, scope Scope) (*Summary, error) {
	var (
		counters map[string]int64
		err      error
	)
	switch scope {
	case ScopeAll:
		counters, err = r.counters.ListAll(ctx)
	default:
		scope = ScopeToday
		counters, err = r.counters.ListToday(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s counters: %w", scope, err)
	}

	settings, err := r.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return Build(ctx, scope, counters, settings, r.classifier), nil
}
