package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/sitetime/internal/classify"
	"github.com/goodtune/sitetime/internal/config"
	"github.com/goodtune/sitetime/internal/report"
	"github.com/goodtune/sitetime/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var reportScope string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the time spent per site",
	Long: `Print the per-site summary for today or for all time, with the daily goal
progress when a goal is set. The bolt database can only be opened by one
process, so stop the server first or use redis storage.`,
	Example: `  sitetime report
  sitetime -c config.yaml report --scope all`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportScope, "scope", "today", "Counters to report (today or all)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	scope, err := report.ParseScope(reportScope)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create a quiet logger for CLI mode
	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	store, err := openCLIStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	classifier, err := classify.NewEngine(classify.Config{
		PolicyFile: cfg.Classifier.PolicyFile,
		CacheSize:  cfg.Classifier.CacheSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}

	summary, err := report.NewReporter(store.Counters(), store.Settings(), classifier).Summary(context.Background(), scope)
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

// openCLIStorage opens the configured store with a hint for the common
// failure of the server holding the bolt file lock.
func openCLIStorage(cfg config.StorageConfig) (storage.Store, error) {
	store, err := openStorage(cfg)
	if err != nil {
		if cfg.Type == "" || cfg.Type == "bolt" {
			return nil, fmt.Errorf("failed to open %s (is the server running?): %w", cfg.Path, err)
		}
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func printSummary(summary *report.Summary) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	faint := color.New(color.Faint)

	rule := strings.Repeat("━", 50)

	fmt.Println()
	_, _ = cyan.Println(rule)
	_, _ = cyan.Printf("TIME SPENT (%s)\n", strings.ToUpper(string(summary.Scope)))
	_, _ = cyan.Println(rule)
	fmt.Println()

	fmt.Printf("Total:       %s\n", report.FormatMinutes(report.Minutes(summary.TotalMS)))
	fmt.Printf("Productive:  %s\n", report.FormatMinutes(report.Minutes(summary.ProductiveMS)))
	fmt.Printf("Distracting: %s\n", report.FormatMinutes(report.Minutes(summary.DistractingMS)))
	fmt.Printf("Neutral:     %s\n", report.FormatMinutes(report.Minutes(summary.NeutralMS)))

	if goal := summary.Goal; goal != nil {
		fmt.Println()
		fmt.Printf("Daily goal:  %s productive, %.0f%% done", report.FormatMinutes(int64(goal.GoalMinutes)), goal.Percent)
		if goal.Achieved {
			_, _ = green.Println("  ACHIEVED")
		} else {
			fmt.Printf(", %s to go\n", report.FormatMinutes(goal.RemainingMinutes))
		}
	}

	fmt.Println()
	if len(summary.Sites) == 0 {
		_, _ = faint.Println("No sites with at least one minute recorded.")
	}
	for _, s := range summary.Sites {
		label := fmt.Sprintf("%-32s %8s %4d%%", s.Domain, report.FormatMinutes(s.Minutes), s.SharePercent)
		switch s.Category {
		case classify.Productive:
			_, _ = green.Println(label)
		case classify.Distracting:
			_, _ = red.Println(label)
		default:
			fmt.Println(label)
		}
	}
	if summary.HideDistracting {
		_, _ = yellow.Println("\nDistracting sites are hidden.")
	}

	fmt.Println()
	_, _ = cyan.Println(rule)
	fmt.Println()
}
