package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/sitetime/internal/classify"
	"github.com/goodtune/sitetime/internal/config"
	"github.com/goodtune/sitetime/internal/site"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] URL...",
	Short: "Check how URLs would be tracked",
	Long: `Check which domain a URL would be counted under and how the classifier
policy categorizes it. Untrackable URLs show why they are ignored.`,
	Example: `  sitetime check https://www.youtube.com/watch?v=abc
  sitetime -c config.yaml check chrome://extensions https://github.com/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create a quiet logger for check mode
	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	classifier, err := classify.NewEngine(classify.Config{
		PolicyFile: cfg.Classifier.PolicyFile,
		CacheSize:  cfg.Classifier.CacheSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}

	ctx := context.Background()
	for _, rawURL := range args {
		printCheck(ctx, classifier, rawURL)
	}

	return nil
}

func printCheck(ctx context.Context, classifier classify.Classifier, rawURL string) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	rule := strings.Repeat("━", 50)

	fmt.Println()
	_, _ = cyan.Println(rule)
	fmt.Printf("URL:      %s\n", rawURL)

	domain, err := site.Domain(rawURL)
	if err != nil {
		fmt.Print("Tracked:  ")
		_, _ = yellow.Printf("NO (%s)\n", site.Reason(err))
		fmt.Printf("          → %v\n", err)
		_, _ = cyan.Println(rule)
		return
	}

	fmt.Print("Tracked:  ")
	_, _ = green.Println("YES")
	fmt.Printf("Domain:   %s\n", domain)
	fmt.Printf("Display:  %s\n", site.DisplayName(domain))

	fmt.Print("Category: ")
	switch category := classifier.Classify(ctx, site.DisplayName(domain)); category {
	case classify.Productive:
		_, _ = green.Println("PRODUCTIVE")
	case classify.Distracting:
		_, _ = red.Println("DISTRACTING")
		fmt.Println("          → Hidden from the summary when hide_distracting is set")
		fmt.Println("          → Does not count towards the daily goal")
	default:
		fmt.Println("NEUTRAL")
	}

	_, _ = cyan.Println(rule)
}
