package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/sitetime/internal/config"
	"github.com/goodtune/sitetime/internal/storage"
	"github.com/spf13/cobra"
)

var (
	resetDomain string
	resetToday  bool
	resetAll    bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear recorded time",
	Long:  `Clear the counters for one domain, for today only, or everything.`,
	Example: `  sitetime reset --domain www.youtube.com
  sitetime reset --today
  sitetime reset --all`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVar(&resetDomain, "domain", "", "Clear the counters for one domain")
	resetCmd.Flags().BoolVar(&resetToday, "today", false, "Clear today's counters")
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Clear all counters")
	resetCmd.MarkFlagsMutuallyExclusive("domain", "today", "all")
	resetCmd.MarkFlagsOneRequired("domain", "today", "all")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openCLIStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	counters := store.Counters()
	green := color.New(color.FgGreen, color.Bold)

	switch {
	case resetDomain != "":
		domain := strings.ToLower(strings.TrimSpace(resetDomain))
		if err := counters.ResetDomain(ctx, domain); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no time recorded for %s", domain)
			}
			return fmt.Errorf("failed to reset %s: %w", domain, err)
		}
		_, _ = green.Printf("✅ Cleared %s\n", domain)
	case resetToday:
		if err := counters.ResetToday(ctx); err != nil {
			return fmt.Errorf("failed to reset today's counters: %w", err)
		}
		_, _ = green.Println("✅ Cleared today's counters")
	case resetAll:
		if err := counters.ResetAll(ctx); err != nil {
			return fmt.Errorf("failed to reset counters: %w", err)
		}
		_, _ = green.Println("✅ Cleared all counters")
	}

	return nil
}
