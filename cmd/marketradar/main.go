// MarketRadar: daily crypto and equity market snapshots.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/marketradar/api"
	"github.com/seenimoa/marketradar/internal/config"
	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/internal/store"
	"github.com/seenimoa/marketradar/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global state prepared by the root command.
var (
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "marketradar",
	Short: "MarketRadar — daily crypto and equity market snapshots",
	Long: `MarketRadar fetches crypto and equity quotes, keeps a local
time series, narrates the day's market with an LLM and publishes an HTML
dashboard plus an optional webhook card.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, logCloser, err = infra.NewLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		slog.SetDefault(logger)
		api.Version = version
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Skip config loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MarketRadar %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, API keys and store contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		clock := utils.NewClock(cfg.App.Timezone)

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  MarketRadar — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time:          %s\n", clock.FormatDateTime(clock.Now()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Data Dir:      %s\n", cfg.App.DataDir)
		fmt.Printf("    Store:         %s\n", cfg.StorePath())
		fmt.Printf("    LLM Provider:  %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		fmt.Printf("    Features:      ai=%t notifications=%t feeds=%t\n",
			cfg.Features.AI, cfg.Features.Notifications, cfg.Features.Feeds)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}
		fmt.Println()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("  Store:")
		fmt.Printf("    Points:        %d (%d symbols)\n", stats.Points, stats.Symbols)
		fmt.Printf("    Snapshots:     %d\n", stats.Snapshots)
		fmt.Printf("    Narrations:    %d\n", stats.Narrations)
		if stats.Points > 0 {
			fmt.Printf("    Range:         %s → %s\n",
				clock.FormatDateTime(stats.Oldest), clock.FormatDateTime(stats.Newest))
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func openStore() (*store.Store, error) {
	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.Open(cfg.StorePath(), store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}
