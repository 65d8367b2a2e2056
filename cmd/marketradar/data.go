package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/marketradar/internal/datasource"
	"github.com/seenimoa/marketradar/internal/pipeline"
	"github.com/seenimoa/marketradar/internal/store"
	"github.com/seenimoa/marketradar/pkg/models"
	"github.com/seenimoa/marketradar/pkg/utils"
)

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history [crypto|stock] [symbol]",
	Short: "Print the stored price series of a symbol",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		class, err := models.ParseAssetClass(args[0])
		if err != nil {
			return err
		}
		symbol := utils.NormalizeEquitySymbol(args[1])
		if class == models.AssetCrypto {
			symbol = utils.NormalizeCryptoSymbol(args[1])
		}

		rangeFlag, _ := cmd.Flags().GetString("range")
		r, err := models.ParseHistoryRange(rangeFlag)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		pts := st.QueryHistory(cmd.Context(), class, symbol, r.LookbackHours())
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(pts)
		}
		if len(pts) == 0 {
			fmt.Printf("No %s history for %s in the last %s\n", class, symbol, r)
			return nil
		}

		clock := utils.NewClock(cfg.App.Timezone)
		fmt.Printf("📊 %s %s — last %s (%d points)\n", class, symbol, r, len(pts))
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, p := range pts {
			fmt.Fprintf(tw, "  %s\t%s\n", clock.FormatDateTime(p.Timestamp), utils.FormatPrice(p.Price))
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().String("range", string(models.Range7d), "lookback window (24h, 7d, 30d, 1y)")
	historyCmd.Flags().Bool("json", false, "print JSON instead of a table")
}

// --- Latest Command ---

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the most recently persisted snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := st.LatestSnapshot(cmd.Context())
		if errors.Is(err, store.ErrEmpty) {
			fmt.Println("No snapshot stored yet. Run `marketradar run` first.")
			return nil
		}
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(snap)
		}

		fmt.Printf("📈 Snapshot %s\n", snap.Label())
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, q := range append(snap.SortedCrypto(), snap.SortedEquity()...) {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", q.Class, q.DisplayName(), utils.FormatPrice(q.Price), utils.FormatPct(q.ChangePct))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if failed := snap.FailedSources(); len(failed) > 0 {
			fmt.Printf("  ⚠️  Failed: %v\n", failed)
		}
		return nil
	},
}

func init() {
	latestCmd.Flags().Bool("json", false, "print the stored JSON document")
}

// --- Backfill Command ---

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Load historical prices for the configured symbols",
	Long: `Load daily and intraday history so the dashboard charts are populated
before enough snapshots have accumulated. Crypto history comes from
CoinGecko; equity history from Polygon when a key is configured, otherwise
from Yahoo Finance. Existing points are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var equity datasource.HistorySource
		if cfg.Sources.PolygonKey != "" {
			equity = datasource.NewPolygon(cfg.Sources.PolygonKey, sourceOptions()...)
		} else {
			equity = datasource.NewYFinance(sourceOptions(datasource.WithBaseURL(cfg.Sources.YahooURL))...)
		}

		jobs := []pipeline.BackfillJob{
			{
				Source:  datasource.NewCoinGecko(sourceOptions(datasource.WithBaseURL(cfg.Sources.CoinGeckoURL))...),
				Symbols: utils.UniqueSymbols(cfg.Sources.CryptoSymbols, utils.NormalizeCryptoSymbol),
			},
			{
				Source:  equity,
				Symbols: datasource.EquitySymbols(cfg.Sources.EquitySymbols, cfg.Sources.UsePredefinedIndices),
			},
		}

		days, _ := cmd.Flags().GetIntSlice("days")
		stats, err := pipeline.Backfill(ctx, st, jobs, days, logger)

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  SOURCE\tSYMBOL\tFETCHED\tINSERTED\tERROR")
		failed := 0
		for _, s := range stats {
			if s.Err != "" {
				failed++
			}
			fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%s\n", s.Source, s.Symbol, s.Fetched, s.Inserted, s.Err)
		}
		if ferr := tw.Flush(); ferr != nil {
			return ferr
		}
		if err != nil {
			return err
		}
		if failed > 0 && failed == len(stats) {
			return fmt.Errorf("backfill failed for all %d symbols", failed)
		}
		return nil
	},
}

func init() {
	backfillCmd.Flags().IntSlice("days", pipeline.BackfillDays, "history windows to request, in days")
}

// --- Prune Command ---

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stored data older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			days = cfg.Store.RetentionDays
		}
		if days <= 0 {
			fmt.Println("Retention disabled (store.retention_days = 0); nothing to prune.")
			return nil
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		clock := utils.NewClock(cfg.App.Timezone)
		cutoff := clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
		res, err := st.Prune(cmd.Context(), cutoff, clock.DayBucket(cutoff))
		if err != nil {
			return err
		}
		fmt.Printf("🧹 Pruned data before %s: %d points, %d snapshots, %d narrations\n",
			clock.DayBucket(cutoff), res.Points, res.Snapshots, res.Narrations)
		return nil
	},
}

func init() {
	pruneCmd.Flags().Int("days", 0, "retention window in days (default: store.retention_days)")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
