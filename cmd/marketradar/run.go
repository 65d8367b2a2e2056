package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/seenimoa/marketradar/api"
	"github.com/seenimoa/marketradar/internal/datasource"
	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/internal/llm"
	"github.com/seenimoa/marketradar/internal/narrate"
	"github.com/seenimoa/marketradar/internal/notify"
	"github.com/seenimoa/marketradar/internal/pipeline"
	"github.com/seenimoa/marketradar/internal/store"
	"github.com/seenimoa/marketradar/pkg/utils"
)

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, persist, narrate and publish one market snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		orch := buildOrchestrator(st, nil)
		res, err := orch.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("📈 Snapshot %s (%s)\n", res.Date, res.CrawlTime)
		fmt.Printf("   Crypto: %d  Equity: %d  Failed: %d\n", res.Crypto, res.Equity, len(res.Failed))
		fmt.Printf("   Narration: %s\n", res.Narration)
		if res.DashboardPath != "" {
			fmt.Printf("   Dashboard: %s\n", res.DashboardPath)
		}
		if res.Notified {
			fmt.Println("   Notification sent")
		}
		if len(res.Degraded) > 0 {
			fmt.Printf("   ⚠️  Degraded stages: %v\n", res.Degraded)
		}
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and the run scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		orch := buildOrchestrator(st, pipeline.NewMetrics(reg))

		srv := api.NewServer(cfg, st,
			api.WithRunner(orch),
			api.WithGatherer(reg),
			api.WithClock(utils.NewClock(cfg.App.Timezone)),
			api.WithLogger(logger),
		)

		if cfg.API.Schedule > 0 {
			go srv.RunScheduler(ctx, cfg.API.Schedule)
		}

		addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
		fmt.Printf("🌐 Starting MarketRadar API server on %s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

// buildOrchestrator wires the sources and optional stages selected by cfg.
func buildOrchestrator(st *store.Store, metrics *pipeline.Metrics) *pipeline.Orchestrator {
	clock := utils.NewClock(cfg.App.Timezone)
	agg := datasource.NewAggregator(
		datasource.NewCoinGecko(sourceOptions(datasource.WithBaseURL(cfg.Sources.CoinGeckoURL))...),
		cfg.Sources.CryptoSymbols,
		datasource.NewYFinance(sourceOptions(datasource.WithBaseURL(cfg.Sources.YahooURL))...),
		datasource.EquitySymbols(cfg.Sources.EquitySymbols, cfg.Sources.UsePredefinedIndices),
		logger,
	)

	opts := []pipeline.Option{
		pipeline.WithClock(clock),
		pipeline.WithDashboard(cfg.DashboardDir(), cfg.Notify.DashboardURL),
		pipeline.WithMetrics(metrics),
		pipeline.WithLogger(logger),
	}

	var provider llm.Provider
	if cfg.Features.AI {
		router, err := llm.NewRouterFromConfig(cfg.LLM, logger)
		if err != nil {
			logger.Warn("LLM narration disabled", "error", err)
		} else {
			provider = router
		}
	}
	opts = append(opts, pipeline.WithNarrator(narrate.New(provider, st,
		narrate.WithChatOptions(llm.ChatOptions{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
		narrate.WithLogger(logger),
	)))

	if cfg.Features.Feeds && len(cfg.Feeds.URLs) > 0 {
		opts = append(opts, pipeline.WithFeeds(datasource.NewFeeds(cfg.Feeds.URLs, cfg.Feeds.Limit, logger)))
	}
	if cfg.Features.Notifications && cfg.Notify.WebhookURL != "" {
		opts = append(opts, pipeline.WithSender(notify.NewWebhookSender(cfg.Notify.WebhookURL, cfg.Notify.Timeout, logger)))
	}

	return pipeline.New(agg, st, opts...)
}

// sourceOptions returns the options shared by every upstream source,
// followed by extra.
func sourceOptions(extra ...datasource.Option) []datasource.Option {
	retry := infra.DefaultRetryPolicy
	retry.MaxRetries = cfg.Sources.MaxRetries
	opts := []datasource.Option{
		datasource.WithTimeout(cfg.Sources.RequestTimeout),
		datasource.WithRetryPolicy(retry),
		datasource.WithCourtesyDelay(cfg.Sources.CourtesyDelay),
		datasource.WithWorkers(cfg.Sources.Workers),
		datasource.WithLogger(logger),
	}
	return append(opts, extra...)
}
