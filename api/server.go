// Package api provides the HTTP server for MarketRadar.
//
// It serves the generated dashboard, JSON endpoints over the time-series
// store (latest snapshot, history, volatility, sentiment, narration),
// Prometheus metrics, and a WebSocket stream of run events. In serve mode it
// also triggers aggregation runs on a fixed schedule.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seenimoa/marketradar/internal/analysis"
	"github.com/seenimoa/marketradar/internal/config"
	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/internal/pipeline"
	"github.com/seenimoa/marketradar/internal/store"
	"github.com/seenimoa/marketradar/pkg/models"
	"github.com/seenimoa/marketradar/pkg/utils"
)

// Version is reported by /health. Set by the CLI at startup.
var Version = "dev"

// ErrRunInProgress is returned when a run is requested while one is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Reader is the read side of the time-series store. Implemented by
// *store.Store.
type Reader interface {
	QueryHistory(ctx context.Context, class models.AssetClass, symbol string, lookbackHours int) []models.Point
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
	Symbols(ctx context.Context, class models.AssetClass) ([]string, error)
	Narration(ctx context.Context, day string) (string, bool, error)
}

// Runner executes one aggregation run. Implemented by
// *pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context) (pipeline.RunResult, error)
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	store    Reader
	runner   Runner
	gatherer prometheus.Gatherer
	wsHub    *WSHub
	cache    *infra.Cache[[]models.Point]
	clock    utils.Clock
	logger   *slog.Logger

	runMu   sync.Mutex // held for the duration of a run
	lastMu  sync.RWMutex
	lastRun *RunStatus
}

// Option configures a Server.
type Option func(*Server)

// WithRunner enables POST /api/v1/run and the scheduler.
func WithRunner(r Runner) Option {
	return func(s *Server) { s.runner = r }
}

// WithGatherer exposes the given registry at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithClock sets the clock used for display times.
func WithClock(c utils.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithCacheTTL sets how long history responses are cached.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Server) { s.cache = infra.NewCache[[]models.Point](d) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, st Reader, opts ...Option) *Server {
	s := &Server{
		cfg:   cfg,
		store: st,
		wsHub: NewWSHub(),
		cache: infra.NewCache[[]models.Point](time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = infra.OrDefault(s.logger)
	s.wsHub.logger = s.logger
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/health", s.handleHealth)
			r.Get("/snapshot", s.handleSnapshot)
			r.Get("/symbols", s.handleSymbols)
			r.Get("/history", s.handleHistory)
			r.Get("/volatility", s.handleVolatility)
			r.Get("/sentiment", s.handleSentiment)
			r.Get("/narration/{day}", s.handleNarration)
			r.Get("/runs/last", s.handleLastRun)

			r.Get("/config", s.handleGetConfig)
			r.Get("/config/keys", s.handleGetConfigKeys)
		})

		// A run can outlast the request timeout above.
		r.Post("/run", s.handleRun)
		r.Get("/ws", s.handleWebSocket)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.mountDashboard(r)
	return r
}

// requestLogger logs one line per request through the server's logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// mountDashboard serves the generated dashboard files. "/" is the latest
// dashboard; dated dashboards live under /dashboard/.
func (s *Server) mountDashboard(r chi.Router) {
	dir := s.cfg.DashboardDir()
	files := http.StripPrefix("/dashboard/", http.FileServer(http.Dir(dir)))

	r.Get("/dashboard/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		data, err := os.ReadFile(filepath.Join(dir, "index.html"))
		if err != nil {
			http.Error(w, "dashboard not generated yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck
	})
}

// ============================================================
// Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HistoryResponse is returned by GET /api/v1/history.
type HistoryResponse struct {
	Class  models.AssetClass `json:"asset_type"`
	Symbol string            `json:"symbol"`
	Hours  int               `json:"hours"`
	Points []models.Point    `json:"data"`
}

// VolatilityResponse is returned by GET /api/v1/volatility.
type VolatilityResponse struct {
	Class  models.AssetClass `json:"asset_type"`
	Symbol string            `json:"symbol"`
	Hours  int               `json:"period_hours"`
	analysis.Volatility
}

// SentimentResponse is returned by GET /api/v1/sentiment.
type SentimentResponse struct {
	Date      string `json:"date"`
	CrawlTime string `json:"crawl_time"`
	analysis.MarketSentiment
}

// RunStatus is the outcome of the most recent run.
type RunStatus struct {
	Result     pipeline.RunResult `json:"result"`
	Error      string             `json:"error,omitempty"`
	FinishedAt time.Time          `json:"finished_at"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":     "ok",
			"version":    Version,
			"time":       s.clock.FormatDateTime(s.clock.Now()),
			"ws_clients": s.wsHub.ClientCount(),
		},
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.LatestSnapshot(r.Context())
	if errors.Is(err, store.ErrEmpty) {
		writeError(w, http.StatusNotFound, "no snapshot stored yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snap})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	class, err := classParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	syms, err := s.store.Symbols(r.Context(), class)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if syms == nil {
		syms = []string{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: syms})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	class, symbol, hours, err := seriesParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: HistoryResponse{
			Class:  class,
			Symbol: symbol,
			Hours:  hours,
			Points: s.history(r.Context(), class, symbol, hours),
		},
	})
}

func (s *Server) handleVolatility(w http.ResponseWriter, r *http.Request) {
	class, symbol, hours, err := seriesParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := analysis.ComputeVolatility(s.history(r.Context(), class, symbol, hours))
	if errors.Is(err, analysis.ErrInsufficientData) {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("%s: %v", symbol, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    VolatilityResponse{Class: class, Symbol: symbol, Hours: hours, Volatility: v},
	})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.LatestSnapshot(r.Context())
	if errors.Is(err, store.ErrEmpty) {
		writeError(w, http.StatusNotFound, "no snapshot stored yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: SentimentResponse{
			Date:            snap.Date(),
			CrawlTime:       snap.CrawlTime(),
			MarketSentiment: analysis.ComputeSentiment(snap),
		},
	})
}

func (s *Server) handleNarration(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "day")
	if _, err := s.clock.ParseDay(day); err != nil {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	text, ok, err := s.store.Narration(r.Context(), day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no narration for "+day)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"date": day, "text": text},
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "runs are not enabled on this server")
		return
	}
	status, err := s.Trigger(r.Context())
	if errors.Is(err, ErrRunInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if status.Error != "" {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Data: status, Error: status.Error})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: status})
}

func (s *Server) handleLastRun(w http.ResponseWriter, r *http.Request) {
	last := s.LastRun()
	if last == nil {
		writeError(w, http.StatusNotFound, "no run since startup")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: last})
}

// ============================================================
// Runs
// ============================================================

// Trigger executes one run unless another is in progress. The outcome is
// recorded, broadcast to WebSocket clients, and invalidates cached history.
func (s *Server) Trigger(ctx context.Context) (RunStatus, error) {
	if !s.runMu.TryLock() {
		return RunStatus{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	res, err := s.runner.Run(ctx)
	status := RunStatus{Result: res, FinishedAt: s.clock.Now()}
	msgType := "run_completed"
	if err != nil {
		status.Error = err.Error()
		msgType = "run_failed"
	}

	s.lastMu.Lock()
	s.lastRun = &status
	s.lastMu.Unlock()

	s.cache.Flush()
	s.wsHub.Broadcast(WSMessage{Type: msgType, Data: status})
	return status, nil
}

// LastRun returns the most recent run outcome, or nil.
func (s *Server) LastRun() *RunStatus {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.lastRun
}

// RunScheduler triggers a run immediately and then every interval until
// ctx is cancelled. A non-positive interval disables it.
func (s *Server) RunScheduler(ctx context.Context, interval time.Duration) {
	if s.runner == nil || interval <= 0 {
		return
	}
	s.logger.Info("scheduler started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Trigger(ctx); errors.Is(err, ErrRunInProgress) {
			s.logger.Warn("scheduled run skipped, previous run still active")
		}
		if n := s.cache.Sweep(); n > 0 {
			s.logger.Debug("history cache swept", "expired", n)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) history(ctx context.Context, class models.AssetClass, symbol string, hours int) []models.Point {
	key := fmt.Sprintf("history:%s:%s:%d", class, symbol, hours)
	if pts, ok := s.cache.Get(key); ok {
		return pts
	}
	pts := s.store.QueryHistory(ctx, class, symbol, hours)
	s.cache.Set(key, pts)
	return pts
}

func classParam(r *http.Request) (models.AssetClass, error) {
	raw := r.URL.Query().Get("asset_type")
	if raw == "" {
		raw = r.URL.Query().Get("class")
	}
	if raw == "" {
		return models.AssetCrypto, nil
	}
	return models.ParseAssetClass(raw)
}

// seriesParams reads asset_type, symbol and either range (24h, 7d, 30d,
// 1y) or hours. The default window is 24 hours.
func seriesParams(r *http.Request) (models.AssetClass, string, int, error) {
	class, err := classParam(r)
	if err != nil {
		return "", "", 0, err
	}
	q := r.URL.Query()

	symbol := strings.TrimSpace(q.Get("symbol"))
	if symbol == "" {
		return "", "", 0, errors.New("symbol is required")
	}
	if class == models.AssetCrypto {
		symbol = utils.NormalizeCryptoSymbol(symbol)
	} else {
		symbol = utils.NormalizeEquitySymbol(symbol)
	}

	hours := models.Range24h.LookbackHours()
	switch {
	case q.Get("range") != "":
		rng, err := models.ParseHistoryRange(q.Get("range"))
		if err != nil {
			return "", "", 0, err
		}
		hours = rng.LookbackHours()
	case q.Get("hours") != "":
		h, err := strconv.Atoi(q.Get("hours"))
		if err != nil || h <= 0 || h > models.Range1y.LookbackHours() {
			return "", "", 0, fmt.Errorf("hours must be between 1 and %d", models.Range1y.LookbackHours())
		}
		hours = h
	}
	return class, symbol, hours, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
