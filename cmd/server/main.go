// Package main provides the betting service:
// - HTTP API for bots, evaluation, settlement and performance
// - Optional live odds feed (websocket) dispatched to active bots
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"sportsbet-lab/internal/config"
	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/ledger"
	"sportsbet-lab/internal/marketdata"
	"sportsbet-lab/internal/observability"
	"sportsbet-lab/internal/predictor"
	"sportsbet-lab/internal/service"
	"sportsbet-lab/internal/storage"
	chstore "sportsbet-lab/internal/storage/clickhouse"
	"sportsbet-lab/internal/storage/memory"
	"sportsbet-lab/internal/storage/migrations"
	pgstore "sportsbet-lab/internal/storage/postgres"
)

// Server holds the service and its HTTP surface.
type Server struct {
	svc       *service.Service
	predictor predictor.Predictor
	logger    *logrus.Logger
	started   time.Time

	// Stats
	evaluations  atomic.Int64
	wagersPlaced atomic.Int64
	settlements  atomic.Int64
}

func main() {
	// Parse flags (env vars as defaults via config)
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage regardless of config backend")
	flag.Parse()

	logger := logrus.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if *useMemory {
		cfg.Storage.Backend = "memory"
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("create stores: %v", err)
	}
	defer cleanup()

	svc, err := service.New(service.Options{
		BotStore:         stores.bots,
		StrategyStore:    stores.strategies,
		TransactionStore: stores.transactions,
		BacktestRunStore: stores.runs,
		EquityCurveStore: stores.curves,
		Logger:           logger,
	})
	if err != nil {
		logger.Fatalf("create service: %v", err)
	}

	// Seed the configured strategy so bots can reference it immediately.
	if cfg.Strategy.StrategyID != "" {
		strategy := cfg.Strategy.Domain()
		if err := stores.strategies.Insert(ctx, &strategy); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			logger.Fatalf("store strategy: %v", err)
		}
	}

	server := &Server{
		svc:       svc,
		predictor: predictor.Fixed{Probability: 0.5, Confidence: 50},
		logger:    logger,
		started:   time.Now().UTC(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	var wg sync.WaitGroup

	// Live odds feed is optional; the API works without it.
	if cfg.MarketData.WSEndpoint != "" {
		stream, err := marketdata.NewStream(ctx, cfg.MarketData.WSEndpoint, cfg.MarketData.Sports, nil, logrus.NewEntry(logger))
		if err != nil {
			logger.Fatalf("connect odds stream: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			server.runFeed(ctx, stream)
		}()
		defer stream.Close()
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("HTTP server: %v", err)
			cancel()
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Infof("received signal %v, shutting down", sig)
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	wg.Wait()
	logger.Info("shutdown complete")
}

// allStores holds the storage implementations the service needs.
type allStores struct {
	bots         storage.BotStore
	strategies   storage.StrategyStore
	transactions storage.TransactionStore
	runs         storage.BacktestRunStore
	curves       storage.EquityCurveStore
}

// createStores builds stores per the configured backend and runs
// migrations for database-backed storage.
func createStores(ctx context.Context, cfg *config.Config) (*allStores, func(), error) {
	if cfg.Storage.Backend == "memory" {
		stores := &allStores{
			bots:         memory.NewBotStore(),
			strategies:   memory.NewStrategyStore(),
			transactions: memory.NewTransactionStore(),
			runs:         memory.NewBacktestRunStore(),
			curves:       memory.NewEquityCurveStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := &allStores{
		bots:         pgstore.NewBotStore(pool),
		strategies:   pgstore.NewStrategyStore(pool),
		transactions: pgstore.NewTransactionStore(pool),
		runs:         pgstore.NewBacktestRunStore(pool),
	}
	cleanup := func() { pool.Close() }

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.curves = chstore.NewEquityCurveStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	} else {
		stores.curves = memory.NewEquityCurveStore()
	}

	return stores, cleanup, nil
}

// runFeed consumes live quotes and offers each to every active bot.
func (s *Server) runFeed(ctx context.Context, stream *marketdata.Stream) {
	s.logger.Info("odds feed started")
	for {
		select {
		case <-ctx.Done():
			return
		case quote, ok := <-stream.Quotes():
			if !ok {
				s.logger.Warn("odds feed closed")
				return
			}
			observability.RecordQuote()
			s.dispatchQuote(ctx, quote)
		}
	}
}

// dispatchQuote turns one quote into an opportunity and evaluates it for
// each active bot. Rejections are normal; only real failures are logged.
func (s *Server) dispatchQuote(ctx context.Context, quote marketdata.Quote) {
	ec := predictor.EventContext{
		EventID:          quote.EventID,
		Sport:            quote.Sport,
		MarketType:       quote.MarketType,
		PredictedOutcome: quote.Outcome,
		StartsAt:         quote.Timestamp,
	}
	pred, err := s.predictor.Predict(ctx, ec)
	if err != nil {
		s.logger.WithError(err).WithField("event_id", quote.EventID).Warn("prediction failed")
		return
	}
	opp := predictor.Opportunity(ec, pred, quote.DecimalOdds)

	bots, err := s.svc.ListBots(ctx)
	if err != nil {
		s.logger.WithError(err).Error("list bots")
		return
	}

	active := 0
	for _, bot := range bots {
		if bot.Status != domain.BotActive {
			continue
		}
		active++
		dec, err := s.svc.EvaluateOpportunity(ctx, bot.BotID, opp)
		if err != nil {
			observability.RecordEvaluationError()
			s.logger.WithError(err).WithFields(logrus.Fields{
				"bot_id":   bot.BotID,
				"event_id": quote.EventID,
			}).Error("evaluation failed")
			continue
		}
		s.evaluations.Add(1)
		observability.RecordEvaluation(dec.Approved, string(dec.Reason), dec.Stake)
		if dec.Approved {
			s.wagersPlaced.Add(1)
		}
	}
	observability.UpdateActiveBots(active)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("POST /bots", s.handleCreateBot)
	mux.HandleFunc("GET /bots/{id}", s.handleGetBot)
	mux.HandleFunc("POST /bots/{id}/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /bots/{id}/settle", s.handleSettle)
	mux.HandleFunc("POST /bots/{id}/pause", s.handlePause)
	mux.HandleFunc("POST /bots/{id}/resume", s.handleResume)
	mux.HandleFunc("POST /bots/{id}/stop", s.handleStop)

	mux.HandleFunc("GET /performance", s.handlePerformance)

	return mux
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime"`
	Evaluations  int64  `json:"evaluations"`
	WagersPlaced int64  `json:"wagers_placed"`
	Settlements  int64  `json:"settlements"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:       "running",
		Uptime:       time.Since(s.started).String(),
		Evaluations:  s.evaluations.Load(),
		WagersPlaced: s.wagersPlaced.Load(),
		Settlements:  s.settlements.Load(),
	})
}

// createBotRequest is the JSON body for POST /bots.
type createBotRequest struct {
	BotID           string  `json:"bot_id"`
	StrategyID      string  `json:"strategy_id"`
	StartingBalance float64 `json:"starting_balance"`
	Risk            struct {
		StopLossPercentage      float64 `json:"stop_loss_percentage"`
		TakeProfitPercentage    float64 `json:"take_profit_percentage"`
		DrawdownLimitPercentage float64 `json:"drawdown_limit_percentage"`
		MaxBetPercentage        float64 `json:"max_bet_percentage"`
		MaxBetsPerDay           int     `json:"max_bets_per_day"`
		MaxBetsPerWeek          int     `json:"max_bets_per_week"`
	} `json:"risk"`
}

func (s *Server) handleCreateBot(w http.ResponseWriter, r *http.Request) {
	var req createBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	risk := domain.RiskManagement{
		StopLossPercentage:      req.Risk.StopLossPercentage,
		TakeProfitPercentage:    req.Risk.TakeProfitPercentage,
		DrawdownLimitPercentage: req.Risk.DrawdownLimitPercentage,
		MaxBetPercentage:        req.Risk.MaxBetPercentage,
		MaxBetsPerDay:           req.Risk.MaxBetsPerDay,
		MaxBetsPerWeek:          req.Risk.MaxBetsPerWeek,
	}

	bot, err := s.svc.CreateBot(r.Context(), req.BotID, req.StrategyID, req.StartingBalance, risk)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, botResponse(bot))
}

func (s *Server) handleGetBot(w http.ResponseWriter, r *http.Request) {
	bot, err := s.svc.GetBot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, botResponse(bot))
}

// evaluateRequest is the JSON body for POST /bots/{id}/evaluate.
type evaluateRequest struct {
	EventID          string  `json:"event_id"`
	Timestamp        int64   `json:"timestamp"`
	Sport            string  `json:"sport"`
	MarketType       string  `json:"market_type"`
	PredictedOutcome string  `json:"predicted_outcome"`
	TrueProbability  float64 `json:"true_probability"`
	Confidence       float64 `json:"confidence"`
	DecimalOdds      float64 `json:"decimal_odds"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opp := &domain.Opportunity{
		EventID:          req.EventID,
		Timestamp:        req.Timestamp,
		Sport:            req.Sport,
		MarketType:       req.MarketType,
		PredictedOutcome: req.PredictedOutcome,
		TrueProbability:  req.TrueProbability,
		Confidence:       req.Confidence,
		DecimalOdds:      req.DecimalOdds,
	}

	dec, err := s.svc.EvaluateOpportunity(r.Context(), r.PathValue("id"), opp)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.evaluations.Add(1)
	observability.RecordEvaluation(dec.Approved, string(dec.Reason), dec.Stake)
	if dec.Approved {
		s.wagersPlaced.Add(1)
	}

	writeJSON(w, http.StatusOK, struct {
		Approved bool    `json:"approved"`
		Stake    float64 `json:"stake"`
		Edge     float64 `json:"edge"`
		Reason   string  `json:"reason"`
		WagerID  string  `json:"wager_id,omitempty"`
	}{dec.Approved, dec.Stake, dec.Edge, string(dec.Reason), dec.WagerID})
}

// settleRequest is the JSON body for POST /bots/{id}/settle.
type settleRequest struct {
	WagerID string `json:"wager_id"`
	Outcome string `json:"outcome"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	bot, err := s.svc.SettleWager(r.Context(), r.PathValue("id"), req.WagerID, domain.Outcome(req.Outcome))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.settlements.Add(1)
	if n := len(bot.TransactionLog); n > 0 {
		observability.RecordSettlement(req.Outcome, bot.TransactionLog[n-1].ProfitLoss)
	}
	writeJSON(w, http.StatusOK, botResponse(bot))
}

// reasonRequest is the JSON body for pause/stop.
type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	json.NewDecoder(r.Body).Decode(&req)
	if err := s.svc.PauseBot(r.Context(), r.PathValue("id"), req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	observability.RecordBotTransition(domain.BotPaused)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ResumeBot(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	observability.RecordBotTransition(domain.BotActive)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	json.NewDecoder(r.Body).Decode(&req)
	if err := s.svc.StopBot(r.Context(), r.PathValue("id"), req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	observability.RecordBotTransition(domain.BotStopped)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	ref := service.PerformanceRef{
		BotID: r.URL.Query().Get("bot_id"),
		RunID: r.URL.Query().Get("run_id"),
	}
	metrics, err := s.svc.GetPerformance(r.Context(), ref)
	if err != nil {
		if errors.Is(err, service.ErrUnknownRef) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// botView is the JSON shape of a bot in API responses. The transaction
// log is exposed as a count; full history comes from the wager queries.
type botView struct {
	BotID           string  `json:"bot_id"`
	StrategyID      string  `json:"strategy_id"`
	Status          string  `json:"status"`
	StatusReason    string  `json:"status_reason,omitempty"`
	StartingBalance float64 `json:"starting_balance"`
	CurrentBalance  float64 `json:"current_balance"`
	PeakBalance     float64 `json:"peak_balance"`
	OpenWagers      int     `json:"open_wagers"`
	SettledWagers   int     `json:"settled_wagers"`
}

func botResponse(b *domain.Bot) botView {
	return botView{
		BotID:           b.BotID,
		StrategyID:      b.StrategyID,
		Status:          b.Status,
		StatusReason:    b.StatusReason,
		StartingBalance: b.StartingBalance,
		CurrentBalance:  b.CurrentBalance,
		PeakBalance:     b.PeakBalance,
		OpenWagers:      len(b.OpenWagers),
		SettledWagers:   len(b.TransactionLog),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrDuplicateKey):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	default:
		var stateErr *ledger.StateError
		if errors.As(err, &stateErr) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
	}
}
