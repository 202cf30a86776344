package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"sportsbet-lab/internal/backtest"
	"sportsbet-lab/internal/config"
	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/reporting"
	"sportsbet-lab/internal/service"
	"sportsbet-lab/internal/storage"
	chstore "sportsbet-lab/internal/storage/clickhouse"
	"sportsbet-lab/internal/storage/memory"
	"sportsbet-lab/internal/storage/migrations"
	pgstore "sportsbet-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration")
	eventsPath := flag.String("events", "", "Historical events JSON (overrides config events_file)")
	sizing := flag.String("sizing", "", "Sizing policy override: FIXED_AMOUNT, FIXED_PERCENTAGE, KELLY, CONFIDENCE_SCALED")
	outputDir := flag.String("output-dir", "", "Write REPORT.md and CSV exports here (empty disables)")
	outputJSON := flag.Bool("json", false, "Output run summary as JSON")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage regardless of config backend")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *useMemory {
		cfg.Storage.Backend = "memory"
	}
	if *sizing != "" {
		cfg.Backtest.SizingOverride = *sizing
	}
	if cfg.Strategy.StrategyID == "" {
		logger.Fatal("config must define a strategy")
	}

	path := cfg.Backtest.EventsFile
	if *eventsPath != "" {
		path = *eventsPath
	}
	if path == "" {
		logger.Fatal("--events or backtest.events_file is required")
	}
	events, err := config.LoadEvents(path)
	if err != nil {
		logger.Fatalf("load events: %v", err)
	}

	// Handle shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svcLog := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		svcLog.SetLevel(level)
	}

	stores, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("create stores: %v", err)
	}
	defer cleanup()

	strategy := cfg.Strategy.Domain()
	if err := stores.strategies.Insert(ctx, &strategy); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		logger.Fatalf("store strategy: %v", err)
	}

	svc, err := service.New(service.Options{
		BotStore:         stores.bots,
		StrategyStore:    stores.strategies,
		TransactionStore: stores.transactions,
		BacktestRunStore: stores.runs,
		EquityCurveStore: stores.curves,
		Logger:           svcLog,
	})
	if err != nil {
		logger.Fatalf("create service: %v", err)
	}

	run, err := svc.RunBacktest(ctx, strategy, events, backtest.Options{
		InitialBankroll: cfg.Backtest.InitialBankroll,
		SizingOverride:  cfg.Backtest.SizingOverride,
		Risk:            cfg.Risk.Domain(),
		Logger:          logrus.NewEntry(svcLog),
	})
	if err != nil {
		logger.Fatalf("run backtest: %v", err)
	}

	if *outputJSON {
		printJSON(run)
	} else {
		printSummary(run)
	}

	if *outputDir != "" {
		if err := writeReports(ctx, *outputDir, run, stores); err != nil {
			logger.Fatalf("write reports: %v", err)
		}
		fmt.Printf("Reports written to %s/\n", *outputDir)
	}
}

// allStores holds the storage implementations a backtest needs.
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

	// Equity curves live in ClickHouse when a DSN is configured, in
	// memory otherwise.
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

func printSummary(run *domain.BacktestRun) {
	fmt.Printf("Run:          %s\n", run.RunID)
	fmt.Printf("Strategy:     %s\n", run.StrategyID)
	if run.SizingOverride != "" {
		fmt.Printf("Sizing:       %s (override)\n", run.SizingOverride)
	} else {
		fmt.Printf("Sizing:       %s\n", run.Strategy.SizingPolicy)
	}
	fmt.Printf("Events:       %d\n", run.EventCount)
	if run.Cancelled {
		fmt.Println("Status:       PARTIAL (cancelled)")
	}
	fmt.Printf("Bankroll:     %.2f -> %.2f\n", run.InitialBankroll, run.FinalBalance)
	fmt.Printf("Bets:         %d (W %d / L %d / P %d)\n",
		run.Metrics.TotalBets, run.Metrics.WinningBets, run.Metrics.LosingBets, run.Metrics.PushedBets)
	fmt.Printf("Win rate:     %.4f\n", run.Metrics.WinRate)
	fmt.Printf("ROI:          %.2f%%\n", run.Metrics.ROIPercentage)
	fmt.Printf("Max drawdown: %.2f%%\n", run.Metrics.MaxDrawdown)
	fmt.Printf("Sharpe:       %.4f  Sortino: %.4f  PF: %.2f\n",
		run.Metrics.SharpeRatio, run.Metrics.SortinoRatio, run.Metrics.ProfitFactor)
	if len(run.Rejections) > 0 {
		fmt.Printf("Rejections:   %v\n", run.Rejections)
	}
	if len(run.DataNotes) > 0 {
		fmt.Printf("Skipped:      %d malformed events\n", len(run.DataNotes))
	}
}

func printJSON(run *domain.BacktestRun) {
	out := struct {
		RunID           string                    `json:"run_id"`
		StrategyID      string                    `json:"strategy_id"`
		SizingOverride  string                    `json:"sizing_override,omitempty"`
		InitialBankroll float64                   `json:"initial_bankroll"`
		FinalBalance    float64                   `json:"final_balance"`
		EventCount      int                       `json:"event_count"`
		Cancelled       bool                      `json:"cancelled"`
		Metrics         domain.PerformanceMetrics `json:"metrics"`
		Rejections      map[domain.ReasonCode]int `json:"rejections,omitempty"`
		SkippedEvents   int                       `json:"skipped_events"`
	}{
		RunID:           run.RunID,
		StrategyID:      run.StrategyID,
		SizingOverride:  run.SizingOverride,
		InitialBankroll: run.InitialBankroll,
		FinalBalance:    run.FinalBalance,
		EventCount:      run.EventCount,
		Cancelled:       run.Cancelled,
		Metrics:         run.Metrics,
		Rejections:      run.Rejections,
		SkippedEvents:   len(run.DataNotes),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

// writeReports generates the markdown report and CSV exports for the run.
func writeReports(ctx context.Context, dir string, run *domain.BacktestRun, stores *allStores) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	gen := reporting.NewGenerator(stores.runs, stores.curves)

	report, err := gen.Generate(ctx, run.StrategyID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "REPORT.md"), []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return err
	}

	bets, err := gen.BetHistoryCSV(ctx, run.RunID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "BET_HISTORY.csv"), []byte(bets), 0o644); err != nil {
		return err
	}

	curve, err := gen.EquityCurveCSV(ctx, run.RunID)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "EQUITY_CURVE.csv"), []byte(curve), 0o644)
}
