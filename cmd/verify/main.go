package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sportsbet-lab/internal/config"
	"sportsbet-lab/internal/domain"
	chstore "sportsbet-lab/internal/storage/clickhouse"
	"sportsbet-lab/internal/storage/memory"
	"sportsbet-lab/internal/storage/migrations"
	pgstore "sportsbet-lab/internal/storage/postgres"
	"sportsbet-lab/internal/verification"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration")
	eventsPath := flag.String("events", "", "Historical events JSON (overrides config events_file)")
	runID := flag.String("run-id", "", "Verify a single run instead of the whole strategy")
	strategyID := flag.String("strategy-id", "", "Strategy whose runs to verify (defaults to config strategy)")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[verify] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
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

	target := *strategyID
	if target == "" {
		target = cfg.Strategy.StrategyID
	}
	if *runID == "" && target == "" {
		logger.Fatal("--run-id or --strategy-id is required")
	}

	// Handle shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Storage.Backend == "memory" {
		logger.Fatal("verification needs persisted runs; configure the postgres backend")
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("postgres migrations: %v", err)
	}

	runStore := pgstore.NewBacktestRunStore(pool)

	curveStore := memory.NewEquityCurveStore()
	var verifier *verification.ReplayVerifier
	source := verification.EventSourceFunc(func(context.Context, *domain.BacktestRun) ([]domain.BacktestEvent, error) {
		return events, nil
	})
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse migrations: %v", err)
		}
		defer conn.Close()
		verifier = verification.NewReplayVerifier(runStore, chstore.NewEquityCurveStore(conn), source)
	} else {
		verifier = verification.NewReplayVerifier(runStore, curveStore, source)
	}

	if *runID != "" {
		result, err := verifier.VerifyRun(ctx, *runID)
		if err != nil {
			logger.Fatalf("verify run: %v", err)
		}
		printResult(result)
		if !result.Match {
			os.Exit(1)
		}
		return
	}

	report, err := verifier.VerifyStrategy(ctx, target)
	if err != nil {
		logger.Fatalf("verify strategy: %v", err)
	}

	fmt.Printf("Verified %d runs: %d matched, %d diverged\n",
		report.TotalRuns, report.MatchedRuns, report.DivergentRuns)
	for i := range report.Results {
		printResult(&report.Results[i])
	}
	if report.DivergentRuns > 0 {
		os.Exit(1)
	}
}

func printResult(r *verification.Result) {
	if r.Match {
		fmt.Printf("  %s: MATCH\n", r.RunID)
		return
	}
	fmt.Printf("  %s: DIVERGED (%d fields)\n", r.RunID, len(r.Divergences))
	for _, d := range r.Divergences {
		fmt.Printf("    %s: stored=%v replayed=%v\n", d.Field, d.Expected, d.Actual)
	}
}
