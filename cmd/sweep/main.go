package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"sportsbet-lab/internal/config"
	"sportsbet-lab/internal/reporting"
	"sportsbet-lab/internal/sweep"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration")
	eventsPath := flag.String("events", "", "Historical events JSON (overrides config events_file)")
	workers := flag.Int("workers", 0, "Parallel workers (overrides config)")
	outputCSV := flag.String("output-csv", "", "Write ranked run summaries as CSV")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[sweep] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if cfg.Strategy.StrategyID == "" {
		logger.Fatal("config must define a strategy")
	}
	if len(cfg.Sweep.KellyFractions) == 0 {
		logger.Fatal("config must define sweep.kelly_fractions")
	}
	if *workers > 0 {
		cfg.Sweep.Workers = *workers
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

	variants := sweep.KellyFractions(cfg.Strategy.Domain(), cfg.Sweep.KellyFractions)

	results, err := sweep.Run(ctx, variants, sweep.Options{
		Events:          events,
		InitialBankroll: cfg.Backtest.InitialBankroll,
		Risk:            cfg.Risk.Domain(),
		Workers:         cfg.Sweep.Workers,
		Logger:          logrus.NewEntry(svcLog),
	})
	if err != nil {
		logger.Fatalf("run sweep: %v", err)
	}

	ranked := sweep.RankByROI(results)

	fmt.Printf("%-14s %-10s %8s %8s %10s %8s\n", "VARIANT", "BETS", "WINRATE", "ROI%", "MAXDD%", "PF")
	var rows []reporting.RunSummaryRow
	for _, res := range ranked {
		if res.Err != nil {
			fmt.Printf("%-14s failed: %v\n", res.Variant.Name, res.Err)
			continue
		}
		m := res.Run.Metrics
		fmt.Printf("%-14s %-10d %8.4f %8.2f %10.2f %8.2f\n",
			res.Variant.Name, m.TotalBets, m.WinRate, m.ROIPercentage, m.MaxDrawdown, m.ProfitFactor)
		rows = append(rows, reporting.SummarizeRun(res.Run))
	}

	if *outputCSV != "" {
		csv := reporting.RenderRunSummaryCSV(rows)
		if err := os.WriteFile(*outputCSV, []byte(csv), 0o644); err != nil {
			logger.Fatalf("write csv: %v", err)
		}
		fmt.Printf("Summaries written to %s\n", *outputCSV)
	}
}
