// Package sweep runs a strategy parameter sweep: many backtests over the
// same event sequence, one variant per run. Runs execute in parallel on
// private ledgers; the shared event slice is read-only.
package sweep

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"sportsbet-lab/internal/backtest"
	"sportsbet-lab/internal/domain"
)

// DefaultWorkers bounds parallel runs when Options.Workers is zero.
const DefaultWorkers = 4

// Variant is one strategy configuration to evaluate.
type Variant struct {
	Name           string
	Config         domain.StrategyConfig
	SizingOverride string
}

// Result pairs a variant with its completed run.
type Result struct {
	Variant Variant
	Run     *domain.BacktestRun
	Err     error
}

// Options configures a sweep.
type Options struct {
	Events          []domain.BacktestEvent
	InitialBankroll float64
	Risk            domain.RiskManagement
	Workers         int
	Logger          *logrus.Entry
}

// Run executes every variant and returns results in variant order.
// Individual run failures are recorded per variant; Run itself fails only
// on cancellation.
func Run(ctx context.Context, variants []Variant, opts Options) ([]Result, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(variants) {
		workers = len(variants)
	}

	results := make([]Result, len(variants))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runVariant(ctx, variants[i], opts)
			}
		}()
	}

	for i := range variants {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("sweep cancelled: %w", err)
	}
	return results, nil
}

func runVariant(ctx context.Context, v Variant, opts Options) Result {
	var logger *logrus.Entry
	if opts.Logger != nil {
		logger = opts.Logger.WithField("variant", v.Name)
	}

	run, err := backtest.Run(ctx, v.Config, opts.Events, backtest.Options{
		InitialBankroll: opts.InitialBankroll,
		SizingOverride:  v.SizingOverride,
		Risk:            opts.Risk,
		Logger:          logger,
	})
	if err != nil {
		return Result{Variant: v, Err: fmt.Errorf("variant %s: %w", v.Name, err)}
	}
	return Result{Variant: v, Run: run}
}

// RankByROI returns successful results ordered by ROI descending.
// Ties break on lower max drawdown, then variant name.
func RankByROI(results []Result) []Result {
	var ranked []Result
	for _, r := range results {
		if r.Err == nil && r.Run != nil {
			ranked = append(ranked, r)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		mi, mj := ranked[i].Run.Metrics, ranked[j].Run.Metrics
		if mi.ROIPercentage != mj.ROIPercentage {
			return mi.ROIPercentage > mj.ROIPercentage
		}
		if mi.MaxDrawdown != mj.MaxDrawdown {
			return mi.MaxDrawdown < mj.MaxDrawdown
		}
		return ranked[i].Variant.Name < ranked[j].Variant.Name
	})
	return ranked
}

// KellyFractions builds variants from a base config, one per fraction.
func KellyFractions(base domain.StrategyConfig, fractions []float64) []Variant {
	variants := make([]Variant, 0, len(fractions))
	for _, f := range fractions {
		cfg := base
		cfg.Sports = append([]string(nil), base.Sports...)
		cfg.MarketTypes = append([]string(nil), base.MarketTypes...)
		cfg.SizingPolicy = domain.SizingKelly
		cfg.KellyFraction = f
		variants = append(variants, Variant{
			Name:   fmt.Sprintf("kelly-%.2f", f),
			Config: cfg,
		})
	}
	return variants
}
