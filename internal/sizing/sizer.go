// Package sizing computes candidate stake sizes from an edge estimate and
// a sizing policy. It never gates: a zero stake is returned, not rejected,
// so the risk gate owns every reject decision.
package sizing

import (
	"math"

	"sportsbet-lab/internal/domain"
)

// Result is a sized candidate bet before any gating.
type Result struct {
	Stake float64 // absolute amount, rounded to the cent
	Edge  float64 // true_probability * decimal_odds - 1
}

// Compute sizes a candidate bet for one opportunity. The cap comes from the
// effective limits so bot-level overrides tighten strategy caps uniformly.
// A non-positive edge under Kelly yields stake 0; it is never floored to a
// minimum bet.
func Compute(opp *domain.Opportunity, cfg *domain.StrategyConfig, lim domain.EffectiveLimits, balance float64) Result {
	edge := opp.Edge()
	if balance <= 0 {
		return Result{Edge: edge}
	}

	cap := lim.MaxBetPercentage / 100
	var fraction float64

	policy := cfg.SizingPolicy
	switch policy {
	case domain.SizingKelly:
		fraction = kellyFraction(edge, opp.DecimalOdds, cfg.KellyFraction)
	case domain.SizingFixedPercentage:
		fraction = cfg.StakePercentage / 100
	case domain.SizingConfidenceScaled:
		fraction = confidenceFraction(opp.Confidence, cfg.MinConfidence, cap)
	case domain.SizingFixedAmount:
		stake := math.Min(cfg.FixedAmount, cap*balance)
		return Result{Stake: roundCents(math.Max(stake, 0)), Edge: edge}
	}

	fraction = clamp(fraction, 0, cap)
	return Result{Stake: roundCents(fraction * balance), Edge: edge}
}

// kellyFraction returns the applied fraction of bankroll under fractional
// Kelly: (edge / (odds-1)) * kelly_fraction, floored at 0.
func kellyFraction(edge, decimalOdds, kelly float64) float64 {
	if decimalOdds <= 1 {
		return 0
	}
	optimal := edge / (decimalOdds - 1)
	if optimal <= 0 {
		return 0
	}
	return optimal * kelly
}

// confidenceFraction scales the cap linearly from min_confidence to 100.
func confidenceFraction(confidence, minConfidence, cap float64) float64 {
	if minConfidence >= 100 {
		return 0
	}
	scale := (confidence - minConfidence) / (100 - minConfidence)
	return cap * clamp(scale, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundCents keeps ledger arithmetic exact at cent granularity.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
