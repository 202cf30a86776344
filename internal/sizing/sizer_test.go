package sizing

import (
	"math"
	"testing"

	"sportsbet-lab/internal/domain"
)

func kellyConfig() *domain.StrategyConfig {
	return &domain.StrategyConfig{
		StrategyID:       "kelly-quarter",
		SizingPolicy:     domain.SizingKelly,
		KellyFraction:    0.25,
		MaxBetPercentage: 5,
		MinConfidence:    60,
		MinOdds:          1.1,
		MaxOdds:          10,
	}
}

func limits(cfg *domain.StrategyConfig) domain.EffectiveLimits {
	return domain.ResolveLimits(cfg, nil)
}

func TestKellyUncappedStake(t *testing.T) {
	// edge = 0.62*1.85 - 1 = 0.147
	// optimal = 0.147/0.85 ~ 0.1729, applied ~ 0.0432, below the 5% cap
	cfg := kellyConfig()
	opp := &domain.Opportunity{
		EventID:         "e1",
		TrueProbability: 0.62,
		Confidence:      70,
		DecimalOdds:     1.85,
	}

	res := Compute(opp, cfg, limits(cfg), 1000)

	if math.Abs(res.Edge-0.147) > 1e-9 {
		t.Errorf("edge = %v, want 0.147", res.Edge)
	}
	if math.Abs(res.Stake-43.24) > 1e-9 {
		t.Errorf("stake = %v, want 43.24 (0.25 * 0.147/0.85 of 1000, cent-rounded)", res.Stake)
	}
}

func TestKellyCapBinds(t *testing.T) {
	// optimal = 0.86/2.0 = 0.43, applied = 0.1075, capped at 0.05
	cfg := kellyConfig()
	opp := &domain.Opportunity{
		EventID:         "e2",
		TrueProbability: 0.62,
		Confidence:      70,
		DecimalOdds:     3.0,
	}

	res := Compute(opp, cfg, limits(cfg), 100)

	if res.Stake != 5.00 {
		t.Errorf("stake = %v, want exactly 5.00 (cap binds)", res.Stake)
	}
}

func TestKellyNoEdgeYieldsZeroStake(t *testing.T) {
	cfg := kellyConfig()
	opp := &domain.Opportunity{
		EventID:         "e3",
		TrueProbability: 0.40,
		Confidence:      70,
		DecimalOdds:     2.0, // edge = -0.2
	}

	res := Compute(opp, cfg, limits(cfg), 1000)

	if res.Stake != 0 {
		t.Errorf("stake = %v, want 0 for negative edge (never floored to a minimum bet)", res.Stake)
	}
	if res.Edge >= 0 {
		t.Errorf("edge = %v, want negative", res.Edge)
	}
}

func TestStakeNeverExceedsCap(t *testing.T) {
	cfg := kellyConfig()
	balances := []float64{0, 1, 100, 1000, 12345.67}
	opps := []*domain.Opportunity{
		{EventID: "a", TrueProbability: 0.9, Confidence: 99, DecimalOdds: 5.0},
		{EventID: "b", TrueProbability: 0.55, Confidence: 61, DecimalOdds: 1.9},
		{EventID: "c", TrueProbability: 0.2, Confidence: 80, DecimalOdds: 1.2},
	}

	for _, bal := range balances {
		for _, opp := range opps {
			res := Compute(opp, cfg, limits(cfg), bal)
			maxStake := cfg.MaxBetPercentage / 100 * bal
			if res.Stake < 0 {
				t.Errorf("balance %v event %s: negative stake %v", bal, opp.EventID, res.Stake)
			}
			// Cent rounding may land half a cent above the exact cap bound.
			if res.Stake > maxStake+0.005 {
				t.Errorf("balance %v event %s: stake %v exceeds cap %v", bal, opp.EventID, res.Stake, maxStake)
			}
		}
	}
}

func TestFixedAmountRespectsCap(t *testing.T) {
	cfg := &domain.StrategyConfig{
		StrategyID:       "flat",
		SizingPolicy:     domain.SizingFixedAmount,
		FixedAmount:      25,
		MaxBetPercentage: 5,
		MinOdds:          1.1,
	}
	opp := &domain.Opportunity{EventID: "e", TrueProbability: 0.6, Confidence: 80, DecimalOdds: 2.0}

	// Cap 5% of 100 = 5, below the 25 fixed stake.
	res := Compute(opp, cfg, limits(cfg), 100)
	if res.Stake != 5.00 {
		t.Errorf("stake = %v, want 5.00 (cap binds fixed amount)", res.Stake)
	}

	// Cap 5% of 10000 = 500, fixed stake applies.
	res = Compute(opp, cfg, limits(cfg), 10000)
	if res.Stake != 25.00 {
		t.Errorf("stake = %v, want 25.00", res.Stake)
	}
}

func TestFixedPercentage(t *testing.T) {
	cfg := &domain.StrategyConfig{
		StrategyID:       "pct",
		SizingPolicy:     domain.SizingFixedPercentage,
		StakePercentage:  2,
		MaxBetPercentage: 5,
		MinOdds:          1.1,
	}
	opp := &domain.Opportunity{EventID: "e", TrueProbability: 0.6, Confidence: 80, DecimalOdds: 2.0}

	res := Compute(opp, cfg, limits(cfg), 1000)
	if res.Stake != 20.00 {
		t.Errorf("stake = %v, want 20.00", res.Stake)
	}
}

func TestConfidenceScaled(t *testing.T) {
	cfg := &domain.StrategyConfig{
		StrategyID:       "conf",
		SizingPolicy:     domain.SizingConfidenceScaled,
		MaxBetPercentage: 5,
		MinConfidence:    60,
		MinOdds:          1.1,
	}

	tests := []struct {
		confidence float64
		want       float64
	}{
		{60, 0},      // at threshold, zero scale
		{80, 25.00},  // halfway: 5% * 0.5 of 1000
		{100, 50.00}, // full cap
		{50, 0},      // below threshold clamps to zero
	}

	for _, tt := range tests {
		opp := &domain.Opportunity{EventID: "e", TrueProbability: 0.6, Confidence: tt.confidence, DecimalOdds: 2.0}
		res := Compute(opp, cfg, limits(cfg), 1000)
		if res.Stake != tt.want {
			t.Errorf("confidence %v: stake = %v, want %v", tt.confidence, res.Stake, tt.want)
		}
	}
}

func TestBotOverrideTightensCap(t *testing.T) {
	cfg := kellyConfig()
	rm := &domain.RiskManagement{MaxBetPercentage: 2}
	opp := &domain.Opportunity{EventID: "e", TrueProbability: 0.62, Confidence: 70, DecimalOdds: 3.0}

	res := Compute(opp, cfg, domain.ResolveLimits(cfg, rm), 100)
	if res.Stake != 2.00 {
		t.Errorf("stake = %v, want 2.00 (bot override caps at 2%%)", res.Stake)
	}
}
