package domain

import "fmt"

// RiskManagement holds bot-level limits, narrower than strategy limits.
// When both apply, the effective limit is the tighter of the two.
type RiskManagement struct {
	StopLossPercentage      float64 // drawdown from peak balance that forces a pause
	TakeProfitPercentage    float64 // gain from starting balance that forces a pause, 0 disables
	DrawdownLimitPercentage float64 // projected-drawdown gate limit, 0 disables

	// Overrides of strategy caps; 0 means no override.
	MaxBetPercentage float64
	MaxBetsPerDay    int
	MaxBetsPerWeek   int
}

// Validate checks bot-level risk limits at load time.
func (r *RiskManagement) Validate() error {
	for name, v := range map[string]float64{
		"stop_loss_percentage":      r.StopLossPercentage,
		"take_profit_percentage":    r.TakeProfitPercentage,
		"drawdown_limit_percentage": r.DrawdownLimitPercentage,
		"max_bet_percentage":        r.MaxBetPercentage,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %v", ErrValidation, name, v)
		}
	}
	if r.StopLossPercentage > 100 || r.DrawdownLimitPercentage > 100 || r.MaxBetPercentage > 100 {
		return fmt.Errorf("%w: percentage limits must be <= 100", ErrValidation)
	}
	if r.MaxBetsPerDay < 0 || r.MaxBetsPerWeek < 0 {
		return fmt.Errorf("%w: bet frequency overrides must be >= 0", ErrValidation)
	}
	return nil
}

// EffectiveLimits resolves strategy limits against bot-level overrides,
// always taking the tighter value.
type EffectiveLimits struct {
	MaxBetPercentage float64
	MaxBetsPerDay    int
	MaxBetsPerWeek   int
	DrawdownLimitPct float64
}

// ResolveLimits combines a strategy config with optional bot-level risk
// management. A zero override leaves the strategy limit in place.
func ResolveLimits(cfg *StrategyConfig, rm *RiskManagement) EffectiveLimits {
	lim := EffectiveLimits{
		MaxBetPercentage: cfg.MaxBetPercentage,
		MaxBetsPerDay:    cfg.MaxBetsPerDay,
		MaxBetsPerWeek:   cfg.MaxBetsPerWeek,
	}
	if rm == nil {
		return lim
	}
	if rm.MaxBetPercentage > 0 && rm.MaxBetPercentage < lim.MaxBetPercentage {
		lim.MaxBetPercentage = rm.MaxBetPercentage
	}
	if rm.MaxBetsPerDay > 0 && (lim.MaxBetsPerDay == 0 || rm.MaxBetsPerDay < lim.MaxBetsPerDay) {
		lim.MaxBetsPerDay = rm.MaxBetsPerDay
	}
	if rm.MaxBetsPerWeek > 0 && (lim.MaxBetsPerWeek == 0 || rm.MaxBetsPerWeek < lim.MaxBetsPerWeek) {
		lim.MaxBetsPerWeek = rm.MaxBetsPerWeek
	}
	lim.DrawdownLimitPct = rm.DrawdownLimitPercentage
	return lim
}
