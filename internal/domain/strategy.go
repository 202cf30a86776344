package domain

import "fmt"

// Sizing policy tags. One per StrategyConfig.
const (
	SizingFixedAmount      = "FIXED_AMOUNT"
	SizingFixedPercentage  = "FIXED_PERCENTAGE"
	SizingKelly            = "KELLY"
	SizingConfidenceScaled = "CONFIDENCE_SCALED"
)

// StrategyConfig holds the validated parameters governing one strategy.
// Immutable once attached to an active bot run; edits create a new version.
type StrategyConfig struct {
	StrategyID   string
	Name         string
	SizingPolicy string // FIXED_AMOUNT | FIXED_PERCENTAGE | KELLY | CONFIDENCE_SCALED

	// Sizing parameters
	FixedAmount     float64 // stake for FIXED_AMOUNT
	StakePercentage float64 // stake % of bankroll for FIXED_PERCENTAGE
	KellyFraction   float64 // (0,1], fraction of full Kelly to apply

	// Caps and thresholds
	MaxBetPercentage float64 // cap on stake as % of bankroll
	MinConfidence    float64 // [0,100]
	MinExpectedValue float64 // minimum edge
	MinOdds          float64 // decimal odds lower bound
	MaxOdds          float64 // decimal odds upper bound

	// Frequency limits
	MaxBetsPerDay  int
	MaxBetsPerWeek int

	// Filters: empty means allow all.
	Sports      []string
	MarketTypes []string
}

// Validate checks the configuration once at load time. Invalid values fail
// fast here so sizing never sees a malformed config mid-evaluation.
func (c *StrategyConfig) Validate() error {
	if c.StrategyID == "" {
		return fmt.Errorf("%w: strategy_id is required", ErrValidation)
	}
	switch c.SizingPolicy {
	case SizingFixedAmount:
		if c.FixedAmount <= 0 {
			return fmt.Errorf("%w: FIXED_AMOUNT requires fixed_amount > 0", ErrValidation)
		}
	case SizingFixedPercentage:
		if c.StakePercentage <= 0 || c.StakePercentage > 100 {
			return fmt.Errorf("%w: stake_percentage must be in (0,100], got %v", ErrValidation, c.StakePercentage)
		}
	case SizingKelly:
		if c.KellyFraction <= 0 || c.KellyFraction > 1 {
			return fmt.Errorf("%w: kelly_fraction must be in (0,1], got %v", ErrValidation, c.KellyFraction)
		}
	case SizingConfidenceScaled:
		if c.MinConfidence >= 100 {
			return fmt.Errorf("%w: CONFIDENCE_SCALED requires min_confidence < 100", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown sizing policy %q", ErrValidation, c.SizingPolicy)
	}
	if c.MaxBetPercentage <= 0 || c.MaxBetPercentage > 100 {
		return fmt.Errorf("%w: max_bet_percentage must be in (0,100], got %v", ErrValidation, c.MaxBetPercentage)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("%w: min_confidence must be in [0,100], got %v", ErrValidation, c.MinConfidence)
	}
	if c.MinOdds < 1 {
		return fmt.Errorf("%w: min_odds must be >= 1, got %v", ErrValidation, c.MinOdds)
	}
	if c.MaxOdds != 0 && c.MaxOdds < c.MinOdds {
		return fmt.Errorf("%w: max_odds %v below min_odds %v", ErrValidation, c.MaxOdds, c.MinOdds)
	}
	if c.MaxBetsPerDay < 0 || c.MaxBetsPerWeek < 0 {
		return fmt.Errorf("%w: bet frequency limits must be >= 0", ErrValidation)
	}
	return nil
}

// AllowsMarket reports whether the strategy's sport/market filters admit
// the given opportunity. Empty filter lists allow everything.
func (c *StrategyConfig) AllowsMarket(sport, marketType string) bool {
	return contains(c.Sports, sport) && contains(c.MarketTypes, marketType)
}

func contains(filter []string, v string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == v {
			return true
		}
	}
	return false
}
