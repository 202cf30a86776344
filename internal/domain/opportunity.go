package domain

import "fmt"

// Opportunity is one candidate bet: an external probability estimate paired
// with current market odds. This is the only input the evaluator sees.
type Opportunity struct {
	EventID          string
	Timestamp        int64 // Unix ms
	Sport            string
	MarketType       string
	PredictedOutcome string

	TrueProbability float64 // (0,1), from the predictor boundary
	Confidence      float64 // [0,100], from the predictor boundary
	DecimalOdds     float64 // > 1, normalized at the market-data boundary
}

// Validate checks boundary invariants on the estimate and odds.
func (o *Opportunity) Validate() error {
	if o.EventID == "" {
		return fmt.Errorf("%w: event_id is required", ErrValidation)
	}
	if o.TrueProbability <= 0 || o.TrueProbability >= 1 {
		return fmt.Errorf("%w: true_probability must be in (0,1), got %v", ErrValidation, o.TrueProbability)
	}
	if o.Confidence < 0 || o.Confidence > 100 {
		return fmt.Errorf("%w: confidence must be in [0,100], got %v", ErrValidation, o.Confidence)
	}
	if o.DecimalOdds <= 1 {
		return fmt.Errorf("%w: decimal_odds must be > 1, got %v", ErrValidation, o.DecimalOdds)
	}
	return nil
}

// Edge returns the expected value per unit staked.
func (o *Opportunity) Edge() float64 {
	return o.TrueProbability*o.DecimalOdds - 1
}
