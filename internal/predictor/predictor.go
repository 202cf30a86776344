// Package predictor defines the prediction boundary. The engine never
// computes probabilities; it consumes them. Any model, remote service or
// fixture can sit behind this interface.
package predictor

import (
	"context"
	"fmt"

	"sportsbet-lab/internal/domain"
)

// EventContext describes an upcoming event for the predictor.
type EventContext struct {
	EventID          string
	Sport            string
	MarketType       string
	PredictedOutcome string
	StartsAt         int64 // Unix ms
}

// Prediction is the model's estimate for one outcome.
type Prediction struct {
	TrueProbability float64 // (0,1)
	Confidence      float64 // [0,100]
}

// Validate checks boundary invariants before a prediction enters the engine.
func (p *Prediction) Validate() error {
	if p.TrueProbability <= 0 || p.TrueProbability >= 1 {
		return fmt.Errorf("%w: true_probability must be in (0,1), got %v", domain.ErrValidation, p.TrueProbability)
	}
	if p.Confidence < 0 || p.Confidence > 100 {
		return fmt.Errorf("%w: confidence must be in [0,100], got %v", domain.ErrValidation, p.Confidence)
	}
	return nil
}

// Predictor produces outcome estimates.
type Predictor interface {
	Predict(ctx context.Context, ec EventContext) (Prediction, error)
}

// Fixed always returns the same prediction. Used in tests and offline runs.
type Fixed struct {
	Probability float64
	Confidence  float64
}

// Predict implements Predictor.
func (f Fixed) Predict(_ context.Context, _ EventContext) (Prediction, error) {
	p := Prediction{TrueProbability: f.Probability, Confidence: f.Confidence}
	if err := p.Validate(); err != nil {
		return Prediction{}, err
	}
	return p, nil
}

// Opportunity combines a prediction with market odds into the engine's
// input record.
func Opportunity(ec EventContext, p Prediction, decimalOdds float64) *domain.Opportunity {
	return &domain.Opportunity{
		EventID:          ec.EventID,
		Timestamp:        ec.StartsAt,
		Sport:            ec.Sport,
		MarketType:       ec.MarketType,
		PredictedOutcome: ec.PredictedOutcome,
		TrueProbability:  p.TrueProbability,
		Confidence:       p.Confidence,
		DecimalOdds:      decimalOdds,
	}
}
