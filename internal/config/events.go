package config

import (
	"encoding/json"
	"fmt"
	"os"

	"sportsbet-lab/internal/domain"
)

// wireEvent is the JSON shape of one historical event in an events file.
type wireEvent struct {
	EventID          string  `json:"event_id"`
	Timestamp        int64   `json:"timestamp"`
	Sport            string  `json:"sport"`
	MarketType       string  `json:"market_type"`
	PredictedOutcome string  `json:"predicted_outcome"`
	TrueProbability  float64 `json:"true_probability"`
	Confidence       float64 `json:"confidence"`
	DecimalOdds      float64 `json:"decimal_odds"`
	Result           string  `json:"result"`
	SettleAt         int64   `json:"settle_at,omitempty"`
}

// LoadEvents reads a JSON array of historical events for backtesting.
// Malformed individual events are kept; the simulator records them as
// data notes rather than failing the whole file.
func LoadEvents(path string) ([]domain.BacktestEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}

	var wire []wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}

	events := make([]domain.BacktestEvent, len(wire))
	for i, w := range wire {
		events[i] = domain.BacktestEvent{
			Opportunity: domain.Opportunity{
				EventID:          w.EventID,
				Timestamp:        w.Timestamp,
				Sport:            w.Sport,
				MarketType:       w.MarketType,
				PredictedOutcome: w.PredictedOutcome,
				TrueProbability:  w.TrueProbability,
				Confidence:       w.Confidence,
				DecimalOdds:      w.DecimalOdds,
			},
			Result:   domain.Outcome(w.Result),
			SettleAt: w.SettleAt,
		}
	}
	return events, nil
}
