// Package marketdata adapts external odds feeds to the engine. Everything
// is normalized to decimal odds at this boundary; the core never sees
// american or fractional prices.
package marketdata

import (
	"fmt"

	"sportsbet-lab/internal/odds"
)

// Odds formats accepted on the wire.
const (
	FormatDecimal    = "DECIMAL"
	FormatAmerican   = "AMERICAN"
	FormatFractional = "FRACTIONAL"
)

// Quote is one normalized market price.
type Quote struct {
	EventID     string
	Sport       string
	MarketType  string
	Outcome     string
	DecimalOdds float64
	Timestamp   int64 // Unix ms
}

// wireQuote is the feed's representation before normalization.
type wireQuote struct {
	EventID     string  `json:"event_id"`
	Sport       string  `json:"sport"`
	MarketType  string  `json:"market_type"`
	Outcome     string  `json:"outcome"`
	Format      string  `json:"format"`
	Price       float64 `json:"price"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
	Timestamp   int64   `json:"timestamp"`
}

// normalize converts a wire quote to decimal odds.
func (q *wireQuote) normalize() (Quote, error) {
	var decimal float64
	var err error

	switch q.Format {
	case FormatDecimal, "":
		decimal = q.Price
		err = odds.Check(decimal)
	case FormatAmerican:
		decimal, err = odds.FromAmerican(q.Price)
	case FormatFractional:
		decimal, err = odds.FromFractional(q.Numerator, q.Denominator)
	default:
		err = fmt.Errorf("unknown odds format %q", q.Format)
	}
	if err != nil {
		return Quote{}, fmt.Errorf("quote %s: %w", q.EventID, err)
	}

	return Quote{
		EventID:     q.EventID,
		Sport:       q.Sport,
		MarketType:  q.MarketType,
		Outcome:     q.Outcome,
		DecimalOdds: decimal,
		Timestamp:   q.Timestamp,
	}, nil
}
