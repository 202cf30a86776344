// Package odds normalizes external odds representations to decimal odds.
// Everything past this boundary speaks decimal odds only.
package odds

import (
	"errors"
	"fmt"
)

// Conversion errors.
var (
	ErrInvalidAmerican   = errors.New("american odds must be <= -100 or >= 100")
	ErrInvalidFractional = errors.New("fractional odds require positive numerator and denominator")
	ErrInvalidDecimal    = errors.New("decimal odds must be > 1")
)

// FromAmerican converts American odds to decimal odds.
// +150 -> 2.50, -200 -> 1.50.
func FromAmerican(american float64) (float64, error) {
	switch {
	case american >= 100:
		return 1 + american/100, nil
	case american <= -100:
		return 1 + 100/(-american), nil
	default:
		return 0, fmt.Errorf("%w: got %v", ErrInvalidAmerican, american)
	}
}

// FromFractional converts fractional odds to decimal odds. 5/2 -> 3.50.
func FromFractional(numerator, denominator float64) (float64, error) {
	if numerator <= 0 || denominator <= 0 {
		return 0, fmt.Errorf("%w: got %v/%v", ErrInvalidFractional, numerator, denominator)
	}
	return 1 + numerator/denominator, nil
}

// Check validates decimal odds at the boundary.
func Check(decimal float64) error {
	if decimal <= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidDecimal, decimal)
	}
	return nil
}

// ImpliedProbability returns the probability implied by decimal odds,
// ignoring bookmaker margin.
func ImpliedProbability(decimal float64) (float64, error) {
	if err := Check(decimal); err != nil {
		return 0, err
	}
	return 1 / decimal, nil
}

// ToAmerican converts decimal odds back to American format, for display at
// reporting boundaries only.
func ToAmerican(decimal float64) (float64, error) {
	if err := Check(decimal); err != nil {
		return 0, err
	}
	if decimal >= 2 {
		return (decimal - 1) * 100, nil
	}
	return -100 / (decimal - 1), nil
}
