package domain

import "errors"

// ErrValidation marks a malformed StrategyConfig or RiskManagement.
// Caught at configuration-load time, never mid-evaluation.
var ErrValidation = errors.New("validation")
