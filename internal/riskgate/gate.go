// Package riskgate applies the ordered pre-trade constraint checks. The
// gate is a pure function of its inputs and performs no mutation, so the
// live and backtest paths run the identical gate.
package riskgate

import "sportsbet-lab/internal/domain"

// Input is everything the gate reads. All fields are snapshots; the gate
// never touches the bot.
type Input struct {
	Stake      float64
	Edge       float64
	Confidence float64
	Odds       float64

	BotStatus    string
	Balance      float64
	PeakBalance  float64
	BetsToday    int
	BetsThisWeek int
}

// Check runs the ordered, short-circuiting constraint checks. The first
// failure wins and produces a distinct reason code.
func Check(in Input, cfg *domain.StrategyConfig, lim domain.EffectiveLimits) domain.Decision {
	// 1. Bot must accept new wagers.
	switch in.BotStatus {
	case domain.BotActive:
	case domain.BotPaused:
		return domain.Reject(domain.ReasonBotPaused, in.Edge)
	case domain.BotStopped:
		return domain.Reject(domain.ReasonBotStopped, in.Edge)
	default:
		return domain.Reject(domain.ReasonBotError, in.Edge)
	}

	// 2. Confidence threshold.
	if in.Confidence < cfg.MinConfidence {
		return domain.Reject(domain.ReasonLowConfidence, in.Edge)
	}

	// 3. Odds range. MaxOdds of zero leaves the range open above.
	if in.Odds < cfg.MinOdds || (cfg.MaxOdds > 0 && in.Odds > cfg.MaxOdds) {
		return domain.Reject(domain.ReasonOddsOutOfRange, in.Edge)
	}

	// 4. Minimum expected value.
	if in.Edge < cfg.MinExpectedValue {
		return domain.Reject(domain.ReasonLowEdge, in.Edge)
	}

	// 5. Stake must be positive and affordable.
	if in.Stake <= 0 {
		return domain.Reject(domain.ReasonNoStake, in.Edge)
	}
	if in.Stake > in.Balance {
		return domain.Reject(domain.ReasonInsufficientBalance, in.Edge)
	}

	// 6. Bet frequency. A zero limit means unlimited.
	if lim.MaxBetsPerDay > 0 && in.BetsToday >= lim.MaxBetsPerDay {
		return domain.Reject(domain.ReasonDailyLimit, in.Edge)
	}
	if lim.MaxBetsPerWeek > 0 && in.BetsThisWeek >= lim.MaxBetsPerWeek {
		return domain.Reject(domain.ReasonWeeklyLimit, in.Edge)
	}

	// 7. Projected drawdown from peak if this stake is lost outright.
	if lim.DrawdownLimitPct > 0 && in.PeakBalance > 0 {
		projected := (in.PeakBalance - (in.Balance - in.Stake)) / in.PeakBalance * 100
		if projected >= lim.DrawdownLimitPct {
			return domain.Reject(domain.ReasonDrawdownLimit, in.Edge)
		}
	}

	return domain.Approve(in.Stake, in.Edge)
}
