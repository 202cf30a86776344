// Package evaluator orchestrates sizing and risk gating for one
// opportunity. Live execution and backtesting run this exact code path;
// any divergence between the two would be a correctness bug.
package evaluator

import (
	"fmt"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/ledger"
	"sportsbet-lab/internal/riskgate"
	"sportsbet-lab/internal/sizing"
)

// IDFunc produces a wager id for an approved opportunity. Live execution
// uses random UUIDs; backtests use deterministic hashes.
type IDFunc func(opp *domain.Opportunity) string

// Evaluator evaluates opportunities against one validated strategy.
type Evaluator struct {
	cfg   *domain.StrategyConfig
	newID IDFunc
}

// New validates the strategy config once and returns an evaluator bound to
// it. A config rejected here never reaches evaluation.
func New(cfg *domain.StrategyConfig, newID IDFunc) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if newID == nil {
		return nil, fmt.Errorf("%w: wager id generator is required", domain.ErrValidation)
	}
	return &Evaluator{cfg: cfg, newID: newID}, nil
}

// Config returns the bound strategy configuration.
func (e *Evaluator) Config() *domain.StrategyConfig {
	return e.cfg
}

// Evaluate runs Position Sizer then Risk Gate for one opportunity against
// the bot's ledger; on approval it places the wager. On rejection the
// ledger is untouched, no matter which check failed.
func (e *Evaluator) Evaluate(l *ledger.Ledger, opp *domain.Opportunity) (domain.Decision, error) {
	if err := opp.Validate(); err != nil {
		return domain.Decision{}, err
	}

	bot := l.Snapshot()
	lim := domain.ResolveLimits(e.cfg, &bot.Risk)

	if !e.cfg.AllowsMarket(opp.Sport, opp.MarketType) {
		return domain.Reject(domain.ReasonMarketFiltered, opp.Edge()), nil
	}

	sized := sizing.Compute(opp, e.cfg, lim, bot.CurrentBalance)

	betsToday, betsThisWeek := bot.Counters.CountsAt(opp.Timestamp)
	decision := riskgate.Check(riskgate.Input{
		Stake:        sized.Stake,
		Edge:         sized.Edge,
		Confidence:   opp.Confidence,
		Odds:         opp.DecimalOdds,
		BotStatus:    bot.Status,
		Balance:      bot.CurrentBalance,
		PeakBalance:  bot.PeakBalance,
		BetsToday:    betsToday,
		BetsThisWeek: betsThisWeek,
	}, e.cfg, lim)

	if !decision.Approved {
		return decision, nil
	}

	w := &domain.Wager{
		WagerID:          e.newID(opp),
		StrategyID:       e.cfg.StrategyID,
		EventID:          opp.EventID,
		PlacedAt:         opp.Timestamp,
		Sport:            opp.Sport,
		MarketType:       opp.MarketType,
		PredictedOutcome: opp.PredictedOutcome,
		Stake:            decision.Stake,
		DecimalOdds:      opp.DecimalOdds,
		Edge:             decision.Edge,
		Confidence:       opp.Confidence,
	}
	if err := l.PlaceWager(w); err != nil {
		return domain.Decision{}, err
	}

	decision.WagerID = w.WagerID
	return decision, nil
}
