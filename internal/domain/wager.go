package domain

// Market type constants.
const (
	MarketMoneyline = "MONEYLINE"
	MarketSpread    = "SPREAD"
	MarketTotals    = "TOTALS"
	MarketProp      = "PROP"
	MarketFutures   = "FUTURES"
)

// Wager states. An open wager transitions to exactly one terminal state
// exactly once.
const (
	WagerOpen   = "OPEN"
	WagerWon    = "WON"
	WagerLost   = "LOST"
	WagerPushed = "PUSHED"
)

// Outcome is the settlement result applied to an open wager.
type Outcome string

// Settlement outcomes.
const (
	OutcomeWon    Outcome = "WON"
	OutcomeLost   Outcome = "LOST"
	OutcomePushed Outcome = "PUSHED"
)

// Valid reports whether the outcome is a known terminal state.
func (o Outcome) Valid() bool {
	return o == OutcomeWon || o == OutcomeLost || o == OutcomePushed
}

// Wager is a single placed bet. While open it is owned exclusively by one
// bot; settlement moves it into the bot's transaction log with PnL filled.
type Wager struct {
	WagerID          string
	BotID            string
	StrategyID       string
	EventID          string
	PlacedAt         int64 // Unix ms, event time in backtests
	SettledAt        int64 // Unix ms, zero while open
	Sport            string
	MarketType       string
	PredictedOutcome string
	Stake            float64
	DecimalOdds      float64
	Edge             float64 // true_probability * decimal_odds - 1 at placement
	Confidence       float64
	State            string  // OPEN | WON | LOST | PUSHED
	ProfitLoss       float64 // realized on settlement: stake*(odds-1) win, -stake loss, 0 push
}

// Payout returns the total amount credited back to the balance when the
// wager settles with the given outcome (stake was debited at placement).
func (w *Wager) Payout(outcome Outcome) float64 {
	switch outcome {
	case OutcomeWon:
		return w.Stake * w.DecimalOdds
	case OutcomePushed:
		return w.Stake
	default:
		return 0
	}
}

// Realized returns the profit or loss realized by settling with outcome.
func (w *Wager) Realized(outcome Outcome) float64 {
	switch outcome {
	case OutcomeWon:
		return w.Stake * (w.DecimalOdds - 1)
	case OutcomeLost:
		return -w.Stake
	default:
		return 0
	}
}
