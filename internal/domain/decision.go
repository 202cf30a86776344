package domain

// ReasonCode identifies why an opportunity was rejected, or OK on approval.
type ReasonCode string

// Risk gate reason codes, in check order. First failure wins.
const (
	ReasonOK                  ReasonCode = "OK"
	ReasonBotPaused           ReasonCode = "PAUSED"
	ReasonBotStopped          ReasonCode = "STOPPED"
	ReasonBotError            ReasonCode = "ERROR_STATE"
	ReasonLowConfidence       ReasonCode = "LOW_CONFIDENCE"
	ReasonOddsOutOfRange      ReasonCode = "ODDS_OUT_OF_RANGE"
	ReasonLowEdge             ReasonCode = "LOW_EDGE"
	ReasonNoStake             ReasonCode = "NO_STAKE"
	ReasonInsufficientBalance ReasonCode = "INSUFFICIENT_BALANCE"
	ReasonDailyLimit          ReasonCode = "DAILY_LIMIT"
	ReasonWeeklyLimit         ReasonCode = "WEEKLY_LIMIT"
	ReasonDrawdownLimit       ReasonCode = "DRAWDOWN_LIMIT"
	ReasonMarketFiltered      ReasonCode = "MARKET_FILTERED"
)

// Decision is the structured result of evaluating one opportunity.
// Rejections are expected and frequent; they are values, not errors.
type Decision struct {
	Approved bool
	Stake    float64
	Edge     float64
	Reason   ReasonCode
	WagerID  string // set only when a wager was placed
}

// Approve builds an approved decision.
func Approve(stake, edge float64) Decision {
	return Decision{Approved: true, Stake: stake, Edge: edge, Reason: ReasonOK}
}

// Reject builds a rejected decision carrying the failed check's code.
func Reject(reason ReasonCode, edge float64) Decision {
	return Decision{Approved: false, Edge: edge, Reason: reason}
}
