package domain

// Bot status values.
const (
	BotActive  = "ACTIVE"
	BotPaused  = "PAUSED"
	BotStopped = "STOPPED"
	BotError   = "ERROR"
)

// BetCounters tracks rolling bets-placed counts. Keys derive from event
// timestamps (never wall clock) so live and backtest paths count the same way.
type BetCounters struct {
	DayKey    string // UTC calendar date, YYYY-MM-DD
	DayCount  int
	WeekKey   string // ISO week, YYYY-Www
	WeekCount int
}

// Bot is the financial state of one autonomous bettor. A bot's ledger is a
// single-writer resource: all mutations go through one ledger instance.
type Bot struct {
	BotID      string
	Name       string
	StrategyID string
	Status     string // ACTIVE | PAUSED | STOPPED | ERROR

	StartingBalance float64
	CurrentBalance  float64
	PeakBalance     float64 // high-water mark, drawdown reference

	Risk RiskManagement

	// OpenWagers is keyed by wager id. Stakes in open wagers are already
	// debited from CurrentBalance.
	OpenWagers map[string]*Wager

	// TransactionLog is append-only: settled wagers in settlement order.
	TransactionLog []*Wager

	Counters BetCounters

	// StatusReason records why the bot left ACTIVE (stop-loss, take-profit,
	// invariant violation).
	StatusReason string
}

// NewBot creates an ACTIVE bot seeded with a starting balance.
func NewBot(botID, strategyID string, startingBalance float64, risk RiskManagement) *Bot {
	return &Bot{
		BotID:           botID,
		StrategyID:      strategyID,
		Status:          BotActive,
		StartingBalance: startingBalance,
		CurrentBalance:  startingBalance,
		PeakBalance:     startingBalance,
		Risk:            risk,
		OpenWagers:      make(map[string]*Wager),
	}
}

// DrawdownPct returns the current drawdown from peak balance in percent.
func (b *Bot) DrawdownPct() float64 {
	if b.PeakBalance <= 0 {
		return 0
	}
	dd := (b.PeakBalance - b.CurrentBalance) / b.PeakBalance * 100
	if dd < 0 {
		return 0
	}
	return dd
}

// GainPct returns the gain from starting balance in percent.
func (b *Bot) GainPct() float64 {
	if b.StartingBalance <= 0 {
		return 0
	}
	return (b.CurrentBalance - b.StartingBalance) / b.StartingBalance * 100
}

// OpenStake returns the total stake committed to open wagers.
func (b *Bot) OpenStake() float64 {
	total := 0.0
	for _, w := range b.OpenWagers {
		total += w.Stake
	}
	return total
}

// Clone returns a deep copy. Stores hand out clones so callers never share
// the live object graph.
func (b *Bot) Clone() *Bot {
	c := *b
	c.OpenWagers = make(map[string]*Wager, len(b.OpenWagers))
	for id, w := range b.OpenWagers {
		wc := *w
		c.OpenWagers[id] = &wc
	}
	c.TransactionLog = make([]*Wager, len(b.TransactionLog))
	for i, w := range b.TransactionLog {
		wc := *w
		c.TransactionLog[i] = &wc
	}
	return &c
}
