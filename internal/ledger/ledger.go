// Package ledger owns a bot's financial state. Every mutation goes through
// one Ledger instance guarded by one mutex, making the single-writer
// invariant mechanically enforceable. Bots are independent: one ledger per
// bot, no shared state across ledgers.
package ledger

import (
	"fmt"
	"math"
	"sync"

	"sportsbet-lab/internal/domain"
)

// reconcileEpsilon absorbs float accumulation noise in the balance
// reconciliation check. Stakes are cent-rounded so genuine corruption is
// orders of magnitude larger.
const reconcileEpsilon = 1e-6

// Status reasons recorded on automatic transitions.
const (
	ReasonStopLoss   = "STOP_LOSS"
	ReasonTakeProfit = "TAKE_PROFIT"
)

// Ledger is the single-writer owner of one bot's state.
type Ledger struct {
	mu  sync.Mutex
	bot *domain.Bot
}

// New wraps a bot in its owning ledger. The bot must not be mutated by
// anyone else afterwards.
func New(bot *domain.Bot) *Ledger {
	return &Ledger{bot: bot}
}

// Snapshot returns a deep copy of the bot for reads and persistence.
func (l *Ledger) Snapshot() *domain.Bot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bot.Clone()
}

// Status returns the bot's current status.
func (l *Ledger) Status() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bot.Status
}

// Balance returns the available balance (open stakes already debited).
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bot.CurrentBalance
}

// PlaceWager moves the stake from the available balance into an open
// wager, debiting immediately so the same funds cannot be committed twice.
// ACTIVE-only; the risk gate has already approved the stake, so a stake
// the balance cannot cover here is caller misuse, not a rejection.
func (l *Ledger) PlaceWager(w *domain.Wager) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bot.Status != domain.BotActive {
		return &StateError{BotID: l.bot.BotID, Op: "place_wager", Msg: fmt.Sprintf("bot is %s", l.bot.Status)}
	}
	if w == nil || w.WagerID == "" {
		return &StateError{BotID: l.bot.BotID, Op: "place_wager", Msg: "wager id is required"}
	}
	if _, exists := l.bot.OpenWagers[w.WagerID]; exists {
		return &StateError{BotID: l.bot.BotID, Op: "place_wager", Msg: fmt.Sprintf("wager %s already open", w.WagerID)}
	}
	if w.Stake <= 0 {
		return &StateError{BotID: l.bot.BotID, Op: "place_wager", Msg: fmt.Sprintf("non-positive stake %v", w.Stake)}
	}
	if w.Stake > l.bot.CurrentBalance {
		return &StateError{BotID: l.bot.BotID, Op: "place_wager", Msg: fmt.Sprintf("stake %v exceeds balance %v", w.Stake, l.bot.CurrentBalance)}
	}

	wc := *w
	wc.BotID = l.bot.BotID
	wc.State = domain.WagerOpen
	l.bot.CurrentBalance -= wc.Stake
	l.bot.OpenWagers[wc.WagerID] = &wc
	l.bot.Counters.Record(wc.PlacedAt)
	return nil
}

// SettleWager resolves an open wager exactly once: removes it from the
// open set, realizes profit/loss, appends to the transaction log, updates
// balance, peak and automatic pause triggers. Settling an unknown or
// already-settled id is a StateError and changes nothing.
func (l *Ledger) SettleWager(wagerID string, outcome domain.Outcome, settledAt int64) (*domain.Wager, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bot.Status == domain.BotError {
		return nil, &StateError{BotID: l.bot.BotID, Op: "settle_wager", Msg: "bot is ERROR, manual review required"}
	}
	if !outcome.Valid() {
		return nil, &StateError{BotID: l.bot.BotID, Op: "settle_wager", Msg: fmt.Sprintf("unknown outcome %q", outcome)}
	}
	w, exists := l.bot.OpenWagers[wagerID]
	if !exists {
		return nil, &StateError{BotID: l.bot.BotID, Op: "settle_wager", Msg: fmt.Sprintf("wager %s is not open", wagerID)}
	}

	payout := w.Payout(outcome)
	newBalance := l.bot.CurrentBalance + payout
	if newBalance < 0 {
		l.bot.Status = domain.BotError
		l.bot.StatusReason = "settlement would drive balance negative"
		return nil, &CorruptionError{BotID: l.bot.BotID, Op: "settle_wager", Msg: l.bot.StatusReason}
	}

	delete(l.bot.OpenWagers, wagerID)
	w.State = string(outcome)
	w.ProfitLoss = w.Realized(outcome)
	w.SettledAt = settledAt
	l.bot.CurrentBalance = newBalance
	if newBalance > l.bot.PeakBalance {
		l.bot.PeakBalance = newBalance
	}
	l.bot.TransactionLog = append(l.bot.TransactionLog, w)

	if err := l.reconcile("settle_wager"); err != nil {
		return nil, err
	}

	l.checkAutoPause()

	wc := *w
	return &wc, nil
}

// Resume is the explicit external transition PAUSED -> ACTIVE.
func (l *Ledger) Resume() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bot.Status != domain.BotPaused {
		return &StateError{BotID: l.bot.BotID, Op: "resume", Msg: fmt.Sprintf("bot is %s, not PAUSED", l.bot.Status)}
	}
	l.bot.Status = domain.BotActive
	l.bot.StatusReason = ""
	return nil
}

// Pause is a manual protective transition ACTIVE -> PAUSED.
func (l *Ledger) Pause(reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bot.Status != domain.BotActive {
		return &StateError{BotID: l.bot.BotID, Op: "pause", Msg: fmt.Sprintf("bot is %s, not ACTIVE", l.bot.Status)}
	}
	l.bot.Status = domain.BotPaused
	l.bot.StatusReason = reason
	return nil
}

// Stop halts the bot. ERROR is sticky: a corrupted ledger stays in ERROR
// until manual review, not STOPPED.
func (l *Ledger) Stop(reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bot.Status == domain.BotError {
		return &StateError{BotID: l.bot.BotID, Op: "stop", Msg: "bot is ERROR, manual review required"}
	}
	l.bot.Status = domain.BotStopped
	l.bot.StatusReason = reason
	return nil
}

// reconcile verifies current_balance == starting_balance + sum(pnl) - open
// stake. A violation forces ERROR and returns a CorruptionError.
func (l *Ledger) reconcile(op string) error {
	expected := l.bot.StartingBalance
	for _, t := range l.bot.TransactionLog {
		expected += t.ProfitLoss
	}
	expected -= l.bot.OpenStake()

	if math.Abs(expected-l.bot.CurrentBalance) > reconcileEpsilon {
		l.bot.Status = domain.BotError
		l.bot.StatusReason = fmt.Sprintf("balance %v does not reconcile to %v", l.bot.CurrentBalance, expected)
		return &CorruptionError{BotID: l.bot.BotID, Op: op, Msg: l.bot.StatusReason}
	}
	return nil
}

// checkAutoPause applies the protective ACTIVE -> PAUSED transitions on
// the settling write: stop-loss measured from peak balance, take-profit
// from starting balance.
func (l *Ledger) checkAutoPause() {
	if l.bot.Status != domain.BotActive {
		return
	}
	if sl := l.bot.Risk.StopLossPercentage; sl > 0 && l.bot.DrawdownPct() >= sl {
		l.bot.Status = domain.BotPaused
		l.bot.StatusReason = ReasonStopLoss
		return
	}
	if tp := l.bot.Risk.TakeProfitPercentage; tp > 0 && l.bot.GainPct() >= tp {
		l.bot.Status = domain.BotPaused
		l.bot.StatusReason = ReasonTakeProfit
	}
}
