package ledger

import "fmt"

// StateError is a caller error: the operation is invalid for the bot's
// current state (settling twice, placing while PAUSED, unknown wager id).
// Nothing is mutated when a StateError is returned.
type StateError struct {
	BotID string
	Op    string
	Msg   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error: bot %s: %s: %s", e.BotID, e.Op, e.Msg)
}

// CorruptionError reports an invariant violation in a bot's ledger. The bot
// is forced into ERROR status before this is returned; it is the only
// bot-fatal condition and must never be swallowed.
type CorruptionError struct {
	BotID string
	Op    string
	Msg   string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("ledger corruption: bot %s: %s: %s", e.BotID, e.Op, e.Msg)
}
