package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRunID computes a deterministic backtest run id using SHA256.
// Formula: SHA256(strategy_id|sizing_override|initial_bankroll|event_count|first_ts|last_ts)
// Two runs over the same configuration and event window share an id, so
// re-running an identical backtest is a duplicate-key insert, not a new row.
func ComputeRunID(strategyID, sizingOverride string, initialBankroll float64, eventCount int, firstTs, lastTs int64) string {
	data := fmt.Sprintf("%s|%s|%.2f|%d|%d|%d",
		strategyID,
		sizingOverride,
		initialBankroll,
		eventCount,
		firstTs,
		lastTs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
