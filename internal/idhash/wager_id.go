package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeWagerID computes a deterministic wager id for backtests using
// SHA256 over run_id|event_id|timestamp. Identical inputs always yield the
// identical id, which keeps bet histories bit-reproducible. Live wagers
// use random UUIDs instead.
func ComputeWagerID(runID, eventID string, timestamp int64) string {
	data := fmt.Sprintf("%s|%s|%d", runID, eventID, timestamp)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
