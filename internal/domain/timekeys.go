package domain

import (
	"fmt"
	"time"
)

// DayKey returns the UTC calendar-date key for a Unix-ms timestamp.
func DayKey(tsMs int64) string {
	return time.UnixMilli(tsMs).UTC().Format("2006-01-02")
}

// WeekKey returns the ISO-week key for a Unix-ms timestamp.
func WeekKey(tsMs int64) string {
	year, week := time.UnixMilli(tsMs).UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// CountsAt returns the day and week bet counts as of the given timestamp.
// A timestamp in a new day or week reads as zero; the stored counters roll
// over on the next placement.
func (c *BetCounters) CountsAt(tsMs int64) (day, week int) {
	if c.DayKey == DayKey(tsMs) {
		day = c.DayCount
	}
	if c.WeekKey == WeekKey(tsMs) {
		week = c.WeekCount
	}
	return day, week
}

// Record increments the counters for a placement at the given timestamp,
// rolling each window over when its key changes.
func (c *BetCounters) Record(tsMs int64) {
	dk, wk := DayKey(tsMs), WeekKey(tsMs)
	if c.DayKey != dk {
		c.DayKey, c.DayCount = dk, 0
	}
	if c.WeekKey != wk {
		c.WeekKey, c.WeekCount = wk, 0
	}
	c.DayCount++
	c.WeekCount++
}
