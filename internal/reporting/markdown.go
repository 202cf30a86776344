package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Backtest Report: %s\n\n", r.StrategyID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Runs: %d\n\n", r.RunCount))

	// Run Summaries
	sb.WriteString("## Run Summary\n\n")
	if len(r.RunSummaries) > 0 {
		sb.WriteString("| Run | Sizing | Bankroll | Final | Bets | WinRate | ROI% | MaxDD% | Sharpe | Sortino | PF | MaxLoss |\n")
		sb.WriteString("|-----|--------|----------|-------|------|---------|------|--------|--------|---------|----|--------|\n")
		for _, row := range r.RunSummaries {
			runID := row.RunID
			if row.Cancelled {
				runID += " (partial)"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f | %.2f | %d | %.4f | %.2f | %.2f | %.4f | %.4f | %.2f | %d |\n",
				runID, row.SizingPolicy,
				row.InitialBankroll, row.FinalBalance, row.TotalBets,
				row.WinRate, row.ROIPercentage, row.MaxDrawdown,
				row.SharpeRatio, row.SortinoRatio, row.ProfitFactor,
				row.MaxConsecutiveLosses))
		}
	} else {
		sb.WriteString("No runs available.\n")
	}
	sb.WriteString("\n")

	// Rejections
	sb.WriteString("## Rejections\n\n")
	if len(r.Rejections) > 0 {
		sb.WriteString("| Run | Reason | Count |\n")
		sb.WriteString("|-----|--------|-------|\n")
		for _, rej := range r.Rejections {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d |\n", rej.RunID, rej.Code, rej.Count))
		}
	} else {
		sb.WriteString("No opportunities rejected.\n")
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if r.DataQuality.Clean {
		sb.WriteString("All events processed. No malformed records skipped.\n")
	} else {
		sb.WriteString("| Run | Event | Reason |\n")
		sb.WriteString("|-----|-------|--------|\n")
		for _, note := range r.DataQuality.Notes {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", note.RunID, note.EventID, note.Reason))
		}
	}
	sb.WriteString("\n")

	return sb.String()
}
