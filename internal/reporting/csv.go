package reporting

import (
	"fmt"
	"strings"

	"sportsbet-lab/internal/domain"
)

// RenderRunSummaryCSV renders run summaries as CSV string.
func RenderRunSummaryCSV(rows []RunSummaryRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,sizing_policy,initial_bankroll,final_balance,event_count,cancelled,")
	sb.WriteString("total_bets,win_rate,roi_percentage,max_drawdown,")
	sb.WriteString("sharpe_ratio,sortino_ratio,profit_factor,max_consecutive_losses\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%.2f,%.2f,%d,%t,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%d\n",
			r.RunID,
			r.SizingPolicy,
			r.InitialBankroll,
			r.FinalBalance,
			r.EventCount,
			r.Cancelled,
			r.TotalBets,
			r.WinRate,
			r.ROIPercentage,
			r.MaxDrawdown,
			r.SharpeRatio,
			r.SortinoRatio,
			r.ProfitFactor,
			r.MaxConsecutiveLosses,
		))
	}

	return sb.String()
}

// RenderBetHistoryCSV renders settled wagers as CSV string.
func RenderBetHistoryCSV(bets []*domain.Wager) string {
	var sb strings.Builder

	sb.WriteString("wager_id,event_id,placed_at,settled_at,sport,market_type,predicted_outcome,")
	sb.WriteString("stake,decimal_odds,edge,confidence,state,profit_loss\n")

	for _, b := range bets {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%s,%s,%s,%.2f,%.4f,%.6f,%.2f,%s,%.2f\n",
			b.WagerID,
			b.EventID,
			b.PlacedAt,
			b.SettledAt,
			b.Sport,
			b.MarketType,
			b.PredictedOutcome,
			b.Stake,
			b.DecimalOdds,
			b.Edge,
			b.Confidence,
			b.State,
			b.ProfitLoss,
		))
	}

	return sb.String()
}

// RenderEquityCurveCSV renders equity points as CSV string.
func RenderEquityCurveCSV(points []*domain.EquityPoint) string {
	var sb strings.Builder

	sb.WriteString("run_id,timestamp,balance\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%s,%d,%.2f\n", p.RunID, p.Timestamp, p.Balance))
	}

	return sb.String()
}
