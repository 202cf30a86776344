package riskgate

import (
	"testing"

	"sportsbet-lab/internal/domain"
)

func gateConfig() *domain.StrategyConfig {
	return &domain.StrategyConfig{
		StrategyID:       "gate-test",
		SizingPolicy:     domain.SizingKelly,
		KellyFraction:    0.25,
		MaxBetPercentage: 5,
		MinConfidence:    60,
		MinExpectedValue: 0.02,
		MinOdds:          1.5,
		MaxOdds:          4.0,
		MaxBetsPerDay:    3,
		MaxBetsPerWeek:   10,
	}
}

func passingInput() Input {
	return Input{
		Stake:        40,
		Edge:         0.147,
		Confidence:   70,
		Odds:         1.85,
		BotStatus:    domain.BotActive,
		Balance:      1000,
		PeakBalance:  1000,
		BetsToday:    0,
		BetsThisWeek: 0,
	}
}

func TestCheckApproves(t *testing.T) {
	cfg := gateConfig()
	d := Check(passingInput(), cfg, domain.ResolveLimits(cfg, nil))
	if !d.Approved {
		t.Fatalf("expected approval, got %s", d.Reason)
	}
	if d.Stake != 40 || d.Reason != domain.ReasonOK {
		t.Errorf("decision = %+v, want stake 40 reason OK", d)
	}
}

func TestCheckOrderFirstFailureWins(t *testing.T) {
	cfg := gateConfig()
	lim := domain.ResolveLimits(cfg, nil)

	tests := []struct {
		name   string
		mutate func(*Input)
		want   domain.ReasonCode
	}{
		{"paused bot", func(in *Input) { in.BotStatus = domain.BotPaused }, domain.ReasonBotPaused},
		{"stopped bot", func(in *Input) { in.BotStatus = domain.BotStopped }, domain.ReasonBotStopped},
		{"error bot", func(in *Input) { in.BotStatus = domain.BotError }, domain.ReasonBotError},
		{"low confidence", func(in *Input) { in.Confidence = 59.9 }, domain.ReasonLowConfidence},
		{"odds below range", func(in *Input) { in.Odds = 1.4 }, domain.ReasonOddsOutOfRange},
		{"odds above range", func(in *Input) { in.Odds = 4.5 }, domain.ReasonOddsOutOfRange},
		{"low edge", func(in *Input) { in.Edge = 0.01 }, domain.ReasonLowEdge},
		{"zero stake", func(in *Input) { in.Stake = 0 }, domain.ReasonNoStake},
		{"stake exceeds balance", func(in *Input) { in.Stake = 1001 }, domain.ReasonInsufficientBalance},
		{"daily limit", func(in *Input) { in.BetsToday = 3 }, domain.ReasonDailyLimit},
		{"weekly limit", func(in *Input) { in.BetsThisWeek = 10 }, domain.ReasonWeeklyLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := passingInput()
			tt.mutate(&in)
			d := Check(in, cfg, lim)
			if d.Approved {
				t.Fatal("expected rejection")
			}
			if d.Reason != tt.want {
				t.Errorf("reason = %s, want %s", d.Reason, tt.want)
			}
		})
	}
}

func TestStatusCheckPrecedesAllOthers(t *testing.T) {
	// A paused bot with every other check failing still reports PAUSED.
	cfg := gateConfig()
	in := Input{
		Stake:      0,
		Edge:       -1,
		Confidence: 0,
		Odds:       1.01,
		BotStatus:  domain.BotPaused,
	}
	d := Check(in, cfg, domain.ResolveLimits(cfg, nil))
	if d.Reason != domain.ReasonBotPaused {
		t.Errorf("reason = %s, want PAUSED (check 1 short-circuits)", d.Reason)
	}
}

func TestProjectedDrawdownLimit(t *testing.T) {
	cfg := gateConfig()
	rm := &domain.RiskManagement{DrawdownLimitPercentage: 20}
	lim := domain.ResolveLimits(cfg, rm)

	// Balance already 15% off peak; losing a 60 stake would project past 20%.
	in := passingInput()
	in.Balance = 850
	in.PeakBalance = 1000
	in.Stake = 60

	d := Check(in, cfg, lim)
	if d.Reason != domain.ReasonDrawdownLimit {
		t.Fatalf("reason = %s, want DRAWDOWN_LIMIT", d.Reason)
	}

	// A smaller stake keeps the projection under the limit.
	in.Stake = 40
	d = Check(in, cfg, lim)
	if !d.Approved {
		t.Errorf("expected approval with stake 40, got %s", d.Reason)
	}
}

func TestGateIsPure(t *testing.T) {
	cfg := gateConfig()
	lim := domain.ResolveLimits(cfg, nil)
	in := passingInput()

	first := Check(in, cfg, lim)
	for i := 0; i < 5; i++ {
		if got := Check(in, cfg, lim); got != first {
			t.Fatalf("repeat call %d diverged: %+v vs %+v", i, got, first)
		}
	}
}
