package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

func createTestBot(botID string) *domain.Bot {
	bot := domain.NewBot(botID, "kelly-quarter", 1000, domain.RiskManagement{
		StopLossPercentage:   20,
		TakeProfitPercentage: 50,
		MaxBetPercentage:     3,
	})
	bot.Name = "test bot"
	return bot
}

func TestBotStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBotStore(pool)

	bot := createTestBot("bot-1")
	bot.OpenWagers["w1"] = &domain.Wager{WagerID: "w1", BotID: "bot-1", Stake: 25, DecimalOdds: 2.1, State: domain.WagerOpen}
	bot.CurrentBalance = 975

	err := store.Insert(ctx, bot)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "bot-1")
	require.NoError(t, err)

	assert.Equal(t, bot.BotID, retrieved.BotID)
	assert.Equal(t, domain.BotActive, retrieved.Status)
	assert.InDelta(t, 975.0, retrieved.CurrentBalance, 0.0001)
	assert.InDelta(t, 20.0, retrieved.Risk.StopLossPercentage, 0.0001)
	require.Contains(t, retrieved.OpenWagers, "w1")
	assert.InDelta(t, 25.0, retrieved.OpenWagers["w1"].Stake, 0.0001)
}

func TestBotStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBotStore(pool)

	require.NoError(t, store.Insert(ctx, createTestBot("bot-1")))

	err := store.Insert(ctx, createTestBot("bot-1"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBotStore_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBotStore(pool)

	bot := createTestBot("bot-1")
	require.NoError(t, store.Insert(ctx, bot))

	bot.Status = domain.BotPaused
	bot.StatusReason = "STOP_LOSS"
	bot.CurrentBalance = 790
	bot.Counters = domain.BetCounters{DayKey: "2025-01-06", DayCount: 3, WeekKey: "2025-W02", WeekCount: 3}
	require.NoError(t, store.Update(ctx, bot))

	retrieved, err := store.GetByID(ctx, "bot-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BotPaused, retrieved.Status)
	assert.Equal(t, "STOP_LOSS", retrieved.StatusReason)
	assert.InDelta(t, 790.0, retrieved.CurrentBalance, 0.0001)
	assert.Equal(t, 3, retrieved.Counters.DayCount)
	assert.Equal(t, "2025-W02", retrieved.Counters.WeekKey)
}

func TestBotStore_UpdateMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBotStore(pool)

	err := store.Update(ctx, createTestBot("ghost"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBotStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBotStore(pool)

	require.NoError(t, store.Insert(ctx, createTestBot("bot-b")))
	require.NoError(t, store.Insert(ctx, createTestBot("bot-a")))

	bots, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, bots, 2)
	assert.Equal(t, "bot-a", bots[0].BotID)
	assert.Equal(t, "bot-b", bots[1].BotID)
}
