package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"PippyDesk/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal("file::memory:")
	require.NoError(t, err)
	require.NoError(t, j.Init(context.Background()))
	t.Cleanup(func() { _ = j.Shutdown() })
	return j
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestJournalCreateAndGet(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	tr := &models.Trade{Pair: "eurusd", Direction: models.DirectionLong, EntryPrice: dec("1.0850"), StopLoss: decp("1.0800")}
	require.NoError(t, j.Create(ctx, tr))
	assert.NotZero(t, tr.ID)

	got, err := j.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", got.Pair)
	assert.Equal(t, models.TradeOpen, got.Status)
	assert.True(t, got.PositionSize.Equal(decimal.NewFromInt(1)))
	require.NotNil(t, got.StopLoss)
	assert.True(t, got.StopLoss.Equal(dec("1.08")))
	assert.Nil(t, got.ExitPrice)

	_, err = j.Get(ctx, 999)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestJournalCreateRejectsInvalid(t *testing.T) {
	j := newTestJournal(t)
	err := j.Create(context.Background(), &models.Trade{Pair: "EURUSD", Direction: "UP", EntryPrice: dec("1")})
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestJournalCloseComputesPnL(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	tr := &models.Trade{Pair: "NQ", Direction: models.DirectionShort, EntryPrice: dec("18000"),
		StopLoss: decp("18100"), PositionSize: dec("2")}
	require.NoError(t, j.Create(ctx, tr))

	closed, err := j.Close(ctx, tr.ID, models.TradeClose{ExitPrice: dec("17800")})
	require.NoError(t, err)
	assert.Equal(t, models.TradeWin, closed.Status)
	assert.True(t, closed.PnL.Equal(dec("400")), closed.PnL.String())
	assert.True(t, closed.RiskReward.Equal(dec("2")), closed.RiskReward.String())

	got, err := j.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeWin, got.Status)
	assert.True(t, got.PnL.Equal(dec("400")))
	require.NotNil(t, got.ExitDate)

	_, err = j.Close(ctx, tr.ID, models.TradeClose{ExitPrice: dec("17700")})
	assert.True(t, errors.Is(err, models.ErrValidation), "closing twice is rejected")
}

func TestJournalUpdateAllowList(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	tr := &models.Trade{Pair: "SPY", Direction: models.DirectionLong, EntryPrice: dec("500")}
	require.NoError(t, j.Create(ctx, tr))

	notes := "moved stop to breakeven"
	got, err := j.Update(ctx, tr.ID, models.TradePatch{Notes: &notes, StopLoss: decp("500")})
	require.NoError(t, err)
	assert.Equal(t, notes, got.Notes)
	assert.True(t, got.StopLoss.Equal(dec("500")))

	_, err = j.Update(ctx, tr.ID, models.TradePatch{})
	assert.True(t, errors.Is(err, models.ErrValidation))

	bad := models.TradeStatus("DONE")
	_, err = j.Update(ctx, tr.ID, models.TradePatch{Status: &bad})
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = j.Update(ctx, 12345, models.TradePatch{Notes: &notes})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestJournalListClosedAndDelete(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return clock }

	exits := []string{"101", "99", "102"}
	var ids []int64
	for i, exit := range exits {
		tr := &models.Trade{Pair: "SPY", Direction: models.DirectionLong, EntryPrice: dec("100"), EntryDate: clock.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, j.Create(ctx, tr))
		clock = clock.Add(time.Hour)
		_, err := j.Close(ctx, tr.ID, models.TradeClose{ExitPrice: dec(exit)})
		require.NoError(t, err)
		ids = append(ids, tr.ID)
	}
	open := &models.Trade{Pair: "QQQ", Direction: models.DirectionLong, EntryPrice: dec("400")}
	require.NoError(t, j.Create(ctx, open))

	all, total, err := j.List(ctx, models.TradeFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)

	spy, total, err := j.List(ctx, models.TradeFilter{Pair: "spy", Status: models.TradeWin, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, spy, 1)

	closed, err := j.Closed(ctx, "SPY")
	require.NoError(t, err)
	require.Len(t, closed, 3)
	assert.Equal(t, ids[2], closed[0].ID, "newest exit first")

	stats := models.ComputeStats(closed)
	assert.Equal(t, 3, stats.TotalTrades)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, "WIN", stats.StreakType)

	require.NoError(t, j.Delete(ctx, ids[0]))
	assert.True(t, errors.Is(j.Delete(ctx, ids[0]), models.ErrNotFound))
}
