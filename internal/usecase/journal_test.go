package usecase

import (
	"context"
	"errors"
	"testing"

	"PippyDesk/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memJournal keeps trades in a slice; only the calls the tests reach are real.
type memJournal struct {
	trades  []*models.Trade
	updates int
}

func (m *memJournal) Init(context.Context) error { return nil }
func (m *memJournal) Create(_ context.Context, t *models.Trade) error {
	t.ID = int64(len(m.trades) + 1)
	m.trades = append(m.trades, t)
	return nil
}
func (m *memJournal) Get(_ context.Context, id int64) (*models.Trade, error) {
	for _, t := range m.trades {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, models.ErrNotFound
}
func (m *memJournal) List(context.Context, models.TradeFilter) ([]*models.Trade, int64, error) {
	return m.trades, int64(len(m.trades)), nil
}
func (m *memJournal) Update(ctx context.Context, id int64, _ models.TradePatch) (*models.Trade, error) {
	m.updates++
	return m.Get(ctx, id)
}
func (m *memJournal) Close(ctx context.Context, id int64, c models.TradeClose) (*models.Trade, error) {
	t, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return t, t.ApplyClose(c, newFakeClock().Now())
}
func (m *memJournal) Delete(context.Context, int64) error { return nil }
func (m *memJournal) Closed(context.Context, string) ([]*models.Trade, error) {
	var out []*models.Trade
	for i := len(m.trades) - 1; i >= 0; i-- {
		if m.trades[i].Status.IsClosed() {
			out = append(out, m.trades[i])
		}
	}
	return out, nil
}
func (m *memJournal) Shutdown() error { return nil }

func TestJournalServiceUpdateRejectsEmptyPatch(t *testing.T) {
	store := &memJournal{}
	svc := NewJournalService(store, nil)

	_, err := svc.Update(context.Background(), 1, models.TradePatch{})
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Zero(t, store.updates)
}

func TestJournalServiceStats(t *testing.T) {
	svc := NewJournalService(&memJournal{}, nil)
	ctx := context.Background()

	stats, err := svc.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "NONE", stats.StreakType)

	for _, exit := range []int64{110, 95, 105, 108} {
		tr, err := svc.Create(ctx, &models.Trade{Pair: "SPY", Direction: models.DirectionLong,
			EntryPrice: decimal.NewFromInt(100), PositionSize: decimal.NewFromInt(1), Status: models.TradeOpen})
		require.NoError(t, err)
		_, err = svc.Close(ctx, tr.ID, models.TradeClose{ExitPrice: decimal.NewFromInt(exit)})
		require.NoError(t, err)
	}

	stats, err = svc.Stats(ctx, "SPY")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 3, stats.Wins)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, "WIN", stats.StreakType)
	assert.True(t, stats.TotalPnL.Equal(decimal.NewFromInt(18)), stats.TotalPnL.String())
}
