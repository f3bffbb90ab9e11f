package usecase

import (
	"context"
	"fmt"

	"PippyDesk/internal/domain/models"
	domrepo "PippyDesk/internal/domain/repository"
	applogger "PippyDesk/pkg/logger"
)

// JournalService is the trade journal use case. P/L is always computed server-side.
type JournalService struct {
	store domrepo.JournalStore
	log   *applogger.Logger
}

func NewJournalService(store domrepo.JournalStore, l *applogger.Logger) *JournalService {
	if l == nil {
		l = applogger.Nop()
	}
	return &JournalService{store: store, log: l.With(applogger.String("component", "journal"))}
}

func (s *JournalService) Create(ctx context.Context, t *models.Trade) (*models.Trade, error) {
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info("trade opened", applogger.Int64("id", t.ID), applogger.String("pair", t.Pair), applogger.String("direction", string(t.Direction)))
	return t, nil
}

func (s *JournalService) Get(ctx context.Context, id int64) (*models.Trade, error) {
	return s.store.Get(ctx, id)
}

func (s *JournalService) List(ctx context.Context, f models.TradeFilter) ([]*models.Trade, int64, error) {
	return s.store.List(ctx, f)
}

func (s *JournalService) Update(ctx context.Context, id int64, patch models.TradePatch) (*models.Trade, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrValidation)
	}
	return s.store.Update(ctx, id, patch)
}

func (s *JournalService) Close(ctx context.Context, id int64, exit models.TradeClose) (*models.Trade, error) {
	t, err := s.store.Close(ctx, id, exit)
	if err != nil {
		return nil, err
	}
	fields := []applogger.Field{applogger.Int64("id", id), applogger.String("status", string(t.Status))}
	if t.PnL != nil {
		pnl, _ := t.PnL.Float64()
		fields = append(fields, applogger.Float64("pnl", pnl))
	}
	s.log.Info("trade closed", fields...)
	return t, nil
}

func (s *JournalService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// Stats summarises closed trades, optionally for one pair.
func (s *JournalService) Stats(ctx context.Context, pair string) (models.TradeStats, error) {
	closed, err := s.store.Closed(ctx, pair)
	if err != nil {
		return models.TradeStats{}, err
	}
	return models.ComputeStats(closed), nil
}
