package repository

import (
	"context"
	"time"

	"PippyDesk/internal/domain/models"
)

// QuoteProvider returns the raw, unvalidated quote payload for a symbol.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*models.QuotePayload, error)
}

// NewsProvider returns company headlines published in [from, to].
type NewsProvider interface {
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error)
}

// CalendarProvider returns this week's economic events, unfiltered.
type CalendarProvider interface {
	Events(ctx context.Context) ([]models.CalendarEvent, error)
}

// ChartSource lists uploaded charts for a symbol, newest first.
// No charts is an empty slice, not an error.
type ChartSource interface {
	Charts(ctx context.Context, symbol string) ([]models.ChartImage, error)
}

// EventPublisher ships analysis events downstream.
type EventPublisher interface {
	PublishAnalysis(ctx context.Context, ev *models.AnalysisEvent) error
	Close() error
}

// JournalStore persists trade journal entries.
type JournalStore interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, t *models.Trade) error
	Get(ctx context.Context, id int64) (*models.Trade, error)
	List(ctx context.Context, f models.TradeFilter) ([]*models.Trade, int64, error)
	Update(ctx context.Context, id int64, patch models.TradePatch) (*models.Trade, error)
	Close(ctx context.Context, id int64, exit models.TradeClose) (*models.Trade, error)
	Delete(ctx context.Context, id int64) error
	Closed(ctx context.Context, pair string) ([]*models.Trade, error)
	Shutdown() error
}

type Metrics interface {
	RecordCache(cache, result string)
	RecordFetchAttempt(source, outcome string)
	RecordSourceStatus(section, status string)
	RecordDebate(mode string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
