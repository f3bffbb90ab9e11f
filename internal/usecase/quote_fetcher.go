package usecase

import (
	"context"
	"sync"
	"time"

	"PippyDesk/internal/domain/models"
	domrepo "PippyDesk/internal/domain/repository"
	"PippyDesk/pkg/cache"
	applogger "PippyDesk/pkg/logger"
)

// QuoteFetcher wraps the quote provider with validation, retries and cache fallback.
type QuoteFetcher struct {
	provider domrepo.QuoteProvider
	fetcher  *CachedFetcher[models.Quote]
	now      func() time.Time
}

// NewQuoteFetcher creates a fetcher over store. A zero policy means DefaultFetchPolicy.
func NewQuoteFetcher(provider domrepo.QuoteProvider, store cache.Store[models.Quote], policy FetchPolicy, m domrepo.Metrics, l *applogger.Logger) *QuoteFetcher {
	if policy.TTL <= 0 && policy.Retry.MaxAttempts == 0 {
		policy = DefaultFetchPolicy()
	}
	return &QuoteFetcher{
		provider: provider,
		fetcher:  NewCachedFetcher("quotes", store, policy, m, l),
		now:      time.Now,
	}
}

// FetchQuote never returns an error: every failure path resolves to Unavailable.
// Invalid payloads count as failed attempts and are never cached.
func (f *QuoteFetcher) FetchQuote(ctx context.Context, symbol string) models.SourceResult[models.Quote] {
	res, err := f.fetcher.Fetch(ctx, symbol, func(ctx context.Context) (models.Quote, error) {
		p, err := f.provider.Quote(ctx, symbol)
		if err != nil {
			return models.Quote{}, err
		}
		return models.ValidateQuote(symbol, p, f.now())
	})
	if err != nil {
		return models.Unavailable[models.Quote](models.FailureKind(err))
	}
	q := res.Value
	q.Origin = res.Origin
	return models.Success(q)
}

// FetchQuotes resolves every symbol concurrently, preserving input order.
func (f *QuoteFetcher) FetchQuotes(ctx context.Context, symbols []string) []models.SymbolQuote {
	out := make([]models.SymbolQuote, len(symbols))
	var wg sync.WaitGroup
	for i, s := range symbols {
		wg.Add(1)
		go func(i int, s string) {
			defer wg.Done()
			out[i] = models.SymbolQuote{Symbol: s, Result: f.FetchQuote(ctx, s)}
		}(i, s)
	}
	wg.Wait()
	return out
}
