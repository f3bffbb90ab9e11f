package usecase

import (
	"context"
	"testing"
	"time"

	"PippyDesk/internal/domain/models"
	"PippyDesk/pkg/cache"
	applogger "PippyDesk/pkg/logger"
	"PippyDesk/pkg/metrics"
	"PippyDesk/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuoteFetcher(p *fakeQuotes, clock *fakeClock) (*QuoteFetcher, *cache.TTLCache[models.Quote]) {
	store := cache.NewTTLCache[models.Quote](cache.WithClock(clock.Now))
	policy := FetchPolicy{TTL: 30 * time.Second, Retry: retry.LinearPolicy(3, time.Millisecond)}
	f := NewQuoteFetcher(p, store, policy, metrics.Noop{}, applogger.Nop())
	f.now = clock.Now
	return f, store
}

func TestFetchQuoteLiveThenCached(t *testing.T) {
	clock := newFakeClock()
	p := &fakeQuotes{script: []quoteReply{{p: &models.QuotePayload{C: 150.25, H: 151, L: 149, O: 150, PC: 149.5}}}}
	f, store := newTestQuoteFetcher(p, clock)
	ctx := context.Background()

	res := f.FetchQuote(ctx, "AAPL")
	require.True(t, res.OK())
	assert.Equal(t, 150.25, res.Data.Price)
	assert.Equal(t, 151.0, res.Data.High)
	assert.Equal(t, 149.0, res.Data.Low)
	assert.Equal(t, models.OriginLive, res.Data.Origin)

	entry, ok := store.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, clock.Now(), entry.FetchedAt)
	assert.True(t, store.IsFresh(entry, 30*time.Second))

	clock.Advance(29 * time.Second)
	res = f.FetchQuote(ctx, "AAPL")
	require.True(t, res.OK())
	assert.Equal(t, models.OriginCached, res.Data.Origin)
	assert.Equal(t, int32(1), p.calls.Load(), "a fetch within TTL never hits the provider")
}

func TestFetchQuoteRefreshesAfterTTL(t *testing.T) {
	clock := newFakeClock()
	p := &fakeQuotes{script: []quoteReply{okQuote(100), okQuote(101)}}
	f, _ := newTestQuoteFetcher(p, clock)

	f.FetchQuote(context.Background(), "SPY")
	clock.Advance(30 * time.Second)
	res := f.FetchQuote(context.Background(), "SPY")

	require.True(t, res.OK())
	assert.Equal(t, 101.0, res.Data.Price)
	assert.Equal(t, models.OriginLive, res.Data.Origin)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestFetchQuoteInvalidPayloadNotCached(t *testing.T) {
	cases := map[string]*models.QuotePayload{
		"zero":           {},
		"negative price": {C: -5, H: 1, L: 0.5, O: 1, PC: 1},
		"high below low": {C: 10, H: 9, L: 11, O: 10, PC: 10},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			p := &fakeQuotes{script: []quoteReply{{p: payload}}}
			f, store := newTestQuoteFetcher(p, clock)

			res := f.FetchQuote(context.Background(), "AAPL")
			assert.False(t, res.OK())
			assert.Equal(t, "invalid_payload", res.Reason)
			assert.Equal(t, int32(3), p.calls.Load(), "invalid payloads are retried")
			assert.Equal(t, 0, store.Len(), "invalid payloads are never cached")
		})
	}
}

func TestFetchQuoteExhaustedWithoutCacheIsUnavailable(t *testing.T) {
	p := &fakeQuotes{script: []quoteReply{failQuote(models.ErrTransport)}}
	f, _ := newTestQuoteFetcher(p, newFakeClock())

	res := f.FetchQuote(context.Background(), "AAPL")
	assert.Equal(t, models.StatusUnavailable, res.Status)
	assert.Equal(t, "transport", res.Reason)
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestFetchQuoteRateLimitRetriedLikeTransport(t *testing.T) {
	p := &fakeQuotes{script: []quoteReply{failQuote(models.ErrRateLimited), failQuote(models.ErrRateLimited), okQuote(42)}}
	f, _ := newTestQuoteFetcher(p, newFakeClock())

	res := f.FetchQuote(context.Background(), "GLD")
	require.True(t, res.OK())
	assert.Equal(t, 42.0, res.Data.Price)
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestFetchQuoteFallsBackToStale(t *testing.T) {
	clock := newFakeClock()
	p := &fakeQuotes{script: []quoteReply{okQuote(100), failQuote(models.ErrTransport)}}
	f, _ := newTestQuoteFetcher(p, clock)
	ctx := context.Background()

	require.True(t, f.FetchQuote(ctx, "QQQ").OK())
	clock.Advance(5 * time.Minute)

	res := f.FetchQuote(ctx, "QQQ")
	require.True(t, res.OK())
	assert.Equal(t, models.OriginStale, res.Data.Origin)
	assert.Equal(t, 100.0, res.Data.Price)
	assert.Equal(t, int32(4), p.calls.Load(), "one success plus three failed attempts")
}

func TestFetchQuoteProviderPanicIsUnavailable(t *testing.T) {
	p := &fakeQuotes{script: []quoteReply{{p: nil, err: nil}}}
	f, _ := newTestQuoteFetcher(p, newFakeClock())
	f.provider = panicky{}

	res := f.FetchQuote(context.Background(), "AAPL")
	assert.False(t, res.OK())
}

type panicky struct{}

func (panicky) Quote(context.Context, string) (*models.QuotePayload, error) { panic("boom") }

func TestFetchQuotesPreservesOrder(t *testing.T) {
	p := &fakeQuotes{bySym: map[string][]quoteReply{
		"SPY": {okQuote(500)},
		"QQQ": {failQuote(models.ErrTransport)},
		"DIA": {okQuote(390)},
	}}
	f, _ := newTestQuoteFetcher(p, newFakeClock())

	got := f.FetchQuotes(context.Background(), []string{"SPY", "QQQ", "DIA"})
	require.Len(t, got, 3)
	assert.Equal(t, "SPY", got[0].Symbol)
	assert.True(t, got[0].Result.OK())
	assert.Equal(t, "QQQ", got[1].Symbol)
	assert.False(t, got[1].Result.OK())
	assert.Equal(t, 390.0, got[2].Result.Data.Price)
}
