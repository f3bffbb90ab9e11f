package usecase

import (
	"context"
	"errors"
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

type aggFixture struct {
	clock    *fakeClock
	quotes   *fakeQuotes
	news     *fakeNews
	calendar *fakeCalendar
	charts   *fakeCharts
	vision   *fakeGen
}

func newAggFixture() *aggFixture {
	clock := newFakeClock()
	return &aggFixture{
		clock:  clock,
		quotes: &fakeQuotes{script: []quoteReply{okQuote(100)}},
		news: &fakeNews{items: []models.NewsItem{
			{Headline: "Fed holds", Source: "Reuters", PublishedAt: clock.Now().Add(-time.Hour)},
		}},
		calendar: &fakeCalendar{events: []models.CalendarEvent{
			{Title: "CPI m/m", Country: "USD", Impact: models.ImpactHigh, Date: clock.Now().Add(2 * time.Hour)},
		}},
		charts: &fakeCharts{charts: []models.ChartImage{{ID: "c1", Symbol: "SPY", MIMEType: "image/png", Data: []byte{1}}}},
		vision: newGen("gemini", always("uptrend, higher lows")),
	}
}

func (f *aggFixture) build() *Aggregator {
	policy := FetchPolicy{TTL: time.Minute, Retry: retry.LinearPolicy(2, time.Millisecond)}
	qf := NewQuoteFetcher(f.quotes, cache.NewTTLCache[models.Quote](cache.WithClock(f.clock.Now)), policy, nil, nil)
	qf.now = f.clock.Now
	ca := NewChartAnalyzer(f.charts, f.vision, cache.NewTTLCache[string](cache.WithClock(f.clock.Now)),
		policy, DefaultPromptBook(), 3, nil, nil)
	a := NewAggregator(AggregatorDeps{
		Quotes:         qf,
		Charts:         ca,
		News:           f.news,
		NewsStore:      cache.NewTTLCache[[]models.NewsItem](cache.WithClock(f.clock.Now)),
		NewsPolicy:     policy,
		Calendar:       f.calendar,
		CalendarStore:  cache.NewTTLCache[[]models.CalendarEvent](cache.WithClock(f.clock.Now)),
		CalendarPolicy: policy,
	}, AggregatorConfig{WatchList: []string{"QQQ"}, TaskTimeout: time.Second}, metrics.Noop{}, applogger.Nop())
	a.now = f.clock.Now
	return a
}

func TestAggregateAllSourcesAvailable(t *testing.T) {
	f := newAggFixture()
	res := f.build().Aggregate(context.Background(), "spy", AggregateOptions{})

	assert.Equal(t, "SPY", res.Symbol)
	n, total := res.Available()
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, total)

	require.True(t, res.Quotes.OK())
	require.Len(t, res.Quotes.Data, 2)
	assert.Equal(t, "SPY", res.Quotes.Data[0].Symbol)
	assert.Equal(t, "QQQ", res.Quotes.Data[1].Symbol)

	require.True(t, res.ChartAnalysis.OK())
	require.Len(t, res.ChartAnalysis.Data.Readings, 1)
	assert.Equal(t, "uptrend, higher lows", res.ChartAnalysis.Data.Readings[0].Text)
}

func TestAggregateOneSourceFailing(t *testing.T) {
	f := newAggFixture()
	f.news.err = models.ErrRateLimited

	res := f.build().Aggregate(context.Background(), "SPY", AggregateOptions{})

	assert.Equal(t, models.StatusUnavailable, res.News.Status)
	assert.Equal(t, "rate_limited", res.News.Reason)
	assert.Equal(t, int32(2), f.news.calls.Load(), "news is retried under its policy")

	assert.True(t, res.Quotes.OK())
	assert.True(t, res.Calendar.OK())
	assert.True(t, res.ChartAnalysis.OK())
	n, _ := res.Available()
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{models.SectionChartAnalysis, models.SectionQuotes, models.SectionCalendar}, res.AvailableSections())
}

func TestAggregatePanickingProviderDoesNotSinkTheRest(t *testing.T) {
	f := newAggFixture()
	f.news.panic = true

	res := f.build().Aggregate(context.Background(), "SPY", AggregateOptions{})

	assert.Equal(t, models.StatusUnavailable, res.News.Status)
	assert.True(t, res.Quotes.OK())
	assert.True(t, res.Calendar.OK())
	assert.True(t, res.ChartAnalysis.OK())
}

func TestAggregateRunRecoversTaskPanic(t *testing.T) {
	a := newAggFixture().build()
	out := a.run(context.Background(), models.SectionCalendar, func(context.Context) func(*models.AggregatedContext) {
		panic("boom")
	})

	var ac models.AggregatedContext
	out.apply(&ac)
	assert.Equal(t, models.StatusUnavailable, ac.Calendar.Status)
	assert.Equal(t, "panic", ac.Calendar.Reason)
}

func TestAggregateAllQuotesFailing(t *testing.T) {
	f := newAggFixture()
	f.quotes.script = []quoteReply{failQuote(models.ErrTransport)}

	res := f.build().Aggregate(context.Background(), "SPY", AggregateOptions{})

	assert.Equal(t, models.StatusUnavailable, res.Quotes.Status)
	assert.Equal(t, "transport", res.Quotes.Reason)
	assert.True(t, res.News.OK())
}

func TestAggregatePartialQuotesStillSucceed(t *testing.T) {
	f := newAggFixture()
	f.quotes.bySym = map[string][]quoteReply{"QQQ": {failQuote(models.ErrInvalidPayload)}}

	res := f.build().Aggregate(context.Background(), "SPY", AggregateOptions{})

	require.True(t, res.Quotes.OK())
	assert.True(t, res.Quotes.Data[0].Result.OK())
	assert.False(t, res.Quotes.Data[1].Result.OK())
	assert.Equal(t, "invalid_payload", res.Quotes.Data[1].Result.Reason)
}

func TestAggregateNoChartsIsEmptySuccess(t *testing.T) {
	f := newAggFixture()
	f.charts.charts = nil

	res := f.build().Aggregate(context.Background(), "SPY", AggregateOptions{})

	require.True(t, res.ChartAnalysis.OK())
	assert.True(t, res.ChartAnalysis.Data.Empty)
	assert.Empty(t, f.vision.Calls())
}

func TestAggregateSkipCharts(t *testing.T) {
	f := newAggFixture()

	res := f.build().Aggregate(context.Background(), "SPY", AggregateOptions{SkipCharts: true})

	require.True(t, res.ChartAnalysis.OK())
	assert.True(t, res.ChartAnalysis.Data.Skipped)
	assert.Empty(t, f.vision.Calls())
}

func TestAggregateMissingProvidersAreNotConfigured(t *testing.T) {
	a := NewAggregator(AggregatorDeps{}, AggregatorConfig{}, nil, nil)

	res := a.Aggregate(context.Background(), "SPY", AggregateOptions{})

	for name, st := range res.Statuses() {
		assert.Equal(t, models.StatusUnavailable, st, name)
	}
	assert.Equal(t, "not_configured", res.News.Reason)
}

func TestAggregateSectionsRunConcurrently(t *testing.T) {
	f := newAggFixture()
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	slow := &blockingCalendar{started: started, release: release}
	f.vision = newGen("gemini", func(string, string) (string, error) {
		started <- struct{}{}
		<-release
		return "chart ok", nil
	})

	a := f.build()
	a.calendar = slow

	done := make(chan *models.AggregatedContext)
	go func() { done <- a.Aggregate(context.Background(), "SPY", AggregateOptions{}) }()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("sections did not start concurrently")
		}
	}
	close(release)
	res := <-done
	assert.True(t, res.Calendar.OK())
	assert.True(t, res.ChartAnalysis.OK())
}

type blockingCalendar struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingCalendar) Events(context.Context) ([]models.CalendarEvent, error) {
	b.started <- struct{}{}
	<-b.release
	return nil, nil
}

func TestAggregateTaskTimeout(t *testing.T) {
	f := newAggFixture()
	a := f.build()
	a.cfg.TaskTimeout = 20 * time.Millisecond
	a.calendar = ctxCalendar{}

	res := a.Aggregate(context.Background(), "SPY", AggregateOptions{})

	assert.Equal(t, models.StatusUnavailable, res.Calendar.Status)
	assert.Equal(t, "timeout", res.Calendar.Reason)
	assert.True(t, res.News.OK())
}

type ctxCalendar struct{}

func (ctxCalendar) Events(ctx context.Context) ([]models.CalendarEvent, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAggregateNewsIsCachedPerSymbol(t *testing.T) {
	f := newAggFixture()
	a := f.build()
	ctx := context.Background()

	a.Aggregate(ctx, "SPY", AggregateOptions{SkipCharts: true})
	a.Aggregate(ctx, "SPY", AggregateOptions{SkipCharts: true})
	assert.Equal(t, int32(1), f.news.calls.Load())
	assert.Equal(t, int32(1), f.calendar.calls.Load())

	f.news.err = errors.New("down")
	f.clock.Advance(2 * time.Minute)
	res := a.Aggregate(ctx, "SPY", AggregateOptions{SkipCharts: true})
	require.True(t, res.News.OK(), "stale news is served when the refresh fails")
	assert.Len(t, res.News.Data, 1)
}

func TestSortNewsNewestFirstStable(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	items := []models.NewsItem{
		{Headline: "old", PublishedAt: base.Add(-2 * time.Hour)},
		{Headline: "tie-1", PublishedAt: base},
		{Headline: "newest", PublishedAt: base.Add(time.Hour)},
		{Headline: "tie-2", PublishedAt: base},
	}

	got := SortNews(items, 0)
	var heads []string
	for _, n := range got {
		heads = append(heads, n.Headline)
	}
	assert.Equal(t, []string{"newest", "tie-1", "tie-2", "old"}, heads)
	assert.Equal(t, "old", items[0].Headline, "input is not reordered")

	assert.Len(t, SortNews(items, 2), 2)
}

func TestFilterCalendar(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []models.CalendarEvent{
		{Title: "NFP", Impact: models.ImpactHigh, Date: base.Add(48 * time.Hour)},
		{Title: "Bank holiday", Impact: models.ImpactHoliday, Date: base},
		{Title: "PMI", Impact: models.ImpactMedium, Date: base.Add(time.Hour)},
		{Title: "Speech", Impact: models.ImpactLow, Date: base},
		{Title: "CPI", Impact: models.ImpactHigh, Date: base.Add(time.Hour)},
	}

	got := FilterCalendar(events, 0)
	var titles []string
	for _, e := range got {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"PMI", "CPI", "NFP"}, titles)
	assert.Len(t, FilterCalendar(events, 1), 1)
}

func TestWatchSymbolsTargetFirstDeduped(t *testing.T) {
	assert.Equal(t, []string{"QQQ", "SPY", "DIA"}, watchSymbols("qqq", []string{"SPY", "QQQ", " dia ", ""}))
}
