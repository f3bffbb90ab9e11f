package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"PippyDesk/internal/domain/models"
	domrepo "PippyDesk/internal/domain/repository"
	"PippyDesk/pkg/cache"
	applogger "PippyDesk/pkg/logger"
	"PippyDesk/pkg/util"
)

// AggregatorConfig tunes the data-gathering stage.
type AggregatorConfig struct {
	WatchList        []string
	TaskTimeout      time.Duration
	NewsLookbackDays int
	NewsLimit        int
	CalendarLimit    int
}

// AggregateOptions selects optional sections.
type AggregateOptions struct {
	SkipCharts bool
}

// Aggregator gathers chart analysis, quotes, news and calendar concurrently.
type Aggregator struct {
	quotes    *QuoteFetcher
	charts    *ChartAnalyzer
	news      domrepo.NewsProvider
	newsCache *CachedFetcher[[]models.NewsItem]
	calendar  domrepo.CalendarProvider
	calCache  *CachedFetcher[[]models.CalendarEvent]
	cfg       AggregatorConfig
	metrics   domrepo.Metrics
	log       *applogger.Logger
	now       func() time.Time
}

// AggregatorDeps groups the collaborators and the caches they read through.
type AggregatorDeps struct {
	Quotes         *QuoteFetcher
	Charts         *ChartAnalyzer
	News           domrepo.NewsProvider
	NewsStore      cache.Store[[]models.NewsItem]
	NewsPolicy     FetchPolicy
	Calendar       domrepo.CalendarProvider
	CalendarStore  cache.Store[[]models.CalendarEvent]
	CalendarPolicy FetchPolicy
}

func NewAggregator(deps AggregatorDeps, cfg AggregatorConfig, m domrepo.Metrics, l *applogger.Logger) *Aggregator {
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 45 * time.Second
	}
	if cfg.NewsLookbackDays <= 0 {
		cfg.NewsLookbackDays = 7
	}
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = 10
	}
	if cfg.CalendarLimit <= 0 {
		cfg.CalendarLimit = 15
	}
	m, l = orNop(m, l)
	a := &Aggregator{
		quotes:   deps.Quotes,
		charts:   deps.Charts,
		news:     deps.News,
		calendar: deps.Calendar,
		cfg:      cfg,
		metrics:  m,
		log:      l.With(applogger.String("component", "aggregator")),
		now:      time.Now,
	}
	if deps.NewsStore == nil {
		deps.NewsStore = cache.NewTTLCache[[]models.NewsItem]()
	}
	if deps.CalendarStore == nil {
		deps.CalendarStore = cache.NewTTLCache[[]models.CalendarEvent]()
	}
	a.newsCache = NewCachedFetcher("news", deps.NewsStore, deps.NewsPolicy, m, l)
	a.calCache = NewCachedFetcher("calendar", deps.CalendarStore, deps.CalendarPolicy, m, l)
	return a
}

type sectionResult struct {
	name  string
	apply func(*models.AggregatedContext)
}

// Aggregate never fails as a whole. Each task settles into Success or
// Unavailable; one failing or panicking task neither cancels nor delays the rest.
func (a *Aggregator) Aggregate(ctx context.Context, symbol string, opts AggregateOptions) *models.AggregatedContext {
	start := time.Now()
	symbol = util.NormalizeSymbol(symbol)
	res := &models.AggregatedContext{Symbol: symbol, GeneratedAt: a.now()}

	tasks := map[string]func(context.Context) func(*models.AggregatedContext){
		models.SectionChartAnalysis: func(ctx context.Context) func(*models.AggregatedContext) {
			r := a.chartSection(ctx, symbol, opts)
			return func(ac *models.AggregatedContext) { ac.ChartAnalysis = r }
		},
		models.SectionQuotes: func(ctx context.Context) func(*models.AggregatedContext) {
			r := a.quoteSection(ctx, symbol)
			return func(ac *models.AggregatedContext) { ac.Quotes = r }
		},
		models.SectionNews: func(ctx context.Context) func(*models.AggregatedContext) {
			r := a.newsSection(ctx, symbol)
			return func(ac *models.AggregatedContext) { ac.News = r }
		},
		models.SectionCalendar: func(ctx context.Context) func(*models.AggregatedContext) {
			r := a.calendarSection(ctx)
			return func(ac *models.AggregatedContext) { ac.Calendar = r }
		},
	}

	ch := make(chan sectionResult, len(tasks))
	var wg sync.WaitGroup
	for name, task := range tasks {
		wg.Add(1)
		go func(name string, task func(context.Context) func(*models.AggregatedContext)) {
			defer wg.Done()
			ch <- a.run(ctx, name, task)
		}(name, task)
	}
	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		it.apply(res)
	}

	for name, st := range res.Statuses() {
		a.metrics.RecordSourceStatus(name, string(st))
	}
	a.metrics.RecordLatency("aggregate", time.Since(start).Seconds())
	n, total := res.Available()
	a.log.Info("aggregate built",
		applogger.String("symbol", symbol),
		applogger.Int("available", n),
		applogger.Int("total", total),
		applogger.Duration("elapsed_ms", time.Since(start)),
	)
	return res
}

// run bounds one task with its own deadline and turns a panic into Unavailable.
func (a *Aggregator) run(ctx context.Context, name string, task func(context.Context) func(*models.AggregatedContext)) (out sectionResult) {
	out.name = name
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("aggregation task panicked", applogger.String("section", name), applogger.Any("panic", r))
			a.metrics.RecordError("aggregate_panic")
			out.apply = unavailableSection(name, "panic")
		}
	}()
	tctx, cancel := context.WithTimeout(ctx, a.cfg.TaskTimeout)
	defer cancel()
	out.apply = task(tctx)
	return out
}

func unavailableSection(name, reason string) func(*models.AggregatedContext) {
	return func(ac *models.AggregatedContext) {
		switch name {
		case models.SectionChartAnalysis:
			ac.ChartAnalysis = models.Unavailable[models.ChartAnalysis](reason)
		case models.SectionQuotes:
			ac.Quotes = models.Unavailable[[]models.SymbolQuote](reason)
		case models.SectionNews:
			ac.News = models.Unavailable[[]models.NewsItem](reason)
		case models.SectionCalendar:
			ac.Calendar = models.Unavailable[[]models.CalendarEvent](reason)
		}
	}
}

func (a *Aggregator) chartSection(ctx context.Context, symbol string, opts AggregateOptions) models.SourceResult[models.ChartAnalysis] {
	if opts.SkipCharts {
		return models.Success(models.ChartAnalysis{Skipped: true})
	}
	if a.charts == nil {
		return models.Unavailable[models.ChartAnalysis](models.FailureKind(models.ErrNotConfigured))
	}
	ca, err := a.charts.Analyze(ctx, symbol)
	if err != nil {
		return models.Unavailable[models.ChartAnalysis](models.FailureKind(err))
	}
	return models.Success(ca)
}

// quoteSection quotes the target first, then the watch list. It succeeds when
// at least one symbol resolved; per-symbol failures stay visible in the data.
func (a *Aggregator) quoteSection(ctx context.Context, symbol string) models.SourceResult[[]models.SymbolQuote] {
	if a.quotes == nil {
		return models.Unavailable[[]models.SymbolQuote](models.FailureKind(models.ErrNotConfigured))
	}
	symbols := watchSymbols(symbol, a.cfg.WatchList)
	quotes := a.quotes.FetchQuotes(ctx, symbols)
	for _, q := range quotes {
		if q.Result.OK() {
			return models.Success(quotes)
		}
	}
	reason := "no symbols"
	if len(quotes) > 0 {
		reason = quotes[0].Result.Reason
	}
	return models.Unavailable[[]models.SymbolQuote](reason)
}

func watchSymbols(target string, watch []string) []string {
	seen := make(map[string]bool, len(watch)+1)
	out := make([]string, 0, len(watch)+1)
	for _, s := range append([]string{target}, watch...) {
		s = util.NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func (a *Aggregator) newsSection(ctx context.Context, symbol string) models.SourceResult[[]models.NewsItem] {
	if a.news == nil {
		return models.Unavailable[[]models.NewsItem](models.FailureKind(models.ErrNotConfigured))
	}
	res, err := a.newsCache.Fetch(ctx, symbol, func(ctx context.Context) ([]models.NewsItem, error) {
		to := a.now()
		from := to.AddDate(0, 0, -a.cfg.NewsLookbackDays)
		items, err := a.news.CompanyNews(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		return SortNews(items, a.cfg.NewsLimit), nil
	})
	if err != nil {
		return models.Unavailable[[]models.NewsItem](models.FailureKind(err))
	}
	return models.Success(res.Value)
}

func (a *Aggregator) calendarSection(ctx context.Context) models.SourceResult[[]models.CalendarEvent] {
	if a.calendar == nil {
		return models.Unavailable[[]models.CalendarEvent](models.FailureKind(models.ErrNotConfigured))
	}
	res, err := a.calCache.Fetch(ctx, "week", func(ctx context.Context) ([]models.CalendarEvent, error) {
		events, err := a.calendar.Events(ctx)
		if err != nil {
			return nil, err
		}
		return FilterCalendar(events, a.cfg.CalendarLimit), nil
	})
	if err != nil {
		return models.Unavailable[[]models.CalendarEvent](models.FailureKind(err))
	}
	return models.Success(res.Value)
}

// SortNews orders items newest first; ties keep provider order. limit <= 0 keeps all.
func SortNews(items []models.NewsItem, limit int) []models.NewsItem {
	out := append([]models.NewsItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FilterCalendar keeps High and Medium impact events sorted by time ascending.
func FilterCalendar(events []models.CalendarEvent, limit int) []models.CalendarEvent {
	out := make([]models.CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.Impact == models.ImpactHigh || e.Impact == models.ImpactMedium {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
