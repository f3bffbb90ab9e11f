package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"PippyDesk/internal/domain/models"
	"PippyDesk/internal/domain/repository"
	"PippyDesk/internal/handler/api"
	internalrepo "PippyDesk/internal/repository"
	"PippyDesk/internal/service/calendar"
	"PippyDesk/internal/service/finnhub"
	"PippyDesk/internal/service/gemini"
	"PippyDesk/internal/service/groq"
	"PippyDesk/internal/service/ratelimit"
	"PippyDesk/internal/usecase"
	"PippyDesk/pkg/cache"
	"PippyDesk/pkg/config"
	xhttp "PippyDesk/pkg/http"
	"PippyDesk/pkg/http/middleware"
	pkgkafka "PippyDesk/pkg/kafka"
	applogger "PippyDesk/pkg/logger"
	"PippyDesk/pkg/metrics"
	"PippyDesk/pkg/retry"
	"PippyDesk/pkg/server"

	"github.com/redis/go-redis/v9"
)

// Caches holds the in-process stores shared by the fetchers.
type Caches struct {
	Quotes   *cache.TTLCache[models.Quote]
	News     *cache.TTLCache[[]models.NewsItem]
	Calendar *cache.TTLCache[[]models.CalendarEvent]
	Charts   *cache.TTLCache[string]
}

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Noop{}
	}
	return metrics.New()
}

// ProvideRedisClient connects only when the rate limiter is configured for Redis.
// It is nil when unused or unreachable; the limiter then falls back to memory.
func ProvideRedisClient(cfg *config.Config, l *applogger.Logger) *redis.Client {
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Backend != "redis" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		l.Warn("redis unreachable, using in-memory rate limiter",
			applogger.String("addr", cfg.Redis.Addr), applogger.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

// ProvideCaches creates one process-local store per upstream source.
func ProvideCaches() *Caches {
	return &Caches{
		Quotes:   cache.NewTTLCache[models.Quote](),
		News:     cache.NewTTLCache[[]models.NewsItem](),
		Calendar: cache.NewTTLCache[[]models.CalendarEvent](),
		Charts:   cache.NewTTLCache[string](),
	}
}

func ProvideFinnhubClient(cfg *config.Config) *finnhub.Client {
	return finnhub.New(cfg.Finnhub.APIKey, cfg.Finnhub.BaseURL, cfg.Finnhub.Timeout)
}

func ProvideCalendarClient(cfg *config.Config) *calendar.Client {
	return calendar.New(cfg.Calendar.URL, cfg.Calendar.Enabled, cfg.Calendar.Timeout)
}

func ProvideGeminiClient(cfg *config.Config) *gemini.Client {
	return gemini.New(gemini.Config{
		APIKey:          cfg.Gemini.APIKey,
		BaseURL:         cfg.Gemini.BaseURL,
		Model:           cfg.Gemini.Model,
		Timeout:         cfg.Gemini.Timeout,
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	})
}

func ProvideGroqClient(cfg *config.Config) *groq.Client {
	return groq.New(groq.Config{
		APIKey:      cfg.Groq.APIKey,
		BaseURL:     cfg.Groq.BaseURL,
		Model:       cfg.Groq.Model,
		Timeout:     cfg.Groq.Timeout,
		Temperature: cfg.Groq.Temperature,
		MaxTokens:   cfg.Groq.MaxTokens,
	})
}

func fetchPolicy(ttl time.Duration, r config.RetryConfig) usecase.FetchPolicy {
	p := retry.LinearPolicy(r.MaxAttempts, r.Delay)
	p.AttemptTimeout = r.AttemptTimeout
	return usecase.FetchPolicy{TTL: ttl, Retry: p}
}

// ProvideQuoteFetcher wraps Finnhub quotes in the cache and retry policy.
func ProvideQuoteFetcher(cfg *config.Config, fh *finnhub.Client, caches *Caches, m repository.Metrics, l *applogger.Logger) *usecase.QuoteFetcher {
	return usecase.NewQuoteFetcher(fh, caches.Quotes, fetchPolicy(cfg.Quotes.TTL, cfg.Quotes.Retry), m, l)
}

// ProvideChartAnalyzer reads uploaded charts and describes them with Gemini vision.
func ProvideChartAnalyzer(cfg *config.Config, vision *gemini.Client, caches *Caches, m repository.Metrics, l *applogger.Logger) *usecase.ChartAnalyzer {
	source := internalrepo.NewChartDir(cfg.Charts.Dir, 0)
	return usecase.NewChartAnalyzer(source, vision, caches.Charts,
		fetchPolicy(cfg.Charts.TTL, cfg.Charts.Retry), usecase.DefaultPromptBook(), cfg.Charts.MaxCharts, m, l)
}

func ProvideAggregator(cfg *config.Config, quotes *usecase.QuoteFetcher, charts *usecase.ChartAnalyzer, fh *finnhub.Client, cal *calendar.Client, caches *Caches, m repository.Metrics, l *applogger.Logger) *usecase.Aggregator {
	return usecase.NewAggregator(usecase.AggregatorDeps{
		Quotes:         quotes,
		Charts:         charts,
		News:           fh,
		NewsStore:      caches.News,
		NewsPolicy:     fetchPolicy(cfg.News.TTL, cfg.News.Retry),
		Calendar:       cal,
		CalendarStore:  caches.Calendar,
		CalendarPolicy: fetchPolicy(cfg.Calendar.TTL, cfg.Calendar.Retry),
	}, usecase.AggregatorConfig{
		WatchList:        cfg.Quotes.WatchList,
		TaskTimeout:      cfg.Aggregator.TaskTimeout,
		NewsLookbackDays: cfg.News.LookbackDays,
		NewsLimit:        cfg.News.Limit,
		CalendarLimit:    cfg.Calendar.Limit,
	}, m, l)
}

// ProvideDebater pairs Gemini (model A) with Groq (model B).
func ProvideDebater(cfg *config.Config, a *gemini.Client, b *groq.Client, m repository.Metrics, l *applogger.Logger) *usecase.Debater {
	return usecase.NewDebater(a, b, usecase.DefaultPromptBook(), usecase.DebateConfig{
		Refine: cfg.Debate.Refine,
		Retry: retry.Policy{
			MaxAttempts:    cfg.Debate.MaxAttempts,
			Backoff:        retry.Exponential(cfg.Debate.BackoffMin, cfg.Debate.BackoffMax),
			AttemptTimeout: cfg.Debate.CallTimeout,
		},
	}, m, l)
}

// ProvideEventPublisher ships analysis events to Kafka, or drops them when events are disabled.
func ProvideEventPublisher(cfg *config.Config, l *applogger.Logger) (repository.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithTopic(cfg.Events.Topic),
		pkgkafka.WithRequiredAcks(cfg.Events.RequiredAcks),
		pkgkafka.WithCompression(cfg.Events.Compression),
		pkgkafka.WithBatch(cfg.Events.BatchSize, cfg.Events.Linger),
		pkgkafka.WithWriteTimeout(cfg.Events.WriteTimeout),
		pkgkafka.WithAsync(cfg.Events.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.Info("analysis events enabled",
		applogger.Strings("brokers", cfg.Events.Brokers),
		applogger.String("topic", cfg.Events.Topic),
	)
	return internalrepo.NewKafkaPublisher(producer), nil
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config, rdb *redis.Client) middleware.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return nil
	}
	if rl.Backend == "redis" && rdb != nil {
		return ratelimit.NewRedis(rdb, "", rl.Requests, rl.Window)
	}
	return ratelimit.New(rl.Requests, rl.Window)
}

// ProvideJournalStore opens the SQLite journal. It is nil when the journal is disabled.
func ProvideJournalStore(cfg *config.Config) (repository.JournalStore, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	if err := ensureDir(cfg.Journal.DSN); err != nil {
		return nil, err
	}
	store, err := internalrepo.NewSQLiteJournal(cfg.Journal.DSN)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Shutdown()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return store, nil
}

// ensureDir creates the parent directory of a file: DSN.
func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("journal dir: %w", err)
		}
	}
	return nil
}

func ProvideJournalService(store repository.JournalStore, l *applogger.Logger) *usecase.JournalService {
	if store == nil {
		return nil
	}
	return usecase.NewJournalService(store, l)
}

func ProvideChatService(cfg *config.Config, d *usecase.Debater, a *usecase.Aggregator, events repository.EventPublisher, m repository.Metrics, l *applogger.Logger) *usecase.ChatService {
	return usecase.NewChatService(d, a, usecase.NewKeywordClassifier(), events, cfg.Chat.DefaultSymbol, m, l)
}

func ProvidePlanService(d *usecase.Debater, a *usecase.Aggregator, events repository.EventPublisher, m repository.Metrics, l *applogger.Logger) *usecase.PlanService {
	return usecase.NewPlanService(d, a, usecase.DefaultPromptBook(), events, m, l)
}

// ProvideStatusService snapshots provider readiness at startup.
func ProvideStatusService(fh *finnhub.Client, cal *calendar.Client, a *gemini.Client, b *groq.Client, caches *Caches) *usecase.StatusService {
	return usecase.NewStatusService(models.ProviderStatus{
		GeminiReady:   a.Ready(),
		GroqReady:     b.Ready(),
		FinnhubReady:  fh.Ready(),
		CalendarReady: cal.Ready(),
	}, caches.sizers())
}

func (c *Caches) sizers() map[string]usecase.Sizer {
	return map[string]usecase.Sizer{
		"quotes":   c.Quotes,
		"news":     c.News,
		"calendar": c.Calendar,
		"charts":   c.Charts,
	}
}

// ProvideHTTPHandler assembles the API routes.
func ProvideHTTPHandler(l *applogger.Logger, chat *usecase.ChatService, plan *usecase.PlanService, status *usecase.StatusService, journal *usecase.JournalService, limiter middleware.Limiter) xhttp.Handler {
	var jh *api.JournalEchoHandler
	if journal != nil {
		jh = api.NewJournalEchoHandler(l, journal)
	}
	return api.NewRouter(api.NewAssistantEchoHandler(l, chat, plan, status, limiter), jh)
}

// ProvideApp creates the application with every resource it must release on shutdown.
func ProvideApp(cfg *config.Config, l *applogger.Logger, handler xhttp.Handler, events repository.EventPublisher, journal repository.JournalStore, rdb *redis.Client) *server.App {
	closers := []server.Closer{{Name: "events", Close: events.Close}}
	if journal != nil {
		closers = append(closers, server.Closer{Name: "journal", Close: journal.Shutdown})
	}
	if rdb != nil {
		closers = append(closers, server.Closer{Name: "redis", Close: rdb.Close})
	}
	return server.New(cfg, l, handler, closers...)
}
