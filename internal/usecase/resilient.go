package usecase

import (
	"context"
	"fmt"
	"time"

	"PippyDesk/internal/domain/models"
	domrepo "PippyDesk/internal/domain/repository"
	"PippyDesk/pkg/cache"
	applogger "PippyDesk/pkg/logger"
	"PippyDesk/pkg/metrics"
	"PippyDesk/pkg/retry"
)

// FetchPolicy is the freshness window plus retry budget of one cached source.
type FetchPolicy struct {
	TTL   time.Duration
	Retry retry.Policy
}

// DefaultFetchPolicy is 30s freshness and three attempts with 1s/2s waits.
func DefaultFetchPolicy() FetchPolicy {
	return FetchPolicy{TTL: 30 * time.Second, Retry: retry.LinearPolicy(3, time.Second)}
}

// Fetched is a value plus where it came from.
type Fetched[V any] struct {
	Value     V
	Origin    models.Origin
	FetchedAt time.Time
}

// CachedFetcher serves a fresh cache entry, otherwise fetches under the retry
// policy, and falls back to a stale entry when every attempt failed.
// The cache is read before and written after the upstream call; no lock spans the call.
type CachedFetcher[V any] struct {
	name    string
	store   cache.Store[V]
	policy  FetchPolicy
	metrics domrepo.Metrics
	log     *applogger.Logger
}

// NewCachedFetcher builds a fetcher named after its source, for metrics and logs.
func NewCachedFetcher[V any](name string, store cache.Store[V], policy FetchPolicy, m domrepo.Metrics, l *applogger.Logger) *CachedFetcher[V] {
	if policy.TTL <= 0 {
		policy.TTL = DefaultFetchPolicy().TTL
	}
	if policy.Retry.MaxAttempts < 1 {
		policy.Retry.MaxAttempts = 1
	}
	m, l = orNop(m, l)
	return &CachedFetcher[V]{
		name:    name,
		store:   store,
		policy:  policy,
		metrics: m,
		log:     l.With(applogger.String("source", name)),
	}
}

// Fetch returns the value for key. The error is non-nil only when nothing,
// not even a stale entry, can be returned.
func (f *CachedFetcher[V]) Fetch(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (Fetched[V], error) {
	entry, cached := f.store.Get(key)
	if cached && f.store.IsFresh(entry, f.policy.TTL) {
		f.metrics.RecordCache(f.name, "hit")
		return Fetched[V]{Value: entry.Value, Origin: models.OriginCached, FetchedAt: entry.FetchedAt}, nil
	}
	f.metrics.RecordCache(f.name, "miss")

	p := f.policy.Retry
	p.OnRetry = func(s retry.State) {
		f.metrics.RecordFetchAttempt(f.name, models.FailureKind(s.Err))
		f.log.Debug("fetch attempt failed",
			applogger.String("key", key),
			applogger.Int("attempt", s.Attempt),
			applogger.Int("max_attempts", s.MaxAttempts),
			applogger.Duration("wait_ms", s.Wait),
			applogger.Error(s.Err),
		)
	}

	start := time.Now()
	v, err := retry.Do(ctx, p, func(ctx context.Context) (V, error) {
		return safeCall(ctx, fn)
	})
	f.metrics.RecordLatency("fetch_"+f.name, time.Since(start).Seconds())
	if err == nil {
		f.metrics.RecordFetchAttempt(f.name, "ok")
		f.store.Put(key, v)
		fresh, _ := f.store.Get(key)
		return Fetched[V]{Value: v, Origin: models.OriginLive, FetchedAt: fresh.FetchedAt}, nil
	}
	f.metrics.RecordFetchAttempt(f.name, models.FailureKind(err))
	f.metrics.RecordError(f.name + "_" + models.FailureKind(err))

	// Re-read: a concurrent refresh may have landed while we were retrying.
	if entry, ok := f.store.Get(key); ok {
		if f.store.IsFresh(entry, f.policy.TTL) {
			return Fetched[V]{Value: entry.Value, Origin: models.OriginCached, FetchedAt: entry.FetchedAt}, nil
		}
		f.metrics.RecordCache(f.name, "stale")
		f.log.Warn("serving stale value",
			applogger.String("key", key),
			applogger.Duration("age_ms", time.Since(entry.FetchedAt)),
			applogger.Error(err),
		)
		return Fetched[V]{Value: entry.Value, Origin: models.OriginStale, FetchedAt: entry.FetchedAt}, nil
	}

	f.log.Warn("source unavailable", applogger.String("key", key), applogger.Error(err))
	return Fetched[V]{}, err
}

// safeCall turns a panicking provider into an error.
func safeCall[V any](ctx context.Context, fn func(ctx context.Context) (V, error)) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = retry.Permanent(fmt.Errorf("%w: provider panic: %v", models.ErrTransport, r))
		}
	}()
	return fn(ctx)
}

func orNop(m domrepo.Metrics, l *applogger.Logger) (domrepo.Metrics, *applogger.Logger) {
	if m == nil {
		m = metrics.Noop{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return m, l
}
