package geocode

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocoords/internal/resilience"
)

// Resolver defaults.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
	DefaultTimeout    = 10 * time.Second
)

// Stats counts what a Resolver did during a run.
type Stats struct {
	CacheEntries  int
	CacheHits     int
	ProviderCalls int
	Resolved      int
	NotFound      int
	Exhausted     int
	Failed        int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMaxRetries sets the total number of provider attempts per query.
func WithMaxRetries(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryDelay sets the constant wait between attempts. Zero retries
// immediately.
func WithRetryDelay(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d >= 0 {
			r.retryDelay = d
		}
	}
}

// WithTimeout sets the deadline applied to each provider call.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Resolver performs cached, retried lookups against a Provider. It is
// single-goroutine: the cache is owned by the caller's run and no locking is
// done.
type Resolver struct {
	provider   Provider
	cache      *Cache
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	stats      Stats
}

// NewResolver creates a Resolver backed by provider and cache. The cache
// should be created once per run and shared by every Resolve call of that run.
func NewResolver(provider Provider, cache *Cache, opts ...ResolverOption) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	r := &Resolver{
		provider:   provider,
		cache:      cache,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the coordinate for q, or nil when the place is unknown or
// could not be fetched. Definitive negatives are cached; retry exhaustion and
// permanent provider errors are not, so a later call starts over with the
// full attempt budget. The only error returned is context cancellation.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Coordinate, error) {
	key := q.String()

	if coord, ok := r.cache.Get(key); ok {
		r.stats.CacheHits++
		zap.L().Debug("geocode cache hit", zap.String("query", key), zap.Bool("matched", coord != nil))
		return coord, nil
	}

	log := zap.L().With(
		zap.String("provider", r.provider.Name()),
		zap.String("query", key),
	)

	cfg := resilience.FixedRetryConfig(r.maxRetries, r.retryDelay)
	cfg.OnRetry = func(attempt int, err error) {
		log.Warn("geocoding failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxRetries),
			zap.Duration("delay", r.retryDelay),
			zap.Error(err),
		)
	}

	result, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Result, error) {
		r.stats.ProviderCalls++
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return r.provider.Lookup(callCtx, key)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, eris.Wrap(ctxErr, "geocode: resolve")
		}
		if resilience.IsTransient(err) {
			r.stats.Exhausted++
			log.Error("failed to fetch coordinates after retries",
				zap.Int("max_attempts", r.maxRetries),
				zap.Error(err),
			)
		} else {
			r.stats.Failed++
			log.Error("geocoding provider error", zap.Error(err))
		}
		return nil, nil //nolint:nilerr // provider failures degrade to "no coordinate"
	}

	if result == nil || !result.Matched {
		r.stats.NotFound++
		r.cache.Put(key, nil)
		log.Debug("no match")
		return nil, nil
	}

	coord := result.Coordinate
	r.stats.Resolved++
	r.cache.Put(key, &coord)
	log.Debug("resolved",
		zap.Float64("latitude", coord.Latitude),
		zap.Float64("longitude", coord.Longitude),
		zap.String("display_name", result.DisplayName),
	)
	return &coord, nil
}

// Stats returns a snapshot of the resolver's counters.
func (r *Resolver) Stats() Stats {
	s := r.stats
	s.CacheEntries = r.cache.Len()
	return s
}
