package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geocoords/internal/resilience"
)

func newTestResolver(p Provider, opts ...ResolverOption) *Resolver {
	opts = append([]ResolverOption{WithRetryDelay(time.Millisecond)}, opts...)
	return NewResolver(p, NewCache(), opts...)
}

func TestResolver_Match(t *testing.T) {
	fp := newFakeProvider().on("Paris, France", match(48.8566, 2.3522))
	r := newTestResolver(fp)

	coord, err := r.Resolve(context.Background(), Query{Place: "Paris", Country: "France"})
	require.NoError(t, err)
	require.NotNil(t, coord)
	assert.InDelta(t, 48.8566, coord.Latitude, 1e-9)
	assert.InDelta(t, 2.3522, coord.Longitude, 1e-9)
	assert.Equal(t, 1, fp.calls["Paris, France"])
}

func TestResolver_RepeatedQueryHitsProviderOnce(t *testing.T) {
	fp := newFakeProvider().
		on("Paris", match(48.8566, 2.3522)).
		on("Lyon", match(45.764, 4.8357))
	r := newTestResolver(fp)

	for _, place := range []string{"Paris", "Lyon", "Paris", "Paris", "Lyon"} {
		coord, err := r.Resolve(context.Background(), Query{Place: place})
		require.NoError(t, err)
		require.NotNil(t, coord)
	}

	assert.Equal(t, 1, fp.calls["Paris"])
	assert.Equal(t, 1, fp.calls["Lyon"])
	assert.Equal(t, 3, r.Stats().CacheHits)
	assert.Equal(t, 2, r.Stats().ProviderCalls)
}

func TestResolver_SameStringFromDifferentPartsSharesEntry(t *testing.T) {
	fp := newFakeProvider().on("Springfield, USA", match(39.78, -89.65))
	r := newTestResolver(fp)

	_, err := r.Resolve(context.Background(), Query{Place: "Springfield", Country: "USA"})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), Query{Address: "Springfield", Place: "USA"})
	require.NoError(t, err)

	assert.Equal(t, 1, fp.totalCalls())
}

func TestResolver_NoMatchIsCached(t *testing.T) {
	fp := newFakeProvider().on("Atlantis", noMatch())
	r := newTestResolver(fp)

	for i := 0; i < 3; i++ {
		coord, err := r.Resolve(context.Background(), Query{Place: "Atlantis"})
		require.NoError(t, err)
		assert.Nil(t, coord)
	}

	assert.Equal(t, 1, fp.calls["Atlantis"], "definitive negatives must not be retried")
	assert.Equal(t, 1, r.Stats().NotFound)
	assert.Equal(t, 2, r.Stats().CacheHits)
}

func TestResolver_RetriesTransientThenSucceeds(t *testing.T) {
	fp := newFakeProvider().on("Oslo", transient(), transient(), match(59.9139, 10.7522))
	r := newTestResolver(fp)

	coord, err := r.Resolve(context.Background(), Query{Place: "Oslo"})
	require.NoError(t, err)
	require.NotNil(t, coord)
	assert.InDelta(t, 59.9139, coord.Latitude, 1e-9)
	assert.Equal(t, 3, fp.calls["Oslo"])
}

func TestResolver_ExhaustionIsNotCached(t *testing.T) {
	fp := newFakeProvider().on("Flaky", transient(), transient(), transient(), transient(), transient(), transient())
	r := newTestResolver(fp)

	coord, err := r.Resolve(context.Background(), Query{Place: "Flaky"})
	require.NoError(t, err)
	assert.Nil(t, coord)
	assert.Equal(t, 3, fp.calls["Flaky"])
	assert.Equal(t, 1, r.Stats().Exhausted)

	// A later call gets the full budget again.
	coord, err = r.Resolve(context.Background(), Query{Place: "Flaky"})
	require.NoError(t, err)
	assert.Nil(t, coord)
	assert.Equal(t, 6, fp.calls["Flaky"])
	assert.Equal(t, 0, r.Stats().CacheHits)
}

func TestResolver_ExhaustionThenRecovery(t *testing.T) {
	fp := newFakeProvider().on("Bergen", transient(), transient(), transient(), match(60.39, 5.32))
	r := newTestResolver(fp)

	coord, err := r.Resolve(context.Background(), Query{Place: "Bergen"})
	require.NoError(t, err)
	assert.Nil(t, coord)

	coord, err = r.Resolve(context.Background(), Query{Place: "Bergen"})
	require.NoError(t, err)
	require.NotNil(t, coord)
	assert.InDelta(t, 60.39, coord.Latitude, 1e-9)
	assert.Equal(t, 4, fp.calls["Bergen"])
}

func TestResolver_ZeroRetryDelay(t *testing.T) {
	fp := newFakeProvider().on("Lyon", transient(), transient(), transient())
	r := NewResolver(fp, NewCache(), WithRetryDelay(0))

	start := time.Now()
	coord, err := r.Resolve(context.Background(), Query{Place: "Lyon"})
	require.NoError(t, err)
	assert.Nil(t, coord)
	assert.Equal(t, 3, fp.calls["Lyon"])
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestResolver_StatsCountsCacheEntries(t *testing.T) {
	fp := newFakeProvider().
		on("Paris", match(48.8566, 2.3522)).
		on("Atlantis", noMatch()).
		on("Lyon", transient())
	r := newTestResolver(fp)

	for _, place := range []string{"Paris", "Atlantis", "Lyon", "Paris"} {
		_, err := r.Resolve(context.Background(), Query{Place: place})
		require.NoError(t, err)
	}

	// Paris and the Atlantis negative are stored; the exhausted Lyon is not.
	assert.Equal(t, 2, r.Stats().CacheEntries)
}

func TestResolver_MaxRetriesOption(t *testing.T) {
	fp := newFakeProvider().on("Flaky", transient())
	r := newTestResolver(fp, WithMaxRetries(5))

	_, err := r.Resolve(context.Background(), Query{Place: "Flaky"})
	require.NoError(t, err)
	assert.Equal(t, 5, fp.calls["Flaky"])
}

func TestResolver_PermanentErrorNotRetriedOrCached(t *testing.T) {
	fp := newFakeProvider().on("Denied", permanent())
	r := newTestResolver(fp)

	coord, err := r.Resolve(context.Background(), Query{Place: "Denied"})
	require.NoError(t, err)
	assert.Nil(t, coord)
	assert.Equal(t, 1, fp.calls["Denied"])
	assert.Equal(t, 1, r.Stats().Failed)

	_, err = r.Resolve(context.Background(), Query{Place: "Denied"})
	require.NoError(t, err)
	assert.Equal(t, 2, fp.calls["Denied"])
}

// slowProvider blocks until its context is done.
type slowProvider struct {
	calls int
}

func (s *slowProvider) Name() string { return "slow" }

func (s *slowProvider) Lookup(ctx context.Context, _ string) (*Result, error) {
	s.calls++
	<-ctx.Done()
	return nil, resilience.NewTransientError(ctx.Err(), 0)
}

func TestResolver_PerCallTimeout(t *testing.T) {
	sp := &slowProvider{}
	r := newTestResolver(sp, WithTimeout(5*time.Millisecond), WithMaxRetries(2))

	start := time.Now()
	coord, err := r.Resolve(context.Background(), Query{Place: "Nowhere"})
	require.NoError(t, err)
	assert.Nil(t, coord)
	assert.Equal(t, 2, sp.calls)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResolver_ContextCancelled(t *testing.T) {
	fp := newFakeProvider().on("Paris", match(48.8566, 2.3522))
	r := newTestResolver(fp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coord, err := r.Resolve(ctx, Query{Place: "Paris"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, coord)

	// Cancellation is not memoized.
	coord, err = r.Resolve(context.Background(), Query{Place: "Paris"})
	require.NoError(t, err)
	assert.NotNil(t, coord)
}

func TestResolver_CachedBeforeProvider(t *testing.T) {
	cache := NewCache()
	cache.Put("Paris", &Coordinate{Latitude: 1, Longitude: 2})
	fp := newFakeProvider().on("Paris", match(48.8566, 2.3522))
	r := NewResolver(fp, cache, WithRetryDelay(time.Millisecond))

	coord, err := r.Resolve(context.Background(), Query{Place: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, &Coordinate{Latitude: 1, Longitude: 2}, coord)
	assert.Equal(t, 0, fp.totalCalls())
}

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver(newFakeProvider(), nil)
	assert.Equal(t, DefaultMaxRetries, r.maxRetries)
	assert.Equal(t, DefaultRetryDelay, r.retryDelay)
	assert.Equal(t, DefaultTimeout, r.timeout)
	assert.NotNil(t, r.cache)
}
