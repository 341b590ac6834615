package eonet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/eonet-event-tracker/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingFetcher struct {
	calls int
	body  []byte
	err   error
}

func (m *countingFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.body, nil
}

const categoriesURL = "https://eonet.sci.gsfc.nasa.gov/api/v2.1/categories"

// --- CachedFetcher tests ---

func TestCachedFetcher_Hit(t *testing.T) {
	inner := &countingFetcher{body: []byte(`{"categories": []}`)}
	cached := NewCachedFetcher(inner, 10, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	b1, err := cached.Fetch(context.Background(), categoriesURL)
	require.NoError(t, err)
	b2, err := cached.Fetch(context.Background(), categoriesURL)
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedFetcher_HitReturnsPrivateCopy(t *testing.T) {
	inner := &countingFetcher{body: []byte(`{"categories": []}`)}
	cached := NewCachedFetcher(inner, 10, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, err := cached.Fetch(context.Background(), categoriesURL)
	require.NoError(t, err)
	b, err := cached.Fetch(context.Background(), categoriesURL)
	require.NoError(t, err)
	b[0] = 'X'

	again, err := cached.Fetch(context.Background(), categoriesURL)
	require.NoError(t, err)
	assert.Equal(t, byte('{'), again[0])
}

func TestCachedFetcher_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingFetcher{body: []byte(`{}`)}
	cached := NewCachedFetcher(inner, 10, time.Minute, clock, observability.NewMetricsForTesting())

	_, _ = cached.Fetch(context.Background(), categoriesURL)
	clock.Advance(59 * time.Second)
	_, _ = cached.Fetch(context.Background(), categoriesURL)
	assert.Equal(t, 1, inner.calls)

	clock.Advance(time.Second)
	_, _ = cached.Fetch(context.Background(), categoriesURL)
	assert.Equal(t, 2, inner.calls, "expired entry should be refetched")
}

func TestCachedFetcher_ErrorsNotCached(t *testing.T) {
	inner := &countingFetcher{err: errors.New("connection refused")}
	cached := NewCachedFetcher(inner, 10, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, err := cached.Fetch(context.Background(), categoriesURL)
	require.Error(t, err)
	_, err = cached.Fetch(context.Background(), categoriesURL)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

// --- LRU cache unit tests ---

var farFuture = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)
	now := time.Now()

	c.put("a", []byte("A"), farFuture)
	c.put("b", []byte("B"), farFuture)

	v, ok := c.get("a", now)
	assert.True(t, ok)
	assert.Equal(t, []byte("A"), v)

	_, ok = c.get("missing", now)
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	now := time.Now()

	c.put("a", []byte("A"), farFuture)
	c.put("b", []byte("B"), farFuture)
	c.put("c", []byte("C"), farFuture) // evicts "a"

	_, ok := c.get("a", now)
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.get("b", now)
	assert.True(t, ok)
	assert.Equal(t, []byte("B"), v)

	v, ok = c.get("c", now)
	assert.True(t, ok)
	assert.Equal(t, []byte("C"), v)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)
	now := time.Now()

	c.put("a", []byte("A"), farFuture)
	c.put("b", []byte("B"), farFuture)

	c.get("a", now)

	// "b" is now least recently used.
	c.put("c", []byte("C"), farFuture)

	_, ok := c.get("a", now)
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b", now)
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", []byte("A1"), farFuture)
	c.put("a", []byte("A2"), farFuture)

	v, ok := c.get("a", time.Now())
	assert.True(t, ok)
	assert.Equal(t, []byte("A2"), v)
}
