package xapi_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xverify/internal/xapi"
	"xverify/internal/xapi/fake"
	"xverify/internal/xapi/metrics"
)

type mapStore struct {
	mu       sync.Mutex
	entries  map[string]xapi.User
	findErr  error
	saveErr  error
	saveHits int
}

func newMapStore() *mapStore {
	return &mapStore{entries: make(map[string]xapi.User)}
}

func (m *mapStore) Find(_ context.Context, handle string) (xapi.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return xapi.User{}, m.findErr
	}
	u, ok := m.entries[strings.ToLower(handle)]
	if !ok {
		return xapi.User{}, xapi.ErrCacheMiss
	}
	return u, nil
}

func (m *mapStore) Save(_ context.Context, handle string, user xapi.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveHits++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[strings.ToLower(handle)] = user
	return nil
}

func TestHandleCacheServesRepeatLookups(t *testing.T) {
	platform := fake.New()
	platform.AddUser("42", "alice")
	m := metrics.New(prometheus.NewRegistry())
	cache := xapi.NewHandleCache(platform, newMapStore(), m, nil)

	for range 3 {
		user, err := cache.LookupUserByHandle(context.Background(), "Alice")
		require.NoError(t, err)
		assert.Equal(t, "42", user.ID)
	}

	assert.Equal(t, 1, platform.Calls(xapi.OpLookupUser))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
}

func TestHandleCacheDoesNotCacheFailures(t *testing.T) {
	platform := fake.New()
	store := newMapStore()
	cache := xapi.NewHandleCache(platform, store, nil, nil)

	_, err := cache.LookupUserByHandle(context.Background(), "ghost")
	assert.Equal(t, xapi.ErrorNotFound, xapi.CategoryOf(err))
	_, err = cache.LookupUserByHandle(context.Background(), "ghost")
	assert.Equal(t, xapi.ErrorNotFound, xapi.CategoryOf(err))

	assert.Equal(t, 2, platform.Calls(xapi.OpLookupUser))
	assert.Zero(t, store.saveHits)
}

func TestHandleCacheDegradesOnStoreErrors(t *testing.T) {
	platform := fake.New()
	platform.AddUser("42", "alice")
	store := newMapStore()
	store.findErr = errors.New("connection refused")
	store.saveErr = errors.New("connection refused")
	m := metrics.New(prometheus.NewRegistry())
	cache := xapi.NewHandleCache(platform, store, m, nil)

	user, err := cache.LookupUserByHandle(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheErrorsTotal))
}

func TestHandleCachePassesOtherCallsThrough(t *testing.T) {
	platform := fake.New()
	platform.AddTweet(xapi.Tweet{ID: "100", AuthorID: "9"})
	cache := xapi.NewHandleCache(platform, newMapStore(), nil, nil)

	tweet, err := cache.GetTweet(context.Background(), "100")

	require.NoError(t, err)
	assert.Equal(t, "9", tweet.AuthorID)
}
