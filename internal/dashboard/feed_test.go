package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/models"
)

type scriptedFetcher struct {
	mu    sync.Mutex
	coins []models.MarketCoin
	err   error
	calls int
}

func (f *scriptedFetcher) Coins(_ context.Context) ([]models.MarketCoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.coins, f.err
}

func (f *scriptedFetcher) set(coins []models.MarketCoin, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coins, f.err = coins, err
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func coin(id, name, symbol string, rank int, price, cap, change float64) models.MarketCoin {
	return models.MarketCoin{
		ID: id, Name: name, Symbol: symbol, MarketCapRank: rank,
		CurrentPrice: price, MarketCap: cap, PriceChangePercentage24h: &change,
	}
}

func newTestFeed(fetcher CoinsFetcher, store LocalStore, now time.Time) *Feed {
	f := NewFeed(fetcher, store, common.NewSilentLogger())
	f.now = func() time.Time { return now }
	return f
}

func TestFeed_NetworkSuccessCaches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	fetcher := &scriptedFetcher{coins: []models.MarketCoin{coin("bitcoin", "Bitcoin", "btc", 1, 50000, 1e12, 2.5)}}

	res := newTestFeed(fetcher, store, now).Load(context.Background())
	assert.Equal(t, SourceNetwork, res.Source)
	assert.NoError(t, res.Err)
	assert.Equal(t, now, res.SavedAt)
	require.Len(t, res.Coins, 1)

	_, err := store.Get(KeyCachedCoins)
	assert.NoError(t, err)
}

func TestFeed_RateLimitFallsBackToCache(t *testing.T) {
	saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	fetcher := &scriptedFetcher{coins: []models.MarketCoin{coin("bitcoin", "Bitcoin", "btc", 1, 50000, 1e12, 2.5)}}
	newTestFeed(fetcher, store, saved).Load(context.Background())

	fetcher.set(nil, ErrRateLimited)
	res := newTestFeed(fetcher, store, saved.Add(time.Hour)).Load(context.Background())

	assert.Equal(t, SourceCache, res.Source)
	assert.True(t, res.RateLimited())
	assert.True(t, res.SavedAt.Equal(saved))
	require.Len(t, res.Coins, 1)
	assert.Equal(t, "bitcoin", res.Coins[0].ID)
}

func TestFeed_NetworkErrorFallsBackToCache(t *testing.T) {
	store := NewMemoryStore()
	fetcher := &scriptedFetcher{coins: []models.MarketCoin{coin("eth", "Ethereum", "eth", 2, 3000, 4e11, -1)}}
	newTestFeed(fetcher, store, time.Now()).Load(context.Background())

	fetcher.set(nil, errors.New("connection refused"))
	res := newTestFeed(fetcher, store, time.Now()).Load(context.Background())
	assert.Equal(t, SourceCache, res.Source)
	assert.False(t, res.RateLimited())
	assert.Error(t, res.Err)
}

func TestFeed_NoCacheYieldsEmpty(t *testing.T) {
	fetcher := &scriptedFetcher{err: ErrRateLimited}
	res := newTestFeed(fetcher, NewMemoryStore(), time.Now()).Load(context.Background())

	assert.Equal(t, SourceEmpty, res.Source)
	assert.NotNil(t, res.Coins)
	assert.Empty(t, res.Coins)
	assert.True(t, res.SavedAt.IsZero())
}

func TestFeed_CorruptCacheYieldsEmpty(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(KeyCachedCoins, []byte("{not json")))

	res := newTestFeed(&scriptedFetcher{err: errors.New("down")}, store, time.Now()).Load(context.Background())
	assert.Equal(t, SourceEmpty, res.Source)
}

func TestFeed_FailureKeepsPreviousCache(t *testing.T) {
	store := NewMemoryStore()
	fetcher := &scriptedFetcher{coins: []models.MarketCoin{coin("bitcoin", "Bitcoin", "btc", 1, 1, 1, 1)}}
	newTestFeed(fetcher, store, time.Now()).Load(context.Background())
	before, _ := store.Get(KeyCachedCoins)

	fetcher.set(nil, ErrRateLimited)
	newTestFeed(fetcher, store, time.Now()).Load(context.Background())
	after, _ := store.Get(KeyCachedCoins)

	assert.Equal(t, before, after)
}

func TestPoller_LoadsOnStartAndOnTick(t *testing.T) {
	fetcher := &scriptedFetcher{coins: []models.MarketCoin{}}
	feed := NewFeed(fetcher, NewMemoryStore(), common.NewSilentLogger())

	loads := make(chan Result, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewPoller(feed, 10*time.Millisecond, func(r Result) { loads <- r }).Run(ctx)
	}()

	for i := 0; i < 3; i++ {
		select {
		case r := <-loads:
			assert.Equal(t, SourceNetwork, r.Source)
		case <-time.After(2 * time.Second):
			t.Fatal("poller did not load")
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancel")
	}
	assert.GreaterOrEqual(t, fetcher.count(), 3)
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(nil, 0, func(Result) {})
	assert.Equal(t, DefaultRefreshInterval, p.interval)
}

func TestTokenHelpers(t *testing.T) {
	store := NewMemoryStore()

	tok, err := LoadToken(store)
	require.NoError(t, err)
	assert.Equal(t, "", tok)

	require.NoError(t, SaveToken(store, "abc"))
	tok, err = LoadToken(store)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, ClearToken(store))
	_, err = store.Get(KeyToken)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestBadgerLocalStore_Persists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dash")
	logger := common.NewSilentLogger()

	store, err := OpenLocalStore(logger, dir)
	require.NoError(t, err)
	require.NoError(t, SaveToken(store, "persisted"))
	fetcher := &scriptedFetcher{coins: []models.MarketCoin{coin("bitcoin", "Bitcoin", "btc", 1, 1, 1, 1)}}
	NewFeed(fetcher, store, logger).Load(context.Background())
	require.NoError(t, store.Close())

	store, err = OpenLocalStore(logger, dir)
	require.NoError(t, err)
	defer store.Close()

	tok, err := LoadToken(store)
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok)

	fetcher.set(nil, ErrRateLimited)
	res := NewFeed(fetcher, store, logger).Load(context.Background())
	assert.Equal(t, SourceCache, res.Source)
	require.Len(t, res.Coins, 1)
}
