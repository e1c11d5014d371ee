package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/models"
)

// Source says where a Feed result came from.
type Source string

const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
	SourceEmpty   Source = "empty"
)

// CoinsFetcher is the network side of a Feed.
type CoinsFetcher interface {
	Coins(ctx context.Context) ([]models.MarketCoin, error)
}

// Result is one Feed load.
type Result struct {
	Coins  []models.MarketCoin
	Source Source
	// SavedAt is when the coins were fetched from the network. Zero for SourceEmpty.
	SavedAt time.Time
	// Err is the network error that forced a fallback, if any.
	Err error
}

// RateLimited reports whether the network call was refused for quota.
func (r Result) RateLimited() bool {
	return errors.Is(r.Err, ErrRateLimited)
}

type cachedCoins struct {
	Coins   []models.MarketCoin `json:"coins"`
	SavedAt time.Time           `json:"saved_at"`
}

// Feed loads the coin list network first, falling back to the last
// successful payload in the local store.
type Feed struct {
	fetcher CoinsFetcher
	store   LocalStore
	logger  *common.Logger
	now     func() time.Time
}

func NewFeed(fetcher CoinsFetcher, store LocalStore, logger *common.Logger) *Feed {
	return &Feed{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Load never fails: any network error degrades to the cache, and a missing
// or unreadable cache degrades to an empty list.
func (f *Feed) Load(ctx context.Context) Result {
	coins, err := f.fetcher.Coins(ctx)
	if err == nil {
		saved := f.now()
		f.save(coins, saved)
		return Result{Coins: coins, Source: SourceNetwork, SavedAt: saved}
	}

	if errors.Is(err, ErrRateLimited) {
		f.logger.Warn().Msg("Rate limit exceeded, loading from cache")
	} else {
		f.logger.Warn().Err(err).Msg("Failed to fetch coins, loading from cache")
	}

	cached, ok := f.cached()
	if !ok {
		f.logger.Warn().Msg("No cached data available")
		return Result{Coins: []models.MarketCoin{}, Source: SourceEmpty, Err: err}
	}
	return Result{Coins: cached.Coins, Source: SourceCache, SavedAt: cached.SavedAt, Err: err}
}

func (f *Feed) save(coins []models.MarketCoin, at time.Time) {
	data, err := json.Marshal(cachedCoins{Coins: coins, SavedAt: at})
	if err != nil {
		f.logger.Warn().Err(err).Msg("Failed to encode coin cache")
		return
	}
	if err := f.store.Set(KeyCachedCoins, data); err != nil {
		f.logger.Warn().Err(err).Msg("Failed to write coin cache")
	}
}

func (f *Feed) cached() (cachedCoins, bool) {
	data, err := f.store.Get(KeyCachedCoins)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			f.logger.Warn().Err(err).Msg("Failed to read coin cache")
		}
		return cachedCoins{}, false
	}
	var c cachedCoins
	if err := json.Unmarshal(data, &c); err != nil {
		f.logger.Warn().Err(err).Msg("Coin cache is corrupt")
		return cachedCoins{}, false
	}
	if c.Coins == nil {
		c.Coins = []models.MarketCoin{}
	}
	return c, true
}
