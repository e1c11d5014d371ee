// Package coinsync snapshots the upstream market list into storage.
package coinsync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/models"
)

// Service fetches the top assets, replaces the current collection and
// appends the same rows to history. Runs are serialized.
type Service struct {
	client interfaces.MarketDataClient
	store  interfaces.SnapshotStore
	logger *common.Logger
	now    func() time.Time // injectable clock for testing

	mu sync.Mutex
}

// NewService creates a sync service.
func NewService(client interfaces.MarketDataClient, store interfaces.SnapshotStore, logger *common.Logger) *Service {
	return &Service{
		client: client,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Sync performs one run. An upstream failure returns before any write.
// Cancelling ctx stops the fetch but not the writes that follow it.
// A call made while another run is in flight waits for it to finish.
func (s *Service) Sync(ctx context.Context) (*models.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()

	coins, err := s.client.GetTopMarkets(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Coin sync aborted: upstream fetch failed")
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	captured := s.now().UTC()
	snaps := Normalize(coins, captured)

	// once fetched, both writes run to completion so current and history
	// stay in step even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	if err := s.store.ReplaceCurrent(ctx, snaps); err != nil {
		s.logger.Error().Err(err).Msg("Coin sync failed: replace current")
		return nil, fmt.Errorf("replace current: %w", err)
	}

	recorded := s.now().UTC()
	entries := make([]models.HistoryEntry, len(snaps))
	for i, snap := range snaps {
		entries[i] = models.NewHistoryEntry(snap, recorded)
	}
	if err := s.store.AppendHistory(ctx, entries); err != nil {
		s.logger.Error().Err(err).Msg("Coin sync failed: append history")
		return nil, fmt.Errorf("append history: %w", err)
	}

	event := s.logger.Info().
		Int("count", len(snaps)).
		Time("timestamp", captured).
		Dur("duration", s.now().Sub(start))
	if total, err := s.store.CountHistory(ctx); err == nil {
		event = event.Int("history_rows", total)
	}
	event.Msg("Coin sync completed")

	return &models.SyncResult{Count: len(snaps), Timestamp: captured}, nil
}

// Normalize maps upstream rows to snapshots stamped at captured.
// Rows with an empty id are dropped and repeated ids keep the first row.
func Normalize(coins []models.MarketCoin, captured time.Time) []models.CoinSnapshot {
	seen := make(map[string]bool, len(coins))
	snaps := make([]models.CoinSnapshot, 0, len(coins))
	for _, c := range coins {
		id := strings.TrimSpace(c.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		snaps = append(snaps, models.CoinSnapshot{
			CoinID:    id,
			Name:      c.Name,
			Symbol:    c.Symbol,
			Price:     c.CurrentPrice,
			MarketCap: c.MarketCap,
			Change24h: c.Change24h(),
			Timestamp: captured,
		})
	}
	return snaps
}
