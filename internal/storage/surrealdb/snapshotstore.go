package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/models"
)

// replaceCurrentSQL swaps the coin table inside one transaction.
const replaceCurrentSQL = `BEGIN TRANSACTION;
DELETE coin;
INSERT INTO coin $coins;
COMMIT TRANSACTION;`

// SnapshotStore keeps current snapshots in "coin" and history rows in "history".
type SnapshotStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewSnapshotStore(db *surrealdb.DB, logger *common.Logger) *SnapshotStore {
	return &SnapshotStore{
		db:     db,
		logger: logger,
	}
}

func (s *SnapshotStore) ReplaceCurrent(ctx context.Context, snaps []models.CoinSnapshot) error {
	if snaps == nil {
		snaps = []models.CoinSnapshot{}
	}
	vars := map[string]any{"coins": snaps}

	results, err := surrealdb.Query[any](ctx, s.db, replaceCurrentSQL, vars)
	if err != nil {
		return fmt.Errorf("failed to replace current coins: %w", err)
	}
	if results != nil {
		for _, r := range *results {
			if r.Status != "" && r.Status != "OK" {
				return fmt.Errorf("failed to replace current coins: statement status %s", r.Status)
			}
		}
	}
	return nil
}

func (s *SnapshotStore) ListCurrent(ctx context.Context) ([]models.CoinSnapshot, error) {
	sql := "SELECT * FROM coin ORDER BY marketCap DESC"
	results, err := surrealdb.Query[[]models.CoinSnapshot](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list current coins: %w", err)
	}

	snaps := []models.CoinSnapshot{}
	if results != nil && len(*results) > 0 {
		snaps = append(snaps, (*results)[0].Result...)
	}
	models.SortByMarketCap(snaps)
	return snaps, nil
}

func (s *SnapshotStore) AppendHistory(ctx context.Context, entries []models.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	sql := "INSERT INTO history $entries"
	vars := map[string]any{"entries": entries}

	if _, err := surrealdb.Query[[]models.HistoryEntry](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *SnapshotStore) GetHistory(ctx context.Context, coinID string) ([]models.HistoryEntry, error) {
	sql := "SELECT * FROM history WHERE coinId = $coin_id ORDER BY timestamp ASC, recordedAt ASC"
	vars := map[string]any{"coin_id": coinID}

	results, err := surrealdb.Query[[]models.HistoryEntry](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", coinID, err)
	}

	entries := []models.HistoryEntry{}
	if results != nil && len(*results) > 0 {
		entries = append(entries, (*results)[0].Result...)
	}
	models.SortHistory(entries)
	return entries, nil
}

func (s *SnapshotStore) CountHistory(ctx context.Context) (int, error) {
	type countResult struct {
		Cnt int `json:"cnt"`
	}
	sql := "SELECT count() AS cnt FROM history GROUP ALL"

	results, err := surrealdb.Query[[]countResult](ctx, s.db, sql, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].Cnt, nil
	}
	return 0, nil
}
