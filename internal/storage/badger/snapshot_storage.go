package badger

import (
	"context"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/models"
)

type snapshotStorage struct {
	store  *Store
	logger *common.Logger
}

// NewSnapshotStorage creates a SnapshotStore backed by BadgerHold.
func NewSnapshotStorage(store *Store, logger *common.Logger) *snapshotStorage {
	return &snapshotStorage{store: store, logger: logger}
}

// ReplaceCurrent deletes and reinserts inside one badger transaction.
func (s *snapshotStorage) ReplaceCurrent(_ context.Context, snaps []models.CoinSnapshot) error {
	err := s.store.db.Badger().Update(func(tx *badgerdb.Txn) error {
		if err := s.store.db.TxDeleteMatching(tx, models.CoinSnapshot{}, &badgerhold.Query{}); err != nil {
			return fmt.Errorf("clear current: %w", err)
		}
		for i := range snaps {
			if err := s.store.db.TxInsert(tx, snaps[i].CoinID, &snaps[i]); err != nil {
				return fmt.Errorf("insert %s: %w", snaps[i].CoinID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace current coins: %w", err)
	}
	return nil
}

func (s *snapshotStorage) ListCurrent(_ context.Context) ([]models.CoinSnapshot, error) {
	var snaps []models.CoinSnapshot
	if err := s.store.db.Find(&snaps, nil); err != nil {
		return nil, fmt.Errorf("failed to list current coins: %w", err)
	}
	if snaps == nil {
		snaps = []models.CoinSnapshot{}
	}
	models.SortByMarketCap(snaps)
	return snaps, nil
}

func (s *snapshotStorage) AppendHistory(_ context.Context, entries []models.HistoryEntry) error {
	err := s.store.db.Badger().Update(func(tx *badgerdb.Txn) error {
		for i := range entries {
			if err := s.store.db.TxInsert(tx, uuid.New().String(), &entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *snapshotStorage) GetHistory(_ context.Context, coinID string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	query := badgerhold.Where("CoinID").Eq(coinID).Index("CoinID")
	if err := s.store.db.Find(&entries, query); err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", coinID, err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	models.SortHistory(entries)
	return entries, nil
}

func (s *snapshotStorage) CountHistory(_ context.Context) (int, error) {
	n, err := s.store.db.Count(models.HistoryEntry{}, &badgerhold.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return int(n), nil
}
