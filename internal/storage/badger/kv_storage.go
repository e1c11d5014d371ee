package badger

import (
	"errors"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
)

// KVEntry represents a key-value pair stored in BadgerDB.
type KVEntry struct {
	Key   string `badgerhold:"key"`
	Value []byte
}

// KVStorage is a small string-keyed byte store used for local client state.
type KVStorage struct {
	store  *Store
	logger *common.Logger
}

// NewKVStorage creates a new KVStorage backed by BadgerHold.
func NewKVStorage(store *Store, logger *common.Logger) *KVStorage {
	return &KVStorage{store: store, logger: logger}
}

// Get returns interfaces.ErrNotFound for unknown keys.
func (s *KVStorage) Get(key string) ([]byte, error) {
	var entry KVEntry
	err := s.store.db.Get(key, &entry)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("key '%s': %w", key, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	return entry.Value, nil
}

func (s *KVStorage) Set(key string, value []byte) error {
	entry := KVEntry{Key: key, Value: value}
	if err := s.store.db.Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to set key '%s': %w", key, err)
	}
	return nil
}

func (s *KVStorage) Delete(key string) error {
	err := s.store.db.Delete(key, KVEntry{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}
