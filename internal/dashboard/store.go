package dashboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/storage/badger"
)

// Local storage keys.
const (
	KeyCachedCoins = "cachedCoins"
	KeyToken       = "token"
)

// LocalStore is the dashboard's persistent key/value state. Get returns
// interfaces.ErrNotFound for keys that were never set.
type LocalStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// BadgerLocalStore is a LocalStore in an embedded BadgerHold database.
type BadgerLocalStore struct {
	*badger.KVStorage
	store *badger.Store
}

// OpenLocalStore opens (or creates) the local store in dir.
func OpenLocalStore(logger *common.Logger, dir string) (*BadgerLocalStore, error) {
	store, err := badger.NewStore(logger, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	return &BadgerLocalStore{
		KVStorage: badger.NewKVStorage(store, logger),
		store:     store,
	}, nil
}

// Close closes the underlying database.
func (s *BadgerLocalStore) Close() error {
	return s.store.Close()
}

// MemoryStore is an in-process LocalStore.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// SaveToken stores the session token.
func SaveToken(store LocalStore, token string) error {
	return store.Set(KeyToken, []byte(token))
}

// LoadToken returns the stored session token, or "" when signed out.
func LoadToken(store LocalStore) (string, error) {
	v, err := store.Get(KeyToken)
	if errors.Is(err, interfaces.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// ClearToken discards the session token. Tokens are not revoked server side.
func ClearToken(store LocalStore) error {
	return store.Delete(KeyToken)
}
