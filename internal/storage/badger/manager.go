package badger

import (
	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
)

// Manager implements interfaces.StorageManager on one embedded store.
type Manager struct {
	store    *Store
	snapshot *snapshotStorage
	users    *userStorage
}

// NewManager opens (or creates) the store at path.
func NewManager(logger *common.Logger, path string) (*Manager, error) {
	store, err := NewStore(logger, path)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Badger storage manager initialized")

	return &Manager{
		store:    store,
		snapshot: NewSnapshotStorage(store, logger),
		users:    NewUserStorage(store, logger),
	}, nil
}

func (m *Manager) SnapshotStore() interfaces.SnapshotStore {
	return m.snapshot
}

func (m *Manager) UserStore() interfaces.UserStore {
	return m.users
}

func (m *Manager) Backend() string {
	return "badger"
}

func (m *Manager) Close() error {
	return m.store.Close()
}

var _ interfaces.StorageManager = (*Manager)(nil)
