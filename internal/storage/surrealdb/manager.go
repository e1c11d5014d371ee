// Package surrealdb implements storage on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
)

const (
	tableCoin    = "coin"
	tableHistory = "history"
	tableUser    = "user"
)

// schema is applied on connect. Unique indexes back the coinId and email invariants.
var schema = []string{
	"DEFINE TABLE IF NOT EXISTS coin SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS history SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS user SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS coin_coin_id ON coin FIELDS coinId UNIQUE",
	"DEFINE INDEX IF NOT EXISTS history_coin_id ON history FIELDS coinId",
	"DEFINE INDEX IF NOT EXISTS user_email ON user FIELDS email UNIQUE",
}

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	snapshotStore *SnapshotStore
	userStore     *UserStore
}

// NewManager connects, signs in and ensures the schema exists.
func NewManager(logger *common.Logger, config common.StorageConfig) (*Manager, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if config.Username != "" {
		if _, err := db.SignIn(ctx, map[string]interface{}{
			"user": config.Username,
			"pass": config.Password,
		}); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
		}
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	m, err := newManager(ctx, db, logger)
	if err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func newManager(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*Manager, error) {
	for _, stmt := range schema {
		if _, err := surrealdb.Query[any](ctx, db, stmt, nil); err != nil {
			return nil, fmt.Errorf("failed to apply schema %q: %w", stmt, err)
		}
	}

	return &Manager{
		db:            db,
		logger:        logger,
		snapshotStore: NewSnapshotStore(db, logger),
		userStore:     NewUserStore(db, logger),
	}, nil
}

func (m *Manager) SnapshotStore() interfaces.SnapshotStore {
	return m.snapshotStore
}

func (m *Manager) UserStore() interfaces.UserStore {
	return m.userStore
}

func (m *Manager) Backend() string {
	return "surrealdb"
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// isUniqueViolation matches SurrealDB's unique index error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already contains")
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
