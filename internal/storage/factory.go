// Package storage selects a persistence backend from the database URL.
package storage

import (
	"fmt"
	"strings"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/storage/badger"
	"github.com/vrautomations/cryptotrack/internal/storage/sqldb"
	"github.com/vrautomations/cryptotrack/internal/storage/surrealdb"
)

// Backend names returned by Scheme.
const (
	BackendSurrealDB = "surrealdb"
	BackendBadger    = "badger"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
)

// Scheme maps a database URL to a backend name and the address that backend
// expects (a directory or file path for embedded engines).
func Scheme(rawURL string) (backend, address string, err error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("invalid database URL %q: expected scheme://address", rawURL)
	}

	switch strings.ToLower(scheme) {
	case "ws", "wss", "http", "https":
		return BackendSurrealDB, rawURL, nil
	case "badger":
		return BackendBadger, rest, nil
	case "sqlite", "sqlite3", "file":
		return BackendSQLite, rest, nil
	case "postgres", "postgresql":
		return BackendPostgres, rawURL, nil
	default:
		return "", "", fmt.Errorf("unknown storage backend %q (supported: ws, wss, http, https, badger, sqlite, postgres)", scheme)
	}
}

// NewStorageManager opens the backend named by config.URL.
func NewStorageManager(logger *common.Logger, config common.StorageConfig) (interfaces.StorageManager, error) {
	backend, address, err := Scheme(config.URL)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendSurrealDB:
		return surrealdb.NewManager(logger, config)
	case BackendBadger:
		return badger.NewManager(logger, address)
	case BackendSQLite:
		return sqldb.Open(logger, sqldb.DialectSQLite, address)
	default:
		return sqldb.Open(logger, sqldb.DialectPostgres, address)
	}
}
