// Package sqldb implements storage on database/sql for SQLite and Postgres.
package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
)

// Dialect names a supported SQL engine.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Manager implements interfaces.StorageManager over a *sql.DB.
type Manager struct {
	db      *sql.DB
	dialect Dialect
	logger  *common.Logger

	snapshots *SnapshotStore
	users     *UserStore
}

// Open connects using dsn and creates missing tables.
// For SQLite dsn is a file path; for Postgres a lib/pq connection URL.
func Open(logger *common.Logger, dialect Dialect, dsn string) (*Manager, error) {
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
	case DialectPostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported SQL dialect: %s", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// SQLite allows a single writer at a time
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", dialect, err)
	}

	m := &Manager{db: db, dialect: dialect, logger: logger}
	if err := m.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	m.snapshots = &SnapshotStore{m: m}
	m.users = &UserStore{m: m}

	logger.Info().Str("dialect", string(dialect)).Msg("SQL storage manager initialized")
	return m, nil
}

func (m *Manager) migrate() error {
	if m.dialect == DialectSQLite {
		if _, err := m.db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to set WAL mode")
		}
	}

	realType, serial := "REAL", "INTEGER PRIMARY KEY AUTOINCREMENT"
	if m.dialect == DialectPostgres {
		realType, serial = "DOUBLE PRECISION", "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS coins (
			coin_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			symbol TEXT NOT NULL,
			price %[1]s NOT NULL,
			market_cap %[1]s NOT NULL,
			change_24h %[1]s NOT NULL,
			captured_at BIGINT NOT NULL
		)`, realType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS history (
			id %[2]s,
			coin_id TEXT NOT NULL,
			name TEXT NOT NULL,
			symbol TEXT NOT NULL,
			price %[1]s NOT NULL,
			market_cap %[1]s NOT NULL,
			change_24h %[1]s NOT NULL,
			captured_at BIGINT NOT NULL,
			recorded_at BIGINT NOT NULL
		)`, realType, serial),
		`CREATE INDEX IF NOT EXISTS history_coin_time ON history (coin_id, captured_at, recorded_at)`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := m.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate %s schema: %w", m.dialect, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (m *Manager) rebind(query string) string {
	if m.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (m *Manager) SnapshotStore() interfaces.SnapshotStore {
	return m.snapshots
}

func (m *Manager) UserStore() interfaces.UserStore {
	return m.users
}

func (m *Manager) Backend() string {
	return string(m.dialect)
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// isUniqueViolation recognises unique constraint failures from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

var _ interfaces.StorageManager = (*Manager)(nil)
