// Package interfaces defines service contracts for cryptotrack
package interfaces

import (
	"context"
	"errors"

	"github.com/vrautomations/cryptotrack/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")
)

// StorageManager coordinates the configured backend.
type StorageManager interface {
	SnapshotStore() SnapshotStore
	UserStore() UserStore

	// Backend names the engine in use (surrealdb, badger, sqlite, postgres).
	Backend() string

	Close() error
}

// SnapshotStore holds the current and history collections.
type SnapshotStore interface {
	// ReplaceCurrent swaps the whole current collection for snaps in one
	// atomic step. Readers see either the old or the new set, never a mix.
	ReplaceCurrent(ctx context.Context, snaps []models.CoinSnapshot) error

	// ListCurrent returns the current collection ordered by market cap descending.
	ListCurrent(ctx context.Context) ([]models.CoinSnapshot, error)

	// AppendHistory inserts entries. Existing rows are never touched.
	AppendHistory(ctx context.Context, entries []models.HistoryEntry) error

	// GetHistory returns entries for coinID ordered by timestamp ascending,
	// recordedAt breaking ties. Unknown ids yield an empty slice.
	GetHistory(ctx context.Context, coinID string) ([]models.HistoryEntry, error)

	// CountHistory returns the total number of history rows.
	CountHistory(ctx context.Context) (int, error)
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser inserts user, returning ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser returns ErrNotFound when id is unknown.
	GetUser(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail returns ErrNotFound when email is unknown.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
