// Package interfaces defines service contracts for cryptotrack
package interfaces

import (
	"context"

	"github.com/vrautomations/cryptotrack/internal/models"
)

// SyncService snapshots upstream data into storage.
type SyncService interface {
	// Sync runs one fetch-replace-append cycle. Calls are serialized.
	Sync(ctx context.Context) (*models.SyncResult, error)
}

// AuthService manages accounts and session tokens.
type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)

	// ResolveHeader authenticates an Authorization header value.
	ResolveHeader(ctx context.Context, authorization string) (*models.User, error)
}
