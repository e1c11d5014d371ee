package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/models"
)

// UserStore keeps accounts in "users". Email is a UNIQUE column.
type UserStore struct {
	m *Manager
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.m.db.ExecContext(ctx, s.m.rebind(
		"INSERT INTO users (user_id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)"),
		user.UserID, user.Name, user.Email, user.PasswordHash, toUnix(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Email, interfaces.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getOne(ctx, "user_id", id)
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, "email", email)
}

// getOne selects by a fixed column name; value is always bound.
func (s *UserStore) getOne(ctx context.Context, column, value string) (*models.User, error) {
	query := s.m.rebind("SELECT user_id, name, email, password_hash, created_at FROM users WHERE " + column + " = ?")

	var u models.User
	var created int64
	err := s.m.db.QueryRowContext(ctx, query, value).Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", value, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = fromUnix(created)
	return &u, nil
}
