package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/models"
)

// UserStore keeps accounts in the "user" table keyed by user id.
type UserStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewUserStore(db *surrealdb.DB, logger *common.Logger) *UserStore {
	return &UserStore{
		db:     db,
		logger: logger,
	}
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	sql := "CREATE type::record('user', $id) CONTENT $user"
	vars := map[string]any{"id": user.UserID, "user": user}

	if _, err := surrealdb.Query[[]models.User](ctx, s.db, sql, vars); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Email, interfaces.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	sql := "SELECT * FROM $rid"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(tableUser, id)}

	results, err := surrealdb.Query[[]models.User](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("user %s: %w", id, interfaces.ErrNotFound)
	}
	user := (*results)[0].Result[0]
	return &user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	sql := "SELECT * FROM user WHERE email = $email LIMIT 1"
	vars := map[string]any{"email": email}

	results, err := surrealdb.Query[[]models.User](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("user %s: %w", email, interfaces.ErrNotFound)
	}
	user := (*results)[0].Result[0]
	return &user, nil
}
