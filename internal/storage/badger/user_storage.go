package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/models"
)

type userStorage struct {
	store  *Store
	logger *common.Logger
}

// NewUserStorage creates a new UserStore backed by BadgerHold.
func NewUserStorage(store *Store, logger *common.Logger) *userStorage {
	return &userStorage{store: store, logger: logger}
}

// CreateUser checks the email index and inserts in the same transaction.
// Concurrent creates with one email conflict at commit.
func (s *userStorage) CreateUser(_ context.Context, user *models.User) error {
	err := s.store.db.Badger().Update(func(tx *badgerdb.Txn) error {
		var existing []models.User
		query := badgerhold.Where("Email").Eq(user.Email).Index("Email")
		if err := s.store.db.TxFind(tx, &existing, query); err != nil {
			return err
		}
		if len(existing) > 0 {
			return interfaces.ErrDuplicate
		}
		return s.store.db.TxInsert(tx, user.UserID, user)
	})
	switch {
	case err == nil:
		s.logger.Debug().Str("user_id", user.UserID).Msg("User created")
		return nil
	case errors.Is(err, interfaces.ErrDuplicate),
		errors.Is(err, badgerhold.ErrKeyExists),
		errors.Is(err, badgerdb.ErrConflict):
		return fmt.Errorf("user %s: %w", user.Email, interfaces.ErrDuplicate)
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}

func (s *userStorage) GetUser(_ context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.store.db.Get(id, &user)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}

func (s *userStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	var users []models.User
	query := badgerhold.Where("Email").Eq(email).Index("Email")
	if err := s.store.db.Find(&users, query); err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", email, interfaces.ErrNotFound)
	}
	return &users[0], nil
}
