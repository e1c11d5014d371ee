package surrealdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/models"
)

func TestUserStore_CreateAndGet(t *testing.T) {
	m := testManager(t)
	store := m.UserStore()
	ctx := context.Background()

	user := &models.User{
		UserID:       "u-1",
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "Ada", got.Name)

	byEmail, err := store.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byEmail.UserID)
}

func TestUserStore_DuplicateEmail(t *testing.T) {
	m := testManager(t)
	store := m.UserStore()
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, &models.User{UserID: "u-1", Email: "dup@example.com"}))
	err := store.CreateUser(ctx, &models.User{UserID: "u-2", Email: "dup@example.com"})
	assert.True(t, errors.Is(err, interfaces.ErrDuplicate), "got %v", err)
}

func TestUserStore_NotFound(t *testing.T) {
	m := testManager(t)
	store := m.UserStore()
	ctx := context.Background()

	_, err := store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	_, err = store.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
