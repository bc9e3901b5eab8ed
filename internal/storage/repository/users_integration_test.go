package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proaccesshq/entitlement-service/internal/apperrors"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

func TestStorage_RegisterUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("registers new user", func(t *testing.T) {
		uid, err := storage.RegisterUser(ctx, models.User{
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: "hashedpassword",
			Role:         "user",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, uid)
	})

	t.Run("duplicate username fails", func(t *testing.T) {
		_, err := storage.RegisterUser(ctx, models.User{
			Username:     "bob",
			Email:        "bob@example.com",
			PasswordHash: "hashedpassword",
			Role:         "user",
		})
		require.NoError(t, err)

		_, err = storage.RegisterUser(ctx, models.User{
			Username:     "bob",
			Email:        "bob2@example.com",
			PasswordHash: "hashedpassword",
			Role:         "user",
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestStorage_GetUserByUsername(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	uid, err := storage.RegisterUser(ctx, models.User{
		Username:     "carol",
		Email:        "carol@example.com",
		PasswordHash: "hashedpassword",
		Role:         "admin",
	})
	require.NoError(t, err)

	t.Run("returns existing user", func(t *testing.T) {
		user, err := storage.GetUserByUsername(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, uid, user.UUID)
		assert.Equal(t, "admin", user.Role)
		assert.Equal(t, "carol@example.com", user.Email)
	})

	t.Run("unknown user returns not found", func(t *testing.T) {
		_, err := storage.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
