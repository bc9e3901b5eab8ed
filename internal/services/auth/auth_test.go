package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/proaccesshq/entitlement-service/internal/apperrors"
	"github.com/proaccesshq/entitlement-service/internal/lib/jwt"
	"github.com/proaccesshq/entitlement-service/internal/lib/password"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestService_Register(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "alice" && u.Role == "user" && u.PasswordHash != "pass123"
	})).Return("uid-1", nil).Once()

	svc := New(repo, jwt.NewJWTMaker("secret", time.Minute))
	uid, err := svc.Register(context.Background(), "alice@example.com", "alice", "pass123")

	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	repo.AssertExpectations(t)
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("pass123")
	require.NoError(t, err)

	maker := jwt.NewJWTMaker("secret", time.Minute)

	t.Run("valid credentials return token with identity claims", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetUserByUsername", mock.Anything, "alice").Return(&models.User{
			UUID: "uid-1", Username: "alice", PasswordHash: hash, Role: "admin",
		}, nil).Once()

		svc := New(repo, maker)
		token, role, err := svc.Login(context.Background(), "alice", "pass123")

		require.NoError(t, err)
		assert.Equal(t, "admin", role)

		claims, err := maker.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "uid-1", claims.UserUID)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetUserByUsername", mock.Anything, "alice").Return(&models.User{
			UUID: "uid-1", Username: "alice", PasswordHash: hash, Role: "user",
		}, nil).Once()

		svc := New(repo, maker)
		_, _, err := svc.Login(context.Background(), "alice", "wrong")

		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetUserByUsername", mock.Anything, "ghost").
			Return(nil, fmt.Errorf("storage.GetUserByUsername: %w", apperrors.ErrNotFound)).Once()

		svc := New(repo, maker)
		_, _, err := svc.Login(context.Background(), "ghost", "pass123")

		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}

func TestService_ValidateToken(t *testing.T) {
	maker := jwt.NewJWTMaker("secret", time.Minute)
	svc := New(new(MockUserRepository), maker)

	token, err := maker.GenerateToken("alice", "admin", "uid-1")
	require.NoError(t, err)

	identity, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", identity.UserUID)
	assert.True(t, identity.IsAdmin())

	_, err = svc.ValidateToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
