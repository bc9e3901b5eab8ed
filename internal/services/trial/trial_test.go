package trial

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/proaccesshq/entitlement-service/internal/apperrors"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetTrial(ctx context.Context, userUID string) (*models.Trial, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trial), args.Error(1)
}

func (m *MockRepository) CreateTrial(ctx context.Context, userUID string, startedAt, endsAt time.Time) (*models.Trial, error) {
	args := m.Called(ctx, userUID, startedAt, endsAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trial), args.Error(1)
}

func (m *MockRepository) SkipTrial(ctx context.Context, userUID string, now time.Time) error {
	args := m.Called(ctx, userUID, now)
	return args.Error(0)
}

func (m *MockRepository) GetEntitlement(ctx context.Context, userUID string) (*models.Entitlement, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Entitlement), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_OnboardingStatus(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)
	past := time.Now().UTC().Add(-time.Hour)

	tests := []struct {
		name       string
		setupMocks func(*MockRepository)
		expected   string
	}{
		{
			name: "active subscription wins",
			setupMocks: func(r *MockRepository) {
				r.On("GetEntitlement", mock.Anything, "uid-1").Return(&models.Entitlement{
					UserUID:            "uid-1",
					IsPro:              true,
					SubscriptionStatus: models.SubscriptionStatusActive,
					SubscriptionEndsAt: &future,
				}, nil).Once()
			},
			expected: models.OnboardingHasSubscription,
		},
		{
			name: "no entitlement, no trial record",
			setupMocks: func(r *MockRepository) {
				r.On("GetEntitlement", mock.Anything, "uid-1").Return(nil, nil).Once()
				r.On("GetTrial", mock.Anything, "uid-1").Return(nil, nil).Once()
			},
			expected: models.OnboardingTrialEligible,
		},
		{
			name: "trial active",
			setupMocks: func(r *MockRepository) {
				r.On("GetEntitlement", mock.Anything, "uid-1").Return(nil, nil).Once()
				r.On("GetTrial", mock.Anything, "uid-1").Return(&models.Trial{
					UserUID: "uid-1", StartedAt: past, EndsAt: future, Active: true,
				}, nil).Once()
			},
			expected: models.OnboardingTrialActive,
		},
		{
			name: "trial expired",
			setupMocks: func(r *MockRepository) {
				r.On("GetEntitlement", mock.Anything, "uid-1").Return(nil, nil).Once()
				r.On("GetTrial", mock.Anything, "uid-1").Return(&models.Trial{
					UserUID: "uid-1", StartedAt: past, EndsAt: past, Active: true,
				}, nil).Once()
			},
			expected: models.OnboardingTrialUsed,
		},
		{
			name: "trial skipped",
			setupMocks: func(r *MockRepository) {
				r.On("GetEntitlement", mock.Anything, "uid-1").Return(nil, nil).Once()
				r.On("GetTrial", mock.Anything, "uid-1").Return(&models.Trial{
					UserUID: "uid-1", StartedAt: past, EndsAt: past, Active: false,
				}, nil).Once()
			},
			expected: models.OnboardingTrialUsed,
		},
		{
			name: "expired subscription falls through to trial state",
			setupMocks: func(r *MockRepository) {
				r.On("GetEntitlement", mock.Anything, "uid-1").Return(&models.Entitlement{
					UserUID:            "uid-1",
					IsPro:              true,
					SubscriptionStatus: models.SubscriptionStatusActive,
					SubscriptionEndsAt: &past,
				}, nil).Once()
				r.On("GetTrial", mock.Anything, "uid-1").Return(&models.Trial{
					UserUID: "uid-1", StartedAt: past, EndsAt: past, Active: false,
				}, nil).Once()
			},
			expected: models.OnboardingTrialUsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMocks(repo)

			svc := New(repo, newNoopLogger())
			got, err := svc.OnboardingStatus(context.Background(), "uid-1")

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Start(t *testing.T) {
	t.Run("creates trial", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateTrial", mock.Anything, "uid-1", mock.Anything, mock.Anything).
			Return(&models.Trial{UserUID: "uid-1", Active: true}, nil).Once()

		svc := New(repo, newNoopLogger())
		trial, err := svc.Start(context.Background(), "uid-1")

		require.NoError(t, err)
		assert.True(t, trial.Active)
		repo.AssertExpectations(t)
	})

	t.Run("second start fails with already used", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateTrial", mock.Anything, "uid-1", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("storage.CreateTrial: %w", apperrors.ErrTrialAlreadyUsed)).Once()

		svc := New(repo, newNoopLogger())
		_, err := svc.Start(context.Background(), "uid-1")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrTrialAlreadyUsed)
		repo.AssertExpectations(t)
	})
}

func TestService_Skip(t *testing.T) {
	repo := new(MockRepository)
	repo.On("SkipTrial", mock.Anything, "uid-1", mock.Anything).Return(nil).Twice()

	svc := New(repo, newNoopLogger())

	// Повторный пропуск идемпотентен.
	require.NoError(t, svc.Skip(context.Background(), "uid-1"))
	require.NoError(t, svc.Skip(context.Background(), "uid-1"))
	repo.AssertExpectations(t)
}
