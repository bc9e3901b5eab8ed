package start

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/proaccesshq/entitlement-service/internal/apperrors"
	"github.com/proaccesshq/entitlement-service/internal/http/middlewarectx"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Start(ctx context.Context, userUID string) (*models.Trial, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trial), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestStartHandler_ServeHTTP(t *testing.T) {
	startedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		userUID        string
		setupMocks     func(*MockService)
		expectedStatus int
	}{
		{
			name:    "success - trial started",
			userUID: "user123",
			setupMocks: func(s *MockService) {
				s.On("Start", mock.Anything, "user123").Return(&models.Trial{
					UserUID:   "user123",
					StartedAt: startedAt,
					EndsAt:    startedAt.Add(7 * 24 * time.Hour),
					Active:    true,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing user UID",
			userUID:        "",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:    "trial already used",
			userUID: "user123",
			setupMocks: func(s *MockService) {
				s.On("Start", mock.Anything, "user123").
					Return(nil, apperrors.ErrTrialAlreadyUsed).Once()
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:    "storage error",
			userUID: "user123",
			setupMocks: func(s *MockService) {
				s.On("Start", mock.Anything, "user123").
					Return(nil, errors.New("connection refused")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			tt.setupMocks(service)

			handler := New(newNoopLogger(), service)

			req := httptest.NewRequest(http.MethodPost, "/trial/start", nil)
			if tt.userUID != "" {
				ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
				req = req.WithContext(ctx)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			service.AssertExpectations(t)
		})
	}
}
