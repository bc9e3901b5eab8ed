package submit

import (
	"bytes"
	"context"
	"encoding/json"
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

func (m *MockService) Submit(ctx context.Context, userUID string, req models.DummyPayment) (*models.Payment, error) {
	args := m.Called(ctx, userUID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSubmitHandler_ServeHTTP(t *testing.T) {
	validBody := models.DummyPayment{
		PlanID:        1,
		Amount:        200.00,
		TransactionID: "TX-1001",
	}

	tests := []struct {
		name           string
		requestBody    any
		userUID        string
		setupMocks     func(*MockService)
		expectedStatus int
	}{
		{
			name:        "success - payment submitted",
			requestBody: validBody,
			userUID:     "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", validBody).Return(&models.Payment{
					ID:            "6f1e0a34-0000-0000-0000-000000000001",
					UserUID:       "user123",
					Amount:        200.00,
					TransactionID: "TX-1001",
					Status:        models.PaymentStatusPending,
					SubmittedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not a json",
			userUID:        "user123",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing transaction id",
			requestBody: models.DummyPayment{
				PlanID: 1,
				Amount: 200.00,
			},
			userUID:        "user123",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "missing user UID",
			requestBody:    validBody,
			userUID:        "",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:        "amount mismatch",
			requestBody: validBody,
			userUID:     "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", validBody).
					Return(nil, apperrors.ErrAmountMismatch).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:        "duplicate pending payment",
			requestBody: validBody,
			userUID:     "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", validBody).
					Return(nil, apperrors.ErrDuplicatePending).Once()
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:        "already entitled",
			requestBody: validBody,
			userUID:     "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", validBody).
					Return(nil, apperrors.ErrAlreadyEntitled).Once()
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:        "plan not found",
			requestBody: validBody,
			userUID:     "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", validBody).
					Return(nil, apperrors.ErrPlanNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "storage error",
			requestBody: validBody,
			userUID:     "user123",
			setupMocks: func(s *MockService) {
				s.On("Submit", mock.Anything, "user123", validBody).
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

			body, err := json.Marshal(tt.requestBody)
			assert.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
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
