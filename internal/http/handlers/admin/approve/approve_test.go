package approve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/proaccesshq/entitlement-service/internal/apperrors"
	"github.com/proaccesshq/entitlement-service/internal/http/middlewarectx"
	"github.com/proaccesshq/entitlement-service/internal/models"
	"github.com/proaccesshq/entitlement-service/internal/services/review"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Approve(ctx context.Context, paymentID, adminUID string) (*review.Result, error) {
	args := m.Called(ctx, paymentID, adminUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Result), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(paymentID, adminUID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/admin/payments/"+paymentID+"/approve", nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", paymentID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if adminUID != "" {
		ctx = context.WithValue(ctx, middlewarectx.UserUID, adminUID)
	}
	return req.WithContext(ctx)
}

func TestApproveHandler_ServeHTTP(t *testing.T) {
	endsAt := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	const paymentID = "6f1e0a34-0000-0000-0000-000000000001"

	tests := []struct {
		name           string
		paymentID      string
		adminUID       string
		setupMocks     func(*MockService)
		expectedStatus int
	}{
		{
			name:      "success - payment approved",
			paymentID: paymentID,
			adminUID:  "admin1",
			setupMocks: func(s *MockService) {
				s.On("Approve", mock.Anything, paymentID, "admin1").Return(&review.Result{
					PaymentID:          paymentID,
					UserUID:            "user123",
					Status:             models.PaymentStatusApproved,
					SubscriptionEndsAt: &endsAt,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "idempotent - already approved",
			paymentID: paymentID,
			adminUID:  "admin1",
			setupMocks: func(s *MockService) {
				s.On("Approve", mock.Anything, paymentID, "admin1").Return(&review.Result{
					PaymentID: paymentID,
					UserUID:   "user123",
					Status:    models.PaymentStatusApproved,
					Already:   true,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing admin UID",
			paymentID:      paymentID,
			adminUID:       "",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:      "payment not found",
			paymentID: paymentID,
			adminUID:  "admin1",
			setupMocks: func(s *MockService) {
				s.On("Approve", mock.Anything, paymentID, "admin1").
					Return(nil, apperrors.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:      "payment already rejected",
			paymentID: paymentID,
			adminUID:  "admin1",
			setupMocks: func(s *MockService) {
				s.On("Approve", mock.Anything, paymentID, "admin1").
					Return(nil, apperrors.ErrInvalidStateTransition).Once()
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:      "storage error",
			paymentID: paymentID,
			adminUID:  "admin1",
			setupMocks: func(s *MockService) {
				s.On("Approve", mock.Anything, paymentID, "admin1").
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

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest(tt.paymentID, tt.adminUID))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			service.AssertExpectations(t)
		})
	}
}
