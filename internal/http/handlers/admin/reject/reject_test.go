package reject

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

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

func (m *MockService) Reject(ctx context.Context, paymentID, adminUID, reason string) (*review.Result, error) {
	args := m.Called(ctx, paymentID, adminUID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Result), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRejectHandler_ServeHTTP(t *testing.T) {
	const paymentID = "6f1e0a34-0000-0000-0000-000000000002"

	tests := []struct {
		name           string
		requestBody    any
		adminUID       string
		setupMocks     func(*MockService)
		expectedStatus int
	}{
		{
			name:        "success - payment rejected",
			requestBody: Request{Reason: "amount does not match receipt"},
			adminUID:    "admin1",
			setupMocks: func(s *MockService) {
				s.On("Reject", mock.Anything, paymentID, "admin1", "amount does not match receipt").
					Return(&review.Result{
						PaymentID: paymentID,
						UserUID:   "user123",
						Status:    models.PaymentStatusRejected,
					}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing reason",
			requestBody:    Request{},
			adminUID:       "admin1",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not a json",
			adminUID:       "admin1",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "payment already approved",
			requestBody: Request{Reason: "duplicate receipt"},
			adminUID:    "admin1",
			setupMocks: func(s *MockService) {
				s.On("Reject", mock.Anything, paymentID, "admin1", "duplicate receipt").
					Return(nil, apperrors.ErrInvalidStateTransition).Once()
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			tt.setupMocks(service)

			handler := New(newNoopLogger(), service)

			body, err := json.Marshal(tt.requestBody)
			assert.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost,
				"/admin/payments/"+paymentID+"/reject", bytes.NewReader(body))

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", paymentID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.adminUID)
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			service.AssertExpectations(t)
		})
	}
}
