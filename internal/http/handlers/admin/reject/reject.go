// Package reject реализует HTTP-обработчик отклонения платежа администратором.
//
// Причина отклонения обязательна. Отклонение не изменяет право доступа
// пользователя и терминально для платежа.
package reject

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/proaccesshq/entitlement-service/internal/http/middlewarectx"
	"github.com/proaccesshq/entitlement-service/internal/http/response"
	"github.com/proaccesshq/entitlement-service/internal/lib/sl"
	"github.com/proaccesshq/entitlement-service/internal/services/review"
)

// Request — входные данные для отклонения платежа
type Request struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Service описывает интерфейс бизнес-логики отклонения платежа.
type Service interface {
	Reject(ctx context.Context, paymentID, adminUID, reason string) (*review.Result, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отклонить платёж
// @Description Переводит платёж из pending в rejected с обязательной причиной. Идемпотентен.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID платежа"
// @Param request body Request true "Причина отклонения"
// @Success 200 {object} map[string]any "Платёж отклонён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 409 {object} response.ErrorResponse "Недопустимый переход статуса"
// @Failure 422 {object} response.ErrorResponse "Причина отклонения не указана"
// @Router /admin/payments/{id}/reject [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.reject"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		log.Error("payment id is empty")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("payment id is required"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	adminUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || adminUID == "" {
		log.Error("admin uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Reject(r.Context(), paymentID, adminUID, req.Reason)
	if err != nil {
		log.Error("failed to reject payment", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error(response.Message(err)))
		return
	}

	log.Info("payment rejected",
		slog.String("payment_id", result.PaymentID),
		slog.Bool("already_processed", result.Already))
	render.JSON(w, r, response.OKWithData(result))
}
