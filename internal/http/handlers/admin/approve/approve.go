// Package approve реализует HTTP-обработчик одобрения платежа администратором.
//
// Одобрение терминально: повторное одобрение того же платежа возвращает
// успех с признаком already_processed, переход из rejected запрещён.
package approve

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/proaccesshq/entitlement-service/internal/http/middlewarectx"
	"github.com/proaccesshq/entitlement-service/internal/http/response"
	"github.com/proaccesshq/entitlement-service/internal/lib/sl"
	"github.com/proaccesshq/entitlement-service/internal/services/review"
)

// Service описывает интерфейс бизнес-логики одобрения платежа.
type Service interface {
	Approve(ctx context.Context, paymentID, adminUID string) (*review.Result, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Одобрить платёж
// @Description Переводит платёж из pending в approved и выдаёт платный доступ в одной транзакции. Идемпотентен.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID платежа"
// @Success 200 {object} map[string]any "Платёж одобрен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 409 {object} response.ErrorResponse "Недопустимый переход статуса"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/payments/{id}/approve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.approve"

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

	adminUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || adminUID == "" {
		log.Error("admin uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Approve(r.Context(), paymentID, adminUID)
	if err != nil {
		log.Error("failed to approve payment", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error(response.Message(err)))
		return
	}

	log.Info("payment approved",
		slog.String("payment_id", result.PaymentID),
		slog.Bool("already_processed", result.Already))
	render.JSON(w, r, response.OKWithData(result))
}
