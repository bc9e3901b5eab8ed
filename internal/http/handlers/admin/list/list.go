// Package list реализует HTTP-обработчик административного списка платежей
// с фильтрами по статусу и пользователю.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/proaccesshq/entitlement-service/internal/http/response"
	"github.com/proaccesshq/entitlement-service/internal/lib/sl"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

// Service описывает интерфейс бизнес-логики выборки платежей.
type Service interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error)
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
// @Summary Список платежей
// @Description Возвращает платежи по фильтрам статуса и пользователя, новые первыми.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param status query string false "Статус платежа: pending, approved или rejected"
// @Param user_uid query string false "Идентификатор пользователя"
// @Param limit query int false "Максимум записей" default(50)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} map[string]any "Список платежей"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 422 {object} response.ErrorResponse "Неизвестный статус"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter := models.PaymentFilter{Limit: 50}

	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	if status := r.URL.Query().Get("status"); status != "" {
		switch status {
		case models.PaymentStatusPending, models.PaymentStatusApproved, models.PaymentStatusRejected:
			filter.Status = &status
		default:
			log.Error("unknown payment status", slog.String("status", status))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("unknown payment status"))
			return
		}
	}

	if userUID := r.URL.Query().Get("user_uid"); userUID != "" {
		filter.UserUID = &userUID
	}

	payments, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list payments"))
		return
	}

	log.Info("payments listed", slog.Int("count", len(payments)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"list_count": len(payments),
		"payments":   payments,
	}))
}
