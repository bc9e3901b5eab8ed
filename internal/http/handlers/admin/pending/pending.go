// Package pending реализует HTTP-обработчик очереди платежей,
// ожидающих решения администратора.
package pending

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

// Service описывает интерфейс бизнес-логики очереди платежей.
type Service interface {
	ListPending(ctx context.Context, limit, offset int) ([]*models.Payment, error)
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
// @Summary Очередь платежей на проверку
// @Description Возвращает платежи в статусе pending, новые первыми.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Максимум записей" default(50)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} map[string]any "Очередь платежей"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/payments/pending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.pending"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	payments, err := h.service.ListPending(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list pending payments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list pending payments"))
		return
	}

	log.Info("pending payments listed", slog.Int("count", len(payments)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"list_count": len(payments),
		"payments":   payments,
	}))
}
