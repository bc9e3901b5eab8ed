// Package status реализует HTTP-обработчик статуса платного доступа
// текущего пользователя.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/proaccesshq/entitlement-service/internal/http/middlewarectx"
	"github.com/proaccesshq/entitlement-service/internal/http/response"
	"github.com/proaccesshq/entitlement-service/internal/lib/sl"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

// Service описывает интерфейс бизнес-логики статуса доступа.
type Service interface {
	ProStatus(ctx context.Context, userUID string) (*models.ProStatus, error)
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
// @Summary Статус платного доступа
// @Description Возвращает признак Pro, статус подписки и срок её окончания. Истечение вычисляется в момент чтения.
// @Tags Entitlement
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Статус доступа"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /entitlement/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	status, err := h.service.ProStatus(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get pro status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get entitlement status"))
		return
	}

	log.Info("pro status resolved",
		slog.Bool("is_pro", status.IsPro),
		slog.String("subscription_status", status.SubscriptionStatus))
	render.JSON(w, r, response.OKWithData(status))
}
