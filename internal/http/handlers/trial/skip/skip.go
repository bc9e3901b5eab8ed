// Package skip реализует HTTP-обработчик явного отказа от пробного периода.
package skip

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/proaccesshq/entitlement-service/internal/http/middlewarectx"
	"github.com/proaccesshq/entitlement-service/internal/http/response"
	"github.com/proaccesshq/entitlement-service/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики пропуска пробного периода.
type Service interface {
	Skip(ctx context.Context, userUID string) error
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
// @Summary Пропустить пробный период
// @Description Отмечает пробный период использованным без его запуска. Операция идемпотентна.
// @Tags Trial
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Пробный период пропущен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /trial/skip [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.skip"

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

	if err := h.service.Skip(r.Context(), userUID); err != nil {
		log.Error("failed to skip trial", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error(response.Message(err)))
		return
	}

	log.Info("trial skipped", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "trial skipped",
	}))
}
