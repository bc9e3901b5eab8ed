// Package start реализует HTTP-обработчик запуска пробного периода.
//
// Пробный период выдаётся один раз: повторный запуск, как и запуск после
// явного пропуска, возвращает конфликт.
package start

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

// Service описывает интерфейс бизнес-логики запуска пробного периода.
type Service interface {
	Start(ctx context.Context, userUID string) (*models.Trial, error)
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
// @Summary Начать пробный период
// @Description Запускает единственный пробный период текущего пользователя.
// @Tags Trial
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Пробный период запущен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Пробный период уже использован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /trial/start [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.start"

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

	trial, err := h.service.Start(r.Context(), userUID)
	if err != nil {
		log.Error("failed to start trial", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error(response.Message(err)))
		return
	}

	log.Info("trial started", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"trial": trial,
	}))
}
