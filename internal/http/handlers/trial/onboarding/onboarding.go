// Package onboarding реализует HTTP-обработчик состояния онбординга:
// подсказывает клиенту, предлагать ли пользователю пробный период,
// экран оплаты или ничего.
package onboarding

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

// Service описывает интерфейс бизнес-логики онбординга.
type Service interface {
	OnboardingStatus(ctx context.Context, userUID string) (string, error)
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
// @Summary Состояние онбординга
// @Description Возвращает одно из состояний: has_active_subscription, trial_active, trial_expired_or_skipped, eligible_for_trial.
// @Tags Trial
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Состояние онбординга"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /onboarding/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.onboarding"

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

	status, err := h.service.OnboardingStatus(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get onboarding status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get onboarding status"))
		return
	}

	log.Info("onboarding status resolved", slog.String("status", status))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": status,
	}))
}
