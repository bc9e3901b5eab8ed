// Package entitlement предоставляет маршруты для основного приложения.
package entitlement

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	adminapprove "github.com/proaccesshq/entitlement-service/internal/http/handlers/admin/approve"
	adminlist "github.com/proaccesshq/entitlement-service/internal/http/handlers/admin/list"
	adminpending "github.com/proaccesshq/entitlement-service/internal/http/handlers/admin/pending"
	adminreject "github.com/proaccesshq/entitlement-service/internal/http/handlers/admin/reject"
	adminstats "github.com/proaccesshq/entitlement-service/internal/http/handlers/admin/stats"
	"github.com/proaccesshq/entitlement-service/internal/http/handlers/auth/login"
	"github.com/proaccesshq/entitlement-service/internal/http/handlers/auth/register"
	entitlementstatus "github.com/proaccesshq/entitlement-service/internal/http/handlers/entitlement/status"
	"github.com/proaccesshq/entitlement-service/internal/http/handlers/health"
	"github.com/proaccesshq/entitlement-service/internal/http/handlers/payment/history"
	"github.com/proaccesshq/entitlement-service/internal/http/handlers/payment/submit"
	planlist "github.com/proaccesshq/entitlement-service/internal/http/handlers/plan/list"
	"github.com/proaccesshq/entitlement-service/internal/http/handlers/trial/onboarding"
	"github.com/proaccesshq/entitlement-service/internal/http/handlers/trial/skip"
	"github.com/proaccesshq/entitlement-service/internal/http/handlers/trial/start"
	"github.com/proaccesshq/entitlement-service/internal/http/middlewarectx"
	authservice "github.com/proaccesshq/entitlement-service/internal/services/auth"
	entitlementservice "github.com/proaccesshq/entitlement-service/internal/services/entitlement"
	paymentservice "github.com/proaccesshq/entitlement-service/internal/services/payment"
	reviewservice "github.com/proaccesshq/entitlement-service/internal/services/review"
	trialservice "github.com/proaccesshq/entitlement-service/internal/services/trial"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.Service,
	trialService *trialservice.Service,
	paymentService *paymentservice.Service,
	entitlementService *entitlementservice.Service,
	reviewService *reviewservice.Service,
	readinessCheck health.ReadinessCheck,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/plans", planlist.New(logger, entitlementService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.AuthMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/payments", submit.New(logger, paymentService).ServeHTTP)
			r.Get("/payments/history", history.New(logger, paymentService).ServeHTTP)
			r.Get("/entitlement/status", entitlementstatus.New(logger, entitlementService).ServeHTTP)
			r.Get("/onboarding/status", onboarding.New(logger, trialService).ServeHTTP)
			r.Post("/trial/start", start.New(logger, trialService).ServeHTTP)
			r.Post("/trial/skip", skip.New(logger, trialService).ServeHTTP)

			// Административная группа
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))

				r.Get("/admin/payments/pending", adminpending.New(logger, reviewService).ServeHTTP)
				r.Get("/admin/payments", adminlist.New(logger, reviewService).ServeHTTP)
				r.Post("/admin/payments/{id}/approve", adminapprove.New(logger, reviewService).ServeHTTP)
				r.Post("/admin/payments/{id}/reject", adminreject.New(logger, reviewService).ServeHTTP)
				r.Get("/admin/stats", adminstats.New(logger, reviewService).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, readinessCheck).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
