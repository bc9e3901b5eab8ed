// Package entitlement собирает приложение сервиса платного доступа:
// хранилище, миграции, кеш, брокер событий, бизнес-сервисы и HTTP-сервер.
package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/proaccesshq/entitlement-service/internal/cache"
	"github.com/proaccesshq/entitlement-service/internal/config"
	"github.com/proaccesshq/entitlement-service/internal/lib/jwt"
	"github.com/proaccesshq/entitlement-service/internal/lib/rabbitmq"
	"github.com/proaccesshq/entitlement-service/internal/lib/sl"
	"github.com/proaccesshq/entitlement-service/internal/migrations"
	authservice "github.com/proaccesshq/entitlement-service/internal/services/auth"
	entitlementservice "github.com/proaccesshq/entitlement-service/internal/services/entitlement"
	paymentservice "github.com/proaccesshq/entitlement-service/internal/services/payment"
	reviewservice "github.com/proaccesshq/entitlement-service/internal/services/review"
	trialservice "github.com/proaccesshq/entitlement-service/internal/services/trial"
	"github.com/proaccesshq/entitlement-service/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Брокер событий опционален: без него решения по платежам
	// просто не публикуются.
	var publisher reviewservice.EventPublisher
	if cfg.RabbitConnection != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitConnection, 5, 2*time.Second)
		if err != nil {
			logger.Warn("rabbitmq is unavailable, review events disabled", sl.Err(err))
		} else {
			ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetReviewQueues())
			if err != nil {
				logger.Warn("failed to setup rabbitmq channel, review events disabled", sl.Err(err))
			} else {
				publisher = rabbitmq.NewPublisher(ch)
			}
		}
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.New(db, jwtMaker)
	trialService := trialservice.New(db, logger)
	paymentService := paymentservice.New(db, logger)
	entitlementService := entitlementservice.New(db, cacheRedis, logger)
	reviewService := reviewservice.New(db, cacheRedis, publisher, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger,
		authService, trialService, paymentService, entitlementService, reviewService,
		func() error { return repository.CheckDatabaseReady(db) },
	)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.cache.Close(); cerr != nil {
			a.logger.Error("failed to close redis client", sl.Err(cerr))
		}
		if cerr := a.db.Close(); cerr != nil {
			a.logger.Error("failed to close storage", sl.Err(cerr))
		}
		return err
	}
}
