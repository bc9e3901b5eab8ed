// Package entitlement отдаёт статус платного доступа пользователя
// и список тарифных планов, используя кеш поверх хранилища.
package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/proaccesshq/entitlement-service/internal/cache"
	"github.com/proaccesshq/entitlement-service/internal/lib/retry"
	"github.com/proaccesshq/entitlement-service/internal/lib/sl"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

const cacheTTL = time.Hour

// Repository определяет методы хранилища для прав доступа и планов.
type Repository interface {
	GetEntitlement(ctx context.Context, userUID string) (*models.Entitlement, error)
	ListActivePlans(ctx context.Context) ([]*models.Plan, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует чтение статуса платного доступа и планов.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый Service.
func New(repo Repository, c Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: c,
		log:   log,
	}
}

// ProStatus возвращает статус платного доступа. Истечение оплаченного
// периода вычисляется при чтении: запись active с прошедшим сроком
// отдаётся как expired. Ошибки кеша деградируют до чтения из хранилища.
func (s *Service) ProStatus(ctx context.Context, userUID string) (*models.ProStatus, error) {
	now := time.Now().UTC()
	cacheKey := cache.EntitlementKey(userUID)

	var cached models.ProStatus
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read entitlement from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	ent, err := retry.Do(ctx, func() (*models.Entitlement, error) {
		return s.repo.GetEntitlement(ctx, userUID)
	})
	if err != nil {
		return nil, err
	}

	status := &models.ProStatus{SubscriptionStatus: models.SubscriptionStatusNone}
	if ent != nil {
		status.IsPro = ent.ActiveAt(now)
		status.SubscriptionStatus = ent.SubscriptionStatus
		status.SubscriptionEndsAt = ent.SubscriptionEndsAt
		if ent.SubscriptionStatus == models.SubscriptionStatusActive && !ent.ActiveAt(now) {
			status.SubscriptionStatus = models.SubscriptionStatusExpired
		}
	}

	ttl := cacheTTL
	if status.IsPro && status.SubscriptionEndsAt != nil {
		if until := status.SubscriptionEndsAt.Sub(now); until < ttl {
			ttl = until
		}
	}
	if err := s.cache.Set(ctx, cacheKey, status, ttl); err != nil {
		s.log.Warn("failed to cache entitlement", slog.String("key", cacheKey), sl.Err(err))
	}
	return status, nil
}

// ListPlans возвращает активные тарифные планы, используя кеш или хранилище.
func (s *Service) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	var cached []*models.Plan
	found, err := s.cache.Get(ctx, cache.KeyActivePlans, &cached)
	if err != nil {
		s.log.Warn("failed to read plans from cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	plans, err := retry.Do(ctx, func() ([]*models.Plan, error) {
		return s.repo.ListActivePlans(ctx)
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cache.KeyActivePlans, plans, cacheTTL); err != nil {
		s.log.Warn("failed to cache plans", sl.Err(err))
	}
	return plans, nil
}
