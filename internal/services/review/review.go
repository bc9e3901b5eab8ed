// Package review содержит бизнес-логику административной проверки платежей:
// одобрение, отклонение, списки и статистику панели.
//
// Машина состояний платежа: pending -> approved, pending -> rejected,
// оба перехода терминальны. Повтор терминальной операции идемпотентен:
// повторное одобрение одобренного платежа — успех с признаком already,
// любой другой переход — apperrors.ErrInvalidStateTransition.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/proaccesshq/entitlement-service/internal/apperrors"
	"github.com/proaccesshq/entitlement-service/internal/cache"
	"github.com/proaccesshq/entitlement-service/internal/lib/rabbitmq"
	"github.com/proaccesshq/entitlement-service/internal/lib/retry"
	"github.com/proaccesshq/entitlement-service/internal/lib/sl"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

// Repository определяет методы хранилища для проверки платежей.
type Repository interface {
	// ApprovePayment одобряет платёж и выдаёт право доступа в одной транзакции.
	ApprovePayment(ctx context.Context, paymentID, adminUID string, now time.Time) (*models.Payment, *time.Time, bool, error)
	// RejectPayment отклоняет платёж, право доступа не изменяется.
	RejectPayment(ctx context.Context, paymentID, adminUID, reason string, now time.Time) (*models.Payment, bool, error)
	// ListPayments возвращает платежи по фильтру, новые первыми.
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error)
	// GetDashboardStats собирает агрегаты для панели.
	GetDashboardStats(ctx context.Context, now time.Time) (*models.DashboardStats, error)
}

// Cache описывает инвалидацию кеша статусов платного доступа.
type Cache interface {
	Invalidate(ctx context.Context, key string) error
}

// EventPublisher публикует события о решениях по платежам.
type EventPublisher interface {
	Publish(routingKey string, event rabbitmq.ReviewEvent) error
}

// Result результат решения администратора по платежу.
type Result struct {
	PaymentID          string     `json:"payment_id"`
	UserUID            string     `json:"user_uid"`
	Status             string     `json:"status"`
	Already            bool       `json:"already_processed"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
}

// Service реализует административную проверку платежей.
type Service struct {
	repo      Repository
	cache     Cache
	publisher EventPublisher
	log       *slog.Logger
}

// New создает новый Service. publisher может быть nil, тогда события не публикуются.
func New(repo Repository, c Cache, publisher EventPublisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     c,
		publisher: publisher,
		log:       log,
	}
}

// Approve одобряет платёж. Повторное одобрение возвращает успех
// с Already = true без мутаций. Операция не ретраится: хранилище
// выполняет её атомарно, а повтор после неоднозначного сбоя
// идемпотентен на уровне вызывающего.
func (s *Service) Approve(ctx context.Context, paymentID, adminUID string) (*Result, error) {
	now := time.Now().UTC()

	p, endsAt, already, err := s.repo.ApprovePayment(ctx, paymentID, adminUID, now)
	if err != nil {
		return nil, err
	}

	s.invalidateEntitlement(ctx, p.UserUID)

	if !already {
		s.log.Info("payment approved",
			slog.String("payment_id", p.ID),
			slog.String("user_uid", p.UserUID),
			slog.String("admin_uid", adminUID))
		s.publish(rabbitmq.RoutingKeyApproved, rabbitmq.ReviewEvent{
			PaymentID:          p.ID,
			UserUID:            p.UserUID,
			AdminUID:           adminUID,
			Status:             models.PaymentStatusApproved,
			SubscriptionEndsAt: endsAt,
			ProcessedAt:        now,
		})
	}

	return &Result{
		PaymentID:          p.ID,
		UserUID:            p.UserUID,
		Status:             models.PaymentStatusApproved,
		Already:            already,
		SubscriptionEndsAt: endsAt,
	}, nil
}

// Reject отклоняет платёж. Требует непустую причину. Повторное отклонение
// возвращает успех с Already = true без мутаций.
func (s *Service) Reject(ctx context.Context, paymentID, adminUID, reason string) (*Result, error) {
	const op = "services.review.Reject"
	if reason == "" {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrValidation)
	}
	now := time.Now().UTC()

	p, already, err := s.repo.RejectPayment(ctx, paymentID, adminUID, reason, now)
	if err != nil {
		return nil, err
	}

	if !already {
		s.log.Info("payment rejected",
			slog.String("payment_id", p.ID),
			slog.String("user_uid", p.UserUID),
			slog.String("admin_uid", adminUID),
			slog.String("reason", reason))
		s.publish(rabbitmq.RoutingKeyRejected, rabbitmq.ReviewEvent{
			PaymentID:       p.ID,
			UserUID:         p.UserUID,
			AdminUID:        adminUID,
			Status:          models.PaymentStatusRejected,
			RejectionReason: reason,
			ProcessedAt:     now,
		})
	}

	return &Result{
		PaymentID: p.ID,
		UserUID:   p.UserUID,
		Status:    models.PaymentStatusRejected,
		Already:   already,
	}, nil
}

// ListPending возвращает платежи на проверке, новые первыми.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	status := models.PaymentStatusPending
	return s.List(ctx, models.PaymentFilter{Status: &status, Limit: limit, Offset: offset})
}

// List возвращает платежи по фильтру.
func (s *Service) List(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return retry.Do(ctx, func() ([]*models.Payment, error) {
		return s.repo.ListPayments(ctx, filter)
	})
}

// Stats возвращает агрегированную статистику для панели.
func (s *Service) Stats(ctx context.Context) (*models.DashboardStats, error) {
	now := time.Now().UTC()
	return retry.Do(ctx, func() (*models.DashboardStats, error) {
		return s.repo.GetDashboardStats(ctx, now)
	})
}

// invalidateEntitlement сбрасывает кешированный статус платного доступа.
// Ошибка кеша не откатывает уже принятое решение.
func (s *Service) invalidateEntitlement(ctx context.Context, userUID string) {
	key := cache.EntitlementKey(userUID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to invalidate entitlement cache", slog.String("key", key), sl.Err(err))
	}
}

// publish отправляет событие потребителям. Сбой публикации только логируется:
// решение по платежу уже зафиксировано в хранилище.
func (s *Service) publish(routingKey string, event rabbitmq.ReviewEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, event); err != nil {
		s.log.Warn("failed to publish review event",
			slog.String("routing_key", routingKey),
			slog.String("payment_id", event.PaymentID),
			sl.Err(err))
	}
}
