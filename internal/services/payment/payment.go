// Package payment содержит бизнес-логику отправки платежа на проверку
// и чтения истории платежей пользователя.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/proaccesshq/entitlement-service/internal/apperrors"
	"github.com/proaccesshq/entitlement-service/internal/lib/retry"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

// Repository определяет методы хранилища для платежей, планов и прав доступа.
type Repository interface {
	// CreatePayment вставляет платёж в статусе pending и помечает
	// пробный период использованным в одной транзакции.
	CreatePayment(ctx context.Context, userUID string, planID int, amount float64,
		transactionID string, note *string, now time.Time) (*models.Payment, error)
	// ListPaymentsByUser возвращает платежи пользователя, новые первыми.
	ListPaymentsByUser(ctx context.Context, userUID string) ([]*models.Payment, error)
	// GetPlan возвращает тарифный план по ID.
	GetPlan(ctx context.Context, planID int) (*models.Plan, error)
	// GetEntitlement возвращает право платного доступа или nil.
	GetEntitlement(ctx context.Context, userUID string) (*models.Entitlement, error)
}

// Service реализует процесс отправки платежа на проверку.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Submit проверяет предусловия в фиксированном порядке и создаёт платёж
// в статусе pending. Порядок проверок: план и сумма, действующий доступ,
// платёж на проверке, повторный код транзакции. Первая неудача выигрывает.
//
// Вставка не ретраится: она не идемпотентна, а конфликт уникальности
// после гонки сам по себе является окончательным ответом.
func (s *Service) Submit(ctx context.Context, userUID string, req models.DummyPayment) (*models.Payment, error) {
	const op = "services.payment.Submit"
	now := time.Now().UTC()

	plan, err := retry.Do(ctx, func() (*models.Plan, error) {
		return s.repo.GetPlan(ctx, req.PlanID)
	})
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrPlanNotFound)
	}
	// Сумма должна совпадать с ценой плана точно, без допуска.
	if req.Amount != plan.Price {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrAmountMismatch)
	}

	ent, err := retry.Do(ctx, func() (*models.Entitlement, error) {
		return s.repo.GetEntitlement(ctx, userUID)
	})
	if err != nil {
		return nil, err
	}
	if ent.ActiveAt(now) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrAlreadyEntitled)
	}

	var note *string
	if req.Note != "" {
		note = &req.Note
	}
	p, err := s.repo.CreatePayment(ctx, userUID, req.PlanID, req.Amount, req.TransactionID, note, now)
	if err != nil {
		return nil, err
	}

	s.log.Info("payment submitted",
		slog.String("payment_id", p.ID),
		slog.String("user_uid", userUID),
		slog.Float64("amount", p.Amount))
	return p, nil
}

// History возвращает платежи пользователя, новые первыми. Чистое чтение.
func (s *Service) History(ctx context.Context, userUID string) ([]*models.Payment, error) {
	return retry.Do(ctx, func() ([]*models.Payment, error) {
		return s.repo.ListPaymentsByUser(ctx, userUID)
	})
}
