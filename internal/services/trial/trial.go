// Package trial содержит бизнес-логику пробного периода: онбординг,
// запуск и пропуск. Пробный период одноразовый, истечение вычисляется
// при чтении, фоновых обходов нет.
package trial

import (
	"context"
	"log/slog"
	"time"

	"github.com/proaccesshq/entitlement-service/internal/lib/retry"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

// TrialDuration длительность пробного периода.
const TrialDuration = 7 * 24 * time.Hour

// Repository определяет методы хранилища для пробных периодов и прав доступа.
type Repository interface {
	// GetTrial возвращает запись пробного периода или nil, если её нет.
	GetTrial(ctx context.Context, userUID string) (*models.Trial, error)
	// CreateTrial создает запись атомарно, create-if-absent.
	CreateTrial(ctx context.Context, userUID string, startedAt, endsAt time.Time) (*models.Trial, error)
	// SkipTrial идемпотентно помечает пробный период использованным.
	SkipTrial(ctx context.Context, userUID string, now time.Time) error
	// GetEntitlement возвращает право платного доступа или nil.
	GetEntitlement(ctx context.Context, userUID string) (*models.Entitlement, error)
}

// Service реализует бизнес-логику пробных периодов.
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

// OnboardingStatus возвращает состояние онбординга пользователя.
// Чистое чтение без побочных эффектов.
func (s *Service) OnboardingStatus(ctx context.Context, userUID string) (string, error) {
	now := time.Now().UTC()

	ent, err := retry.Do(ctx, func() (*models.Entitlement, error) {
		return s.repo.GetEntitlement(ctx, userUID)
	})
	if err != nil {
		return "", err
	}
	if ent.ActiveAt(now) {
		return models.OnboardingHasSubscription, nil
	}

	trial, err := retry.Do(ctx, func() (*models.Trial, error) {
		return s.repo.GetTrial(ctx, userUID)
	})
	if err != nil {
		return "", err
	}
	if trial == nil {
		return models.OnboardingTrialEligible, nil
	}
	if trial.ActiveAt(now) {
		return models.OnboardingTrialActive, nil
	}
	return models.OnboardingTrialUsed, nil
}

// Start запускает пробный период. Возвращает apperrors.ErrTrialAlreadyUsed,
// если запись уже существует, независимо от её активности: при конкурентных
// вызовах ровно один создаёт запись.
func (s *Service) Start(ctx context.Context, userUID string) (*models.Trial, error) {
	now := time.Now().UTC()

	trial, err := s.repo.CreateTrial(ctx, userUID, now, now.Add(TrialDuration))
	if err != nil {
		return nil, err
	}

	s.log.Info("trial started",
		slog.String("user_uid", userUID),
		slog.Time("ends_at", trial.EndsAt))
	return trial, nil
}

// Skip помечает пробный период использованным без активации.
// Идемпотентная операция, повторные вызовы безвредны.
func (s *Service) Skip(ctx context.Context, userUID string) error {
	now := time.Now().UTC()

	_, err := retry.Do(ctx, func() (struct{}, error) {
		return struct{}{}, s.repo.SkipTrial(ctx, userUID, now)
	})
	if err != nil {
		return err
	}

	s.log.Info("trial skipped", slog.String("user_uid", userUID))
	return nil
}
