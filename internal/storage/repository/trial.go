package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/proaccesshq/entitlement-service/internal/apperrors"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

// GetTrial возвращает запись пробного периода пользователя или nil, если её нет.
func (s *Storage) GetTrial(ctx context.Context, userUID string) (*models.Trial, error) {
	const op = "storage.GetTrial"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, started_at, ends_at, active
			  FROM trials
			  WHERE user_uid = $1`
	t := &models.Trial{}
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&t.UserUID, &t.StartedAt, &t.EndsAt, &t.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// CreateTrial создает запись пробного периода атомарно (create-if-absent).
// Первичный ключ trials(user_uid) гарантирует единственную запись:
// при конкурентных вызовах ровно один получает созданный период,
// остальные — apperrors.ErrTrialAlreadyUsed.
func (s *Storage) CreateTrial(ctx context.Context, userUID string, startedAt, endsAt time.Time) (*models.Trial, error) {
	const op = "storage.CreateTrial"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO trials (user_uid, started_at, ends_at, active)
			  VALUES ($1, $2, $3, true)
			  ON CONFLICT (user_uid) DO NOTHING
			  RETURNING user_uid, started_at, ends_at, active`
	t := &models.Trial{}
	err := s.DB.QueryRowContext(ctx, query, userUID, startedAt, endsAt).
		Scan(&t.UserUID, &t.StartedAt, &t.EndsAt, &t.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrTrialAlreadyUsed)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// SkipTrial помечает пробный период использованным без активации:
// создаёт запись нулевой длительности, если записи ещё нет.
// Операция идемпотентна, существующая запись не изменяется.
func (s *Storage) SkipTrial(ctx context.Context, userUID string, now time.Time) error {
	const op = "storage.SkipTrial"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO trials (user_uid, started_at, ends_at, active)
			  VALUES ($1, $2, $2, false)
			  ON CONFLICT (user_uid) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, userUID, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountActiveTrials возвращает количество действующих пробных периодов.
func (s *Storage) CountActiveTrials(ctx context.Context, now time.Time) (int, error) {
	const op = "storage.CountActiveTrials"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM trials WHERE active = true AND ends_at > $1`
	if err := s.DB.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
