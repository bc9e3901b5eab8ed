package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/proaccesshq/entitlement-service/internal/models"
)

// GetEntitlement возвращает право платного доступа пользователя
// или nil, если запись ещё не создавалась.
func (s *Storage) GetEntitlement(ctx context.Context, userUID string) (*models.Entitlement, error) {
	const op = "storage.GetEntitlement"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, is_pro, pro_since, subscription_status, subscription_ends_at
			  FROM entitlements
			  WHERE user_uid = $1`
	e := &models.Entitlement{}
	var proSince, endsAt sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, userUID).
		Scan(&e.UserUID, &e.IsPro, &proSince, &e.SubscriptionStatus, &endsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if proSince.Valid {
		e.ProSince = &proSince.Time
	}
	if endsAt.Valid {
		e.SubscriptionEndsAt = &endsAt.Time
	}
	return e, nil
}

// CountProUsers возвращает количество пользователей с действующим платным доступом.
func (s *Storage) CountProUsers(ctx context.Context, now time.Time) (int, error) {
	const op = "storage.CountProUsers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM entitlements
			  WHERE is_pro = true
			    AND subscription_status = 'active'
			    AND (subscription_ends_at IS NULL OR subscription_ends_at > $1)`
	if err := s.DB.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
