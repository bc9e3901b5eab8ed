package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/proaccesshq/entitlement-service/internal/models"
)

// GetDashboardStats собирает агрегаты по платежам и правам доступа.
// Платёж учитывается ровно в одном статусе; сумма считается только по
// одобренным. Отсутствующие планы (FILTER по пустому множеству) дают нули.
func (s *Storage) GetDashboardStats(ctx context.Context, now time.Time) (*models.DashboardStats, error) {
	const op = "storage.GetDashboardStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	stats := &models.DashboardStats{}
	query := `SELECT
			      COUNT(*) FILTER (WHERE p.status = 'pending'),
			      COUNT(*) FILTER (WHERE p.status = 'approved'),
			      COUNT(*) FILTER (WHERE p.status = 'rejected'),
			      COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'approved'), 0)
			  FROM payments p
			  LEFT JOIN plans pl ON pl.id = p.plan_id`
	err := s.DB.QueryRowContext(ctx, query).Scan(
		&stats.PendingCount, &stats.ApprovedCount, &stats.RejectedCount, &stats.ApprovedAmount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats.ProUsers, err = s.CountProUsers(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.ActiveTrials, err = s.CountActiveTrials(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}
