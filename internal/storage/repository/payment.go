package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/proaccesshq/entitlement-service/internal/apperrors"
	"github.com/proaccesshq/entitlement-service/internal/models"
)

// paymentColumns общий список колонок платежа для выборок.
const paymentColumns = `id, user_uid, plan_id, amount, transaction_id, status,
			  admin_uid, rejection_reason, note, submitted_at, processed_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var planID sql.NullInt64
	var adminUID, reason, note sql.NullString
	var processedAt sql.NullTime
	err := row.Scan(&p.ID, &p.UserUID, &planID, &p.Amount, &p.TransactionID, &p.Status,
		&adminUID, &reason, &note, &p.SubmittedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	if planID.Valid {
		v := int(planID.Int64)
		p.PlanID = &v
	}
	if adminUID.Valid {
		p.AdminUID = &adminUID.String
	}
	if reason.Valid {
		p.RejectionReason = &reason.String
	}
	if note.Valid {
		p.Note = &note.String
	}
	if processedAt.Valid {
		p.ProcessedAt = &processedAt.Time
	}
	return p, nil
}

// CreatePayment вставляет платёж в статусе pending и в той же транзакции
// помечает пробный период пользователя использованным (идемпотентно).
// Предварительные проверки пересекающихся pending-платежей и повторных
// кодов транзакций выполняются ради точных ошибок; уникальные индексы
// остаются авторитетной защитой: гонка между проверкой и вставкой
// завершается нарушением ограничения, которое сопоставляется с той же ошибкой.
func (s *Storage) CreatePayment(ctx context.Context, userUID string, planID int, amount float64,
	transactionID string, note *string, now time.Time) (*models.Payment, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE user_uid = $1 AND status = 'pending')`
	if err := tx.QueryRowContext(ctx, query, userUID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrDuplicatePending)
	}

	query = `SELECT EXISTS (SELECT 1 FROM payments WHERE transaction_id = $1)`
	if err := tx.QueryRowContext(ctx, query, transactionID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrDuplicateTransaction)
	}

	query = `INSERT INTO payments (user_uid, plan_id, amount, transaction_id, status, note, submitted_at)
			 VALUES ($1, $2, $3, $4, 'pending', $5, $6)
			 RETURNING ` + paymentColumns
	p, err := scanPayment(tx.QueryRowContext(ctx, query, userUID, planID, amount, transactionID, note, now))
	if err != nil {
		switch uniqueViolation(err) {
		case constraintTransactionID:
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrDuplicateTransaction)
		case constraintOnePending:
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrDuplicatePending)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query = `INSERT INTO trials (user_uid, started_at, ends_at, active)
			 VALUES ($1, $2, $2, false)
			 ON CONFLICT (user_uid) DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, userUID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// GetPayment возвращает платёж по ID.
func (s *Storage) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPaymentsByUser возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE user_uid = $1
			  ORDER BY submitted_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// ListPayments возвращает платежи по фильтру, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var conditions []string
	var args []any
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.UserUID != nil {
		args = append(args, *filter.UserUID)
		conditions = append(conditions, fmt.Sprintf("user_uid = $%d", len(args)))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY submitted_at DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// ApprovePayment одобряет платёж и выдаёт право платного доступа
// в одной транзакции. Строка платежа блокируется через SELECT ... FOR UPDATE,
// чтобы два конкурентных одобрения не прошли проверку pending одновременно.
//
// Повторное одобрение уже одобренного платежа — идемпотентный no-op
// (already = true, без мутаций). Любой другой нетерминальный переход
// завершается apperrors.ErrInvalidStateTransition.
//
// Срок доступа: now + plan.duration_days; нулевая длительность даёт
// бессрочный доступ (subscription_ends_at IS NULL). Повторное одобрение
// для того же пользователя замещает прежний период (last-approved-wins).
func (s *Storage) ApprovePayment(ctx context.Context, paymentID, adminUID string, now time.Time) (*models.Payment, *time.Time, bool, error) {
	const op = "storage.ApprovePayment"
	select {
	case <-ctx.Done():
		return nil, nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	p, err := scanPayment(tx.QueryRowContext(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, false, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
		}
		return nil, nil, false, fmt.Errorf("%s: %w", op, err)
	}

	switch p.Status {
	case models.PaymentStatusApproved:
		// Идемпотентный повтор: без мутаций, текущий срок читается из права доступа.
		var endsAt sql.NullTime
		query = `SELECT subscription_ends_at FROM entitlements WHERE user_uid = $1`
		if err := tx.QueryRowContext(ctx, query, p.UserUID).Scan(&endsAt); err != nil &&
			!errors.Is(err, sql.ErrNoRows) {
			return nil, nil, false, fmt.Errorf("%s: %w", op, err)
		}
		if endsAt.Valid {
			return p, &endsAt.Time, true, nil
		}
		return p, nil, true, nil
	case models.PaymentStatusPending:
	default:
		return nil, nil, false, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidStateTransition)
	}

	query = `UPDATE payments
			 SET status = 'approved', admin_uid = $2, processed_at = $3
			 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, paymentID, adminUID, now); err != nil {
		return nil, nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var durationDays int
	if p.PlanID != nil {
		query = `SELECT duration_days FROM plans WHERE id = $1`
		if err := tx.QueryRowContext(ctx, query, *p.PlanID).Scan(&durationDays); err != nil &&
			!errors.Is(err, sql.ErrNoRows) {
			return nil, nil, false, fmt.Errorf("%s: %w", op, err)
		}
	}

	var endsAt *time.Time
	if durationDays > 0 {
		v := now.AddDate(0, 0, durationDays)
		endsAt = &v
	}

	query = `INSERT INTO entitlements (user_uid, is_pro, pro_since, subscription_status, subscription_ends_at)
			 VALUES ($1, true, $2, 'active', $3)
			 ON CONFLICT (user_uid) DO UPDATE
			 SET is_pro = true,
			     pro_since = COALESCE(entitlements.pro_since, EXCLUDED.pro_since),
			     subscription_status = 'active',
			     subscription_ends_at = EXCLUDED.subscription_ends_at`
	if _, err := tx.ExecContext(ctx, query, p.UserUID, now, endsAt); err != nil {
		return nil, nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, false, fmt.Errorf("%s: %w", op, err)
	}

	p.Status = models.PaymentStatusApproved
	p.AdminUID = &adminUID
	p.ProcessedAt = &now
	return p, endsAt, false, nil
}

// RejectPayment отклоняет платёж с той же дисциплиной блокировки, что и
// ApprovePayment. Повторное отклонение — идемпотентный no-op; право доступа
// не изменяется ни при каком исходе.
func (s *Storage) RejectPayment(ctx context.Context, paymentID, adminUID, reason string, now time.Time) (*models.Payment, bool, error) {
	const op = "storage.RejectPayment"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	p, err := scanPayment(tx.QueryRowContext(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	switch p.Status {
	case models.PaymentStatusRejected:
		return p, true, nil
	case models.PaymentStatusPending:
	default:
		return nil, false, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidStateTransition)
	}

	query = `UPDATE payments
			 SET status = 'rejected', admin_uid = $2, rejection_reason = $3, processed_at = $4
			 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, paymentID, adminUID, reason, now); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	p.Status = models.PaymentStatusRejected
	p.AdminUID = &adminUID
	p.RejectionReason = &reason
	p.ProcessedAt = &now
	return p, false, nil
}
