// Package models содержит доменные структуры сервиса платного доступа:
// платежи, пробные периоды, права доступа и тарифные планы,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Статусы платежа. Переходы возможны только из pending,
// approved и rejected — терминальные состояния.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// Payment представляет платёж, отправленный пользователем на ручную проверку.
// TransactionID — внешний код транзакции, уникален по всей таблице
// независимо от статуса платежа.
type Payment struct {
	ID              string     `json:"id"`                         // UUID платежа
	UserUID         string     `json:"user_uid"`                   // Идентификатор пользователя
	PlanID          *int       `json:"plan_id,omitempty"`          // Тарифный план (может отсутствовать у старых записей)
	Amount          float64    `json:"amount"`                     // Сумма платежа
	TransactionID   string     `json:"transaction_id"`             // Внешний код транзакции
	Status          string     `json:"status"`                     // pending, approved или rejected
	AdminUID        *string    `json:"admin_uid,omitempty"`        // Администратор, принявший решение
	RejectionReason *string    `json:"rejection_reason,omitempty"` // Причина отклонения
	Note            *string    `json:"note,omitempty"`             // Комментарий пользователя
	SubmittedAt     time.Time  `json:"submitted_at"`               // Время отправки платежа
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`     // Время решения администратора
}

// DummyPayment используется для приёма данных платежа из JSON-запроса.
type DummyPayment struct {
	PlanID        int     `json:"plan_id" validate:"required,gt=0"`        // Тарифный план
	Amount        float64 `json:"amount" validate:"required,gt=0"`         // Сумма, должна точно совпадать с ценой плана
	TransactionID string  `json:"transaction_id" validate:"required"`      // Внешний код транзакции
	Note          string  `json:"note" validate:"omitempty,max=500"`       // Комментарий (опционально)
}

// PaymentFilter задаёт параметры выборки платежей для административного списка.
type PaymentFilter struct {
	Status  *string // Фильтр по статусу (nil — все статусы)
	UserUID *string // Фильтр по пользователю
	Limit   int
	Offset  int
}

// DashboardStats агрегированная статистика по платежам и правам доступа
// для административной панели.
type DashboardStats struct {
	PendingCount   int     `json:"pending_count"`
	ApprovedCount  int     `json:"approved_count"`
	RejectedCount  int     `json:"rejected_count"`
	ApprovedAmount float64 `json:"approved_amount"`
	ProUsers       int     `json:"pro_users"`
	ActiveTrials   int     `json:"active_trials"`
}
