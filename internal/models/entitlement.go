package models

import "time"

// Статусы оплаченной подписки пользователя.
const (
	SubscriptionStatusNone      = "none"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

// Entitlement представляет право платного доступа пользователя.
// Запись создаётся лениво: при первом действии с пробным периодом
// или при первом одобренном платеже.
type Entitlement struct {
	UserUID            string     // Идентификатор пользователя
	IsPro              bool       // Признак платного доступа
	ProSince           *time.Time // Время первого одобренного платежа
	SubscriptionStatus string     // none, active, expired или cancelled
	SubscriptionEndsAt *time.Time // Окончание оплаченного периода, nil — бессрочно
}

// ActiveAt сообщает, действует ли оплаченный период в момент now.
// Срок истечения вычисляется при чтении, фоновых обходов нет.
func (e *Entitlement) ActiveAt(now time.Time) bool {
	if e == nil || !e.IsPro || e.SubscriptionStatus != SubscriptionStatusActive {
		return false
	}
	if e.SubscriptionEndsAt == nil {
		return true
	}
	return now.Before(*e.SubscriptionEndsAt)
}

// Trial представляет единственный пробный период пользователя.
// Запись создаётся не более одного раза; использованный пробный период
// (начатый или явно пропущенный) не возобновляется.
type Trial struct {
	UserUID   string    `json:"user_uid"`   // Идентификатор пользователя
	StartedAt time.Time `json:"started_at"` // Начало пробного периода
	EndsAt    time.Time `json:"ends_at"`    // Окончание пробного периода
	Active    bool      `json:"active"`     // false — период пропущен или завершён
}

// ActiveAt сообщает, действует ли пробный период в момент now.
func (t *Trial) ActiveAt(now time.Time) bool {
	return t != nil && t.Active && now.Before(t.EndsAt)
}

// Состояния онбординга пользователя.
const (
	OnboardingHasSubscription = "has_active_subscription"
	OnboardingTrialActive     = "trial_active"
	OnboardingTrialUsed       = "trial_expired_or_skipped"
	OnboardingTrialEligible   = "eligible_for_trial"
)

// ProStatus данные о платном доступе, возвращаемые пользователю.
type ProStatus struct {
	IsPro              bool       `json:"is_pro"`
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
}
