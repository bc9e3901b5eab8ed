package models

// Plan представляет тарифный план.
// DurationDays = 0 означает бессрочный платный доступ после одобрения платежа.
type Plan struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
	IsActive     bool    `json:"is_active"`
}
