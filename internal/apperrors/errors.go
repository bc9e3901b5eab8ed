// Package apperrors определяет ошибки бизнес-уровня, общие для хранилища,
// сервисов и HTTP-обработчиков. Сервисы оборачивают их через fmt.Errorf("%s: %w"),
// обработчики сопоставляют с HTTP-статусами через errors.Is.
package apperrors

import "errors"

var (
	// ErrValidation некорректные или отсутствующие входные данные.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound сущность не найдена.
	ErrNotFound = errors.New("not found")
	// ErrPlanNotFound тарифный план не найден или неактивен.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrAmountMismatch сумма платежа не совпадает с ценой плана.
	ErrAmountMismatch = errors.New("amount does not match plan price")
	// ErrAlreadyEntitled у пользователя уже есть платный доступ.
	ErrAlreadyEntitled = errors.New("user already has active access")
	// ErrDuplicatePending у пользователя уже есть платёж на проверке.
	ErrDuplicatePending = errors.New("pending payment already exists")
	// ErrDuplicateTransaction код транзакции уже использован.
	ErrDuplicateTransaction = errors.New("transaction id already used")
	// ErrInvalidStateTransition платёж находится в терминальном состоянии.
	ErrInvalidStateTransition = errors.New("invalid payment state transition")
	// ErrTrialAlreadyUsed пробный период уже использован.
	ErrTrialAlreadyUsed = errors.New("trial already used")
	// ErrUnauthenticated не удалось установить личность пользователя.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden недостаточно прав для операции.
	ErrForbidden = errors.New("forbidden")
)

// IsConflict сообщает, относится ли ошибка к семейству логических конфликтов.
// Конфликты никогда не ретраятся и возвращаются вызывающему как есть.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyEntitled) ||
		errors.Is(err, ErrDuplicatePending) ||
		errors.Is(err, ErrDuplicateTransaction) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrTrialAlreadyUsed)
}

// IsPermanent сообщает, что ошибка вызвана самим запросом
// и повтор с теми же данными бессмыслен.
func IsPermanent(err error) bool {
	return IsConflict(err) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrAmountMismatch)
}
