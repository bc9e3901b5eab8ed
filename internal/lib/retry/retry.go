// Package retry оборачивает обращения к хранилищу ограниченным числом
// повторов при транзиентных сбоях соединения. Логические ошибки
// (конфликты, валидация, not found) помечаются как постоянные
// и никогда не повторяются.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/proaccesshq/entitlement-service/internal/apperrors"
)

const (
	maxRetries = 2
	interval   = 150 * time.Millisecond
)

// Do выполняет fn с повторами только для транзиентных ошибок.
// Повторять допустимо лишь чтения и идемпотентные записи.
func Do[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	operation := func() (T, error) {
		v, err := fn()
		if err != nil && apperrors.IsPermanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), maxRetries), ctx)
	return backoff.RetryWithData(operation, b)
}
