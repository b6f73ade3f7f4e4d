package payments

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("payments service: %w", domain.ErrInvalidInput)

	// ErrInvalidAmount сумма возврата вне диапазона (0, рассчитанная сумма]
	ErrInvalidAmount = fmt.Errorf("payments service: invalid refund amount: %w", domain.ErrInvalidInput)

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("payments service: booking not found: %w", domain.ErrNotFound)

	// ErrRefundNotFound возвращается, когда возврат не найден
	ErrRefundNotFound = fmt.Errorf("payments service: refund not found: %w", domain.ErrNotFound)

	// ErrUnknownProvider запрошен незарегистрированный провайдер
	ErrUnknownProvider = fmt.Errorf("payments service: unknown provider: %w", domain.ErrInvalidInput)

	// ErrAccessDenied возвращается, когда у пользователя нет прав на операцию
	ErrAccessDenied = fmt.Errorf("payments service: access denied: %w", domain.ErrForbidden)

	// ErrAdminOnly возвраты проводит только администратор
	ErrAdminOnly = fmt.Errorf("payments service: refunds are processed by admins only: %w", domain.ErrForbidden)

	// ErrPaymentWindowElapsed окно оплаты истекло, бронирование отменено
	ErrPaymentWindowElapsed = fmt.Errorf("payments service: %w", domain.ErrPaymentWindowElapsed)

	// ErrProviderFailed провайдер отклонил операцию или недоступен
	ErrProviderFailed = fmt.Errorf("payments service: provider failed: %w", domain.ErrProvider)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("payments service: internal error")
)
