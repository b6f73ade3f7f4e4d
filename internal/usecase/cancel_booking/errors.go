package cancel_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("cancel_booking: %w", domain.ErrInvalidInput)

	// ErrReasonNotAllowed причина недоступна для роли пользователя
	ErrReasonNotAllowed = fmt.Errorf("cancel_booking: reason is not allowed for this role: %w", domain.ErrInvalidInput)

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("cancel_booking: booking not found: %w", domain.ErrNotFound)

	// ErrAccessDenied пользователь не может отменить это бронирование
	ErrAccessDenied = fmt.Errorf("cancel_booking: access denied: %w", domain.ErrForbidden)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_booking: internal error")
)
