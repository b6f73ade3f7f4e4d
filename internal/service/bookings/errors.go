package bookings

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("bookings service: booking not found: %w", domain.ErrNotFound)

	// ErrPropertyNotFound возвращается, когда объект размещения не найден
	ErrPropertyNotFound = fmt.Errorf("bookings service: property not found: %w", domain.ErrNotFound)

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = fmt.Errorf("bookings service: access denied: %w", domain.ErrForbidden)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("bookings service: %w", domain.ErrInvalidInput)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings service: internal error")
)
