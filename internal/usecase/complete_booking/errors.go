package complete_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("complete_booking: %w", domain.ErrInvalidInput)

	// ErrAdminOnly завершать проживание может только администратор
	ErrAdminOnly = fmt.Errorf("complete_booking: admin only: %w", domain.ErrForbidden)

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("complete_booking: booking not found: %w", domain.ErrNotFound)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("complete_booking: internal error")
)
