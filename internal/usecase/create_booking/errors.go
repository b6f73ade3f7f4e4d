package create_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("create_booking: %w", domain.ErrInvalidInput)

	// ErrForbidden бронирование может создать только клиент
	ErrForbidden = fmt.Errorf("create_booking: only customers can book: %w", domain.ErrForbidden)

	// ErrHoldNotFound возвращается, когда холд не найден
	ErrHoldNotFound = fmt.Errorf("create_booking: hold not found: %w", domain.ErrNotFound)

	// ErrNotHoldOwner холд создан другим пользователем
	ErrNotHoldOwner = fmt.Errorf("create_booking: hold belongs to another user: %w", domain.ErrForbidden)

	// ErrHoldExpired TTL холда истек до конвертации
	ErrHoldExpired = fmt.Errorf("create_booking: %w", domain.ErrHoldExpired)

	// ErrPropertyNotFound объект холда больше не существует
	ErrPropertyNotFound = fmt.Errorf("create_booking: property not found: %w", domain.ErrNotFound)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
