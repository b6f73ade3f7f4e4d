package cancel_hold

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("cancel_hold: %w", domain.ErrInvalidInput)

	// ErrHoldNotFound возвращается, когда холд не найден
	ErrHoldNotFound = fmt.Errorf("cancel_hold: hold not found: %w", domain.ErrNotFound)

	// ErrNotOwner холд принадлежит другому пользователю
	ErrNotOwner = fmt.Errorf("cancel_hold: hold belongs to another user: %w", domain.ErrForbidden)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_hold: internal error")
)
