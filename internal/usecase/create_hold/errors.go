package create_hold

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("create_hold: %w", domain.ErrInvalidInput)

	// ErrForbidden холд может создать только клиент
	ErrForbidden = fmt.Errorf("create_hold: only customers can hold dates: %w", domain.ErrForbidden)

	// ErrPropertyNotFound возвращается, когда объект размещения не найден
	ErrPropertyNotFound = fmt.Errorf("create_hold: property not found: %w", domain.ErrNotFound)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_hold: internal error")
)
