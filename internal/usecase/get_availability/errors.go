package get_availability

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("get_availability: %w", domain.ErrInvalidInput)

	// ErrPropertyNotFound возвращается, когда объект размещения не найден
	ErrPropertyNotFound = fmt.Errorf("get_availability: property not found: %w", domain.ErrNotFound)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_availability: internal error")
)
