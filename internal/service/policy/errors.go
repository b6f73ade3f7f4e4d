package policy

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

var (
	// ErrPropertyNotFound возвращается, когда объект размещения не найден
	ErrPropertyNotFound = fmt.Errorf("policy service: property not found: %w", domain.ErrNotFound)

	// ErrAccessDenied возвращается, когда у пользователя нет прав на изменение политики
	ErrAccessDenied = fmt.Errorf("policy service: access denied: %w", domain.ErrForbidden)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("policy service: internal error")
)
