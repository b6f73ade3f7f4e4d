package create_booking

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}
	if req.Role != domain.RoleCustomer {
		return ErrForbidden
	}
	if req.HoldID == uuid.Nil {
		return fmt.Errorf("%w: holdID is required", ErrInvalidInput)
	}
	if req.IdempotencyKey != nil {
		key := strings.TrimSpace(*req.IdempotencyKey)
		if key == "" {
			return fmt.Errorf("%w: idempotency key must not be blank", ErrInvalidInput)
		}
		if len(key) > domain.MaxIdempotencyKeyLength {
			return fmt.Errorf("%w: idempotency key is longer than %d", ErrInvalidInput, domain.MaxIdempotencyKeyLength)
		}
		req.IdempotencyKey = &key
	}
	return nil
}
