package get_availability

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// validateRequest проверяет окно запроса и возвращает его в виде диапазона ночей
func validateRequest(req *Request) (domain.DateRange, error) {
	if req.PropertyID == uuid.Nil {
		return domain.DateRange{}, fmt.Errorf("%w: propertyID is required", ErrInvalidInput)
	}
	if req.From.IsZero() || req.To.IsZero() {
		return domain.DateRange{}, fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}

	rng := domain.NewDateRange(req.From, req.To)
	if !rng.Valid() {
		return domain.DateRange{}, fmt.Errorf("%w: from must be before to", ErrInvalidInput)
	}
	if rng.Nights() > MaxWindowDays {
		return domain.DateRange{}, fmt.Errorf("%w: window must not exceed %d days", ErrInvalidInput, MaxWindowDays)
	}
	return rng, nil
}
