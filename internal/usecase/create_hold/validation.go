package create_hold

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// validateRequest валидирует входные данные запроса и возвращает нормализованный диапазон и TTL
func validateRequest(req *Request, settings Settings, now time.Time) (domain.DateRange, int, error) {
	if req.UserID <= 0 {
		return domain.DateRange{}, 0, fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}
	if req.PropertyID == uuid.Nil {
		return domain.DateRange{}, 0, fmt.Errorf("%w: propertyID is required", ErrInvalidInput)
	}
	if req.Role != domain.RoleCustomer {
		return domain.DateRange{}, 0, ErrForbidden
	}

	ttl := req.TTLMinutes
	if ttl == 0 {
		ttl = settings.DefaultTTLMinutes
	}
	if ttl < settings.MinTTLMinutes || ttl > settings.MaxTTLMinutes {
		return domain.DateRange{}, 0, fmt.Errorf("%w: ttlMinutes must be within [%d,%d], got %d",
			ErrInvalidInput, settings.MinTTLMinutes, settings.MaxTTLMinutes, ttl)
	}

	rng, err := validateRange(req.CheckIn, req.CheckOut, settings.MaxNights, now)
	if err != nil {
		return domain.DateRange{}, 0, err
	}
	return rng, ttl, nil
}

// validateRange проверяет checkIn < checkOut, что заезд не в прошлом и что проживание не длиннее maxNights
func validateRange(checkIn, checkOut time.Time, maxNights int, now time.Time) (domain.DateRange, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return domain.DateRange{}, fmt.Errorf("%w: checkIn and checkOut are required", domain.ErrInvalidRange)
	}

	rng := domain.NewDateRange(checkIn, checkOut)
	if !rng.Valid() {
		return domain.DateRange{}, fmt.Errorf("%w: checkIn %s must be before checkOut %s",
			domain.ErrInvalidRange, rng.CheckIn.Format(domain.DateFormat), rng.CheckOut.Format(domain.DateFormat))
	}
	if rng.CheckIn.Before(domain.TruncateDay(now)) {
		return domain.DateRange{}, fmt.Errorf("%w: checkIn %s is in the past",
			domain.ErrInvalidRange, rng.CheckIn.Format(domain.DateFormat))
	}
	if maxNights > 0 && rng.Nights() > maxNights {
		return domain.DateRange{}, fmt.Errorf("%w: stay of %d nights exceeds %d",
			domain.ErrInvalidRange, rng.Nights(), maxNights)
	}
	return rng, nil
}
