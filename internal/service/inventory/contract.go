package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// CalendarRepository интерфейс чтения календаря
type CalendarRepository interface {
	GetDays(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*domain.CalendarDay, error)
}

// BookingRepository интерфейс поиска пересекающихся бронирований
type BookingRepository interface {
	FindOverlapping(ctx context.Context, propertyID uuid.UUID, rng domain.DateRange) ([]*domain.Booking, error)
}

// HoldRepository интерфейс поиска пересекающихся холдов
type HoldRepository interface {
	FindActiveOverlapping(ctx context.Context, propertyID uuid.UUID, rng domain.DateRange, now time.Time, excludeID *uuid.UUID) ([]*domain.Hold, error)
}
