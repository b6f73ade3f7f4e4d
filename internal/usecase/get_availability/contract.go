package get_availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// PropertyRepository интерфейс чтения объектов размещения
type PropertyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
}

// CalendarRepository интерфейс чтения календаря
type CalendarRepository interface {
	GetDays(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*domain.CalendarDay, error)
}

// BookingRepository интерфейс чтения бронирований
type BookingRepository interface {
	FindOverlapping(ctx context.Context, propertyID uuid.UUID, rng domain.DateRange) ([]*domain.Booking, error)
}

// HoldRepository интерфейс чтения холдов
type HoldRepository interface {
	FindActiveOverlapping(ctx context.Context, propertyID uuid.UUID, rng domain.DateRange, now time.Time, excludeID *uuid.UUID) ([]*domain.Hold, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
