package cancel_booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, from domain.BookingStatus, cancelledAt time.Time, cancelledBy *int64, reason string) error
}

// PropertyRepository интерфейс чтения объектов размещения
type PropertyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
}

// LockRepository интерфейс advisory-блокировок
type LockRepository interface {
	AcquirePropertyLock(ctx context.Context, propertyID uuid.UUID) error
}

// PolicyProvider возвращает действующую политику отмены объекта
type PolicyProvider interface {
	Effective(ctx context.Context, propertyID uuid.UUID) (*domain.CancellationPolicy, error)
}

// CancellationRepository интерфейс журнала решений об отмене
type CancellationRepository interface {
	InsertOrGet(ctx context.Context, c *domain.BookingCancellation) (*domain.BookingCancellation, domain.InsertOutcome, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.BookingCancellation, error)
}

// PaymentRepository интерфейс чтения платежа бронирования
type PaymentRepository interface {
	GetByBookingIDForUpdate(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error)
	HasPendingEvent(ctx context.Context, bookingID uuid.UUID, eventType domain.PaymentEventType) (bool, error)
}

// RefundRepository интерфейс репозитория возвратов
type RefundRepository interface {
	Create(ctx context.Context, rf *domain.Refund) (*domain.Refund, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
}

// OutboxRepository интерфейс записи исходящих событий
type OutboxRepository interface {
	Enqueue(ctx context.Context, events ...*domain.OutboxEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Metrics счетчики результатов
type Metrics interface {
	IncCancellation(tier string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
