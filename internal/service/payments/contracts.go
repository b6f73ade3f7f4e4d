package payments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/integrations/paymentprovider"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error
	Cancel(ctx context.Context, id uuid.UUID, from domain.BookingStatus, cancelledAt time.Time, cancelledBy *int64, reason string) error
}

// PaymentRepository интерфейс репозитория платежей и журнала платежных операций
type PaymentRepository interface {
	InsertOrGet(ctx context.Context, p *domain.Payment) (*domain.Payment, domain.InsertOutcome, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error)
	GetByBookingIDForUpdate(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus, providerRef *string) error

	InsertEventOrGet(ctx context.Context, e *domain.PaymentEvent) (*domain.PaymentEvent, domain.InsertOutcome, error)
	GetEventForUpdate(ctx context.Context, paymentID uuid.UUID, eventType domain.PaymentEventType, key string) (*domain.PaymentEvent, error)
	RecordEventProviderRef(ctx context.Context, eventID uuid.UUID, providerRef string) error
	CompleteEvent(ctx context.Context, eventID uuid.UUID, status domain.PaymentEventStatus, providerRef *string, errMsg *string) error
	HasPendingEvent(ctx context.Context, bookingID uuid.UUID, eventType domain.PaymentEventType) (bool, error)
}

// RefundRepository интерфейс репозитория возвратов
type RefundRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	Update(ctx context.Context, rf *domain.Refund, from domain.RefundStatus) error
}

// OutboxRepository интерфейс записи исходящих событий
type OutboxRepository interface {
	Enqueue(ctx context.Context, events ...*domain.OutboxEvent) error
}

// ProviderRegistry реестр платежных провайдеров
type ProviderRegistry interface {
	Get(name string) (paymentprovider.Provider, error)
}

// TxManager интерфейс для управления транзакциями
type TxManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Metrics счетчики платежных операций
type Metrics interface {
	IncPayment(operation, result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
