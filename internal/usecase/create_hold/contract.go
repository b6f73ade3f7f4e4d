package create_hold

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

// HoldRepository интерфейс репозитория холдов
type HoldRepository interface {
	Create(ctx context.Context, h *domain.Hold) (*domain.Hold, error)
}

// LockRepository интерфейс advisory-блокировок
type LockRepository interface {
	AcquirePropertyLock(ctx context.Context, propertyID uuid.UUID) error
}

// AvailabilityChecker проверка, что диапазон свободен
type AvailabilityChecker interface {
	Check(ctx context.Context, property *domain.Property, rng domain.DateRange, now time.Time, excludeHoldID *uuid.UUID) error
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
	IncHold(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
