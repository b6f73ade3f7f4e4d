package cancel_hold

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// HoldRepository интерфейс репозитория холдов
type HoldRepository interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.HoldStatus, bookingID *uuid.UUID) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
