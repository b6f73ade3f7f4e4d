package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// PolicyRepository интерфейс репозитория версий политик отмены
type PolicyRepository interface {
	GetEffective(ctx context.Context, propertyID uuid.UUID) (*domain.CancellationPolicy, error)
	CreateVersion(ctx context.Context, p *domain.CancellationPolicy) (*domain.CancellationPolicy, error)
}

// PropertyRepository интерфейс чтения объектов размещения
type PropertyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
}

// TxManager интерфейс для управления транзакциями
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
