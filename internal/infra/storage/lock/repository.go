package lock

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/pkg/dbmetrics"
)

// propertyNamespace отделяет ключи объектов от прочих advisory-блокировок
const propertyNamespace = "property:"

// Repository advisory-блокировки PostgreSQL
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория блокировок
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// PropertyKey детерминированный 64-битный ключ блокировки объекта
func PropertyKey(propertyID uuid.UUID) int64 {
	return int64(xxhash.Sum64String(propertyNamespace + propertyID.String()))
}

// AcquirePropertyLock берет эксклюзивную блокировку объекта до конца текущей транзакции.
// Все попытки создать холд или бронирование по одному объекту выстраиваются в очередь.
func (r *Repository) AcquirePropertyLock(ctx context.Context, propertyID uuid.UUID) error {
	if !dbmetrics.IsInTransaction(ctx) {
		return ErrNotInTransaction
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, PropertyKey(propertyID)); err != nil {
		return fmt.Errorf("%w: AcquirePropertyLock - property=%s: %w", ErrExecQuery, propertyID, err)
	}
	return nil
}
