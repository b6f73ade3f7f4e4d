package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-StayBookingService/pkg/psqlbuilder"
)

var eventColumns = []string{
	"id",
	"payment_id",
	"event_type",
	"idempotency_key",
	"status",
	"amount",
	"refund_id",
	"provider_ref",
	"error",
	"created_at",
	"updated_at",
}

// InsertEventOrGet добавляет запись в журнал. Если запись с тем же
// (payment_id, event_type, idempotency_key) уже есть, возвращает её и AlreadyExists.
func (r *Repository) InsertEventOrGet(ctx context.Context, e *domain.PaymentEvent) (*domain.PaymentEvent, domain.InsertOutcome, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payment_events").
		Columns("id", "payment_id", "event_type", "idempotency_key", "status", "amount", "refund_id", "provider_ref", "error").
		Values(e.ID, e.PaymentID, e.EventType, e.IdempotencyKey, e.Status, e.Amount, e.RefundID, e.ProviderRef, e.Error).
		Suffix("ON CONFLICT ON CONSTRAINT payment_events_scope_key DO NOTHING RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: InsertEventOrGet - build insert query: %w", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := r.GetEventForUpdate(ctx, e.PaymentID, e.EventType, e.IdempotencyKey)
		if err != nil {
			return nil, 0, err
		}
		return existing, domain.AlreadyExists, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: InsertEventOrGet - execute insert: %w", ErrExecQuery, err)
	}
	return e, domain.Inserted, nil
}

// GetEvent получает запись журнала по ключу идемпотентности
func (r *Repository) GetEvent(ctx context.Context, paymentID uuid.UUID, eventType domain.PaymentEventType, key string) (*domain.PaymentEvent, error) {
	return r.getEvent(ctx, "GetEvent", paymentID, eventType, key, false)
}

// GetEventForUpdate получает запись журнала с блокировкой строки
func (r *Repository) GetEventForUpdate(ctx context.Context, paymentID uuid.UUID, eventType domain.PaymentEventType, key string) (*domain.PaymentEvent, error) {
	return r.getEvent(ctx, "GetEventForUpdate", paymentID, eventType, key, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getEvent(
	ctx context.Context,
	op string,
	paymentID uuid.UUID,
	eventType domain.PaymentEventType,
	key string,
	forUpdate bool,
) (*domain.PaymentEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(eventColumns...).
		From("payment_events").
		Where(squirrel.Eq{"payment_id": paymentID, "event_type": eventType, "idempotency_key": key})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, op, err)
	}

	var (
		e        domain.PaymentEvent
		refundID uuid.NullUUID
		ref      sql.NullString
		errMsg   sql.NullString
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&e.ID,
		&e.PaymentID,
		&e.EventType,
		&e.IdempotencyKey,
		&e.Status,
		&e.Amount,
		&refundID,
		&ref,
		&errMsg,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan event: %w", ErrScanRow, op, err)
	}
	if refundID.Valid {
		id := refundID.UUID
		e.RefundID = &id
	}
	if ref.Valid {
		e.ProviderRef = &ref.String
	}
	if errMsg.Valid {
		e.Error = &errMsg.String
	}
	return &e, nil
}

// RecordEventProviderRef сохраняет ссылку провайдера сразу после вызова провайдера,
// пока событие еще PENDING. По ней повторный вызов завершает операцию без нового обращения к провайдеру.
func (r *Repository) RecordEventProviderRef(ctx context.Context, eventID uuid.UUID, providerRef string) error {
	query, args, err := psqlbuilder.Update("payment_events").
		Set("provider_ref", providerRef).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": eventID, "status": domain.EventPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: RecordEventProviderRef - build update query: %w", ErrBuildQuery, err)
	}
	return r.execOne(ctx, "RecordEventProviderRef", query, args)
}

// CompleteEvent переводит PENDING событие в SUCCEEDED или FAILED
func (r *Repository) CompleteEvent(
	ctx context.Context,
	eventID uuid.UUID,
	status domain.PaymentEventStatus,
	providerRef *string,
	errMsg *string,
) error {
	builder := psqlbuilder.Update("payment_events").
		Set("status", status).
		Set("error", errMsg).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": eventID, "status": domain.EventPending})
	if providerRef != nil {
		builder = builder.Set("provider_ref", *providerRef)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: CompleteEvent - build update query: %w", ErrBuildQuery, err)
	}
	return r.execOne(ctx, "CompleteEvent", query, args)
}

// HasPendingEvent проверяет, есть ли у платежа бронирования незавершенная операция данного типа
func (r *Repository) HasPendingEvent(ctx context.Context, bookingID uuid.UUID, eventType domain.PaymentEventType) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		From("payment_events e").
		Join("payments p ON p.id = e.payment_id").
		Where(squirrel.Eq{"p.booking_id": bookingID, "e.event_type": eventType, "e.status": domain.EventPending}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: HasPendingEvent - build select query: %w", ErrBuildQuery, err)
	}

	var exists bool
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: HasPendingEvent - scan: %w", ErrScanRow, err)
	}
	return exists, nil
}
