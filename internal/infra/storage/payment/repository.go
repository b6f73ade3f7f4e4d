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

var paymentColumns = []string{
	"id",
	"booking_id",
	"provider",
	"status",
	"amount",
	"currency",
	"provider_ref",
	"created_at",
	"updated_at",
}

// Repository репозиторий платежей
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория платежей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// InsertOrGet лениво создает платеж бронирования. Если платеж уже есть, возвращает его.
func (r *Repository) InsertOrGet(ctx context.Context, p *domain.Payment) (*domain.Payment, domain.InsertOutcome, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payments").
		Columns("id", "booking_id", "provider", "status", "amount", "currency", "provider_ref").
		Values(p.ID, p.BookingID, p.Provider, p.Status, p.Amount, p.Currency, p.ProviderRef).
		Suffix("ON CONFLICT ON CONSTRAINT payments_booking_id_key DO NOTHING RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: InsertOrGet - build insert query: %w", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := r.GetByBookingIDForUpdate(ctx, p.BookingID)
		if err != nil {
			return nil, 0, err
		}
		return existing, domain.AlreadyExists, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: InsertOrGet - execute insert: %w", ErrExecQuery, err)
	}
	return p, domain.Inserted, nil
}

// GetByBookingID получает платеж бронирования
func (r *Repository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	return r.getOne(ctx, "GetByBookingID", squirrel.Eq{"booking_id": bookingID}, false)
}

// GetByBookingIDForUpdate получает платеж бронирования с блокировкой строки
func (r *Repository) GetByBookingIDForUpdate(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	return r.getOne(ctx, "GetByBookingIDForUpdate", squirrel.Eq{"booking_id": bookingID}, dbmetrics.IsInTransaction(ctx))
}

// GetByIDForUpdate получает платеж по ID с блокировкой строки
func (r *Repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return r.getOne(ctx, "GetByIDForUpdate", squirrel.Eq{"id": id}, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Sqlizer, forUpdate bool) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(paymentColumns...).From("payments").Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, op, err)
	}

	var (
		p   domain.Payment
		ref sql.NullString
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.BookingID,
		&p.Provider,
		&p.Status,
		&p.Amount,
		&p.Currency,
		&ref,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan payment: %w", ErrScanRow, op, err)
	}
	if ref.Valid {
		p.ProviderRef = &ref.String
	}
	return &p, nil
}

// UpdateStatus переводит платеж из from в to. providerRef обновляется, если передан.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus, providerRef *string) error {
	builder := psqlbuilder.Update("payments").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from})
	if providerRef != nil {
		builder = builder.Set("provider_ref", *providerRef)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %w", ErrBuildQuery, err)
	}
	return r.execOne(ctx, "UpdateStatus", query, args)
}

func (r *Repository) execOne(ctx context.Context, op, query string, args []interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - rows affected: %w", ErrExecQuery, op, err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}
