package hold

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-StayBookingService/pkg/psqlbuilder"
)

var holdColumns = []string{
	"id",
	"property_id",
	"check_in",
	"check_out",
	"status",
	"expires_at",
	"created_by_id",
	"booking_id",
	"created_at",
	"updated_at",
}

// Repository репозиторий холдов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория холдов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новый холд
func (r *Repository) Create(ctx context.Context, h *domain.Hold) (*domain.Hold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("holds").
		Columns("id", "property_id", "check_in", "check_out", "status", "expires_at", "created_by_id").
		Values(
			h.ID,
			h.PropertyID,
			h.CheckIn.Format(domain.DateFormat),
			h.CheckOut.Format(domain.DateFormat),
			h.Status,
			h.ExpiresAt,
			h.CreatedByID,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	return h, nil
}

// GetByID получает холд по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	return r.getOne(ctx, "GetByID", id, false)
}

// GetByIDForUpdate получает холд по ID с блокировкой строки (внутри транзакции)
func (r *Repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	return r.getOne(ctx, "GetByIDForUpdate", id, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getOne(ctx context.Context, op string, id uuid.UUID, forUpdate bool) (*domain.Hold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(holdColumns...).
		From("holds").
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, op, err)
	}

	h, err := scanHold(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan hold: %w", ErrScanRow, op, err)
	}
	return h, nil
}

// FindActiveOverlapping возвращает ACTIVE холды объекта, которые еще не истекли к now
// и пересекают диапазон. excludeID исключает холд, который сейчас конвертируется.
func (r *Repository) FindActiveOverlapping(
	ctx context.Context,
	propertyID uuid.UUID,
	rng domain.DateRange,
	now time.Time,
	excludeID *uuid.UUID,
) ([]*domain.Hold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(holdColumns...).
		From("holds").
		Where(squirrel.Eq{"property_id": propertyID, "status": domain.HoldActive}).
		Where(squirrel.Gt{"expires_at": now}).
		Where(squirrel.Lt{"check_in": rng.CheckOut.Format(domain.DateFormat)}).
		Where(squirrel.Gt{"check_out": rng.CheckIn.Format(domain.DateFormat)}).
		OrderBy("check_in ASC")
	if excludeID != nil {
		builder = builder.Where(squirrel.NotEq{"id": *excludeID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindActiveOverlapping - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindActiveOverlapping - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	holds := make([]*domain.Hold, 0)
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: FindActiveOverlapping - scan hold: %w", ErrScanRow, err)
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindActiveOverlapping - iterate rows: %w", ErrScanRow, err)
	}
	return holds, nil
}

// UpdateStatus переводит холд из статуса from в to. bookingID заполняется при конвертации.
// Если статус уже не from, возвращает ErrStatusConflict.
func (r *Repository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.HoldStatus,
	bookingID *uuid.UUID,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update("holds").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from})
	if bookingID != nil {
		builder = builder.Set("booking_id", *bookingID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %w", ErrBuildQuery, err)
	}

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %w", ErrExecQuery, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - rows affected: %w", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// ExpireStale переводит в EXPIRED все ACTIVE холды с истекшим TTL
func (r *Repository) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("holds").
		Set("status", domain.HoldExpired).
		Set("updated_at", now).
		Where(squirrel.Eq{"status": domain.HoldActive}).
		Where(squirrel.LtOrEq{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ExpireStale - build update query: %w", ErrBuildQuery, err)
	}

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ExpireStale - execute update: %w", ErrExecQuery, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ExpireStale - rows affected: %w", ErrExecQuery, err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHold(row rowScanner) (*domain.Hold, error) {
	var (
		h         domain.Hold
		bookingID uuid.NullUUID
	)
	if err := row.Scan(
		&h.ID,
		&h.PropertyID,
		&h.CheckIn,
		&h.CheckOut,
		&h.Status,
		&h.ExpiresAt,
		&h.CreatedByID,
		&bookingID,
		&h.CreatedAt,
		&h.UpdatedAt,
	); err != nil {
		return nil, err
	}
	h.CheckIn = domain.TruncateDay(h.CheckIn)
	h.CheckOut = domain.TruncateDay(h.CheckOut)
	if bookingID.Valid {
		id := bookingID.UUID
		h.BookingID = &id
	}
	return &h, nil
}
