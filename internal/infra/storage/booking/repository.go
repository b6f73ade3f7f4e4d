package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-StayBookingService/pkg/pgerr"
	"github.com/m04kA/SMC-StayBookingService/pkg/psqlbuilder"
)

const (
	constraintIdempotencyKey = "bookings_customer_idempotency_key"
	constraintHoldID         = "bookings_hold_id_key"
)

var bookingColumns = []string{
	"id",
	"customer_id",
	"property_id",
	"hold_id",
	"check_in",
	"check_out",
	"nights",
	"nightly_rate",
	"cleaning_fee",
	"service_fee",
	"total_amount",
	"currency",
	"status",
	"idempotency_key",
	"expires_at",
	"cancelled_at",
	"cancelled_by",
	"cancellation_reason",
	"created_at",
	"updated_at",
}

// expirePendingSQL отменяет просроченные неоплаченные бронирования пачкой.
// Бронирования с незавершенным списанием пропускаются до его окончания.
var expirePendingSQL = `
UPDATE bookings
   SET status = $1, cancelled_at = $2, cancellation_reason = $3, updated_at = $2
 WHERE id IN (
       SELECT b.id
         FROM bookings b
        WHERE b.status = $4
          AND b.expires_at <= $2
          AND NOT EXISTS (
                SELECT 1
                  FROM payments p
                  JOIN payment_events e ON e.payment_id = p.id
                 WHERE p.booking_id = b.id
                   AND e.event_type = $5
                   AND e.status = $6)
        ORDER BY b.expires_at
        LIMIT $7
        FOR UPDATE SKIP LOCKED)
RETURNING ` + strings.Join(bookingColumns, ", ")

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// InsertOrGet сохраняет бронирование. Если у клиента уже есть бронирование с тем же ключом
// идемпотентности, возвращает существующее и AlreadyExists вместо ошибки.
//
// Пересечение с другим активным бронированием (EXCLUDE) возвращается как ErrOverlap,
// повторная конвертация того же холда как ErrHoldAlreadyConverted.
func (r *Repository) InsertOrGet(ctx context.Context, b *domain.Booking) (*domain.Booking, domain.InsertOutcome, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"id",
			"customer_id",
			"property_id",
			"hold_id",
			"check_in",
			"check_out",
			"nights",
			"nightly_rate",
			"cleaning_fee",
			"service_fee",
			"total_amount",
			"currency",
			"status",
			"idempotency_key",
			"expires_at",
		).
		Values(
			b.ID,
			b.CustomerID,
			b.PropertyID,
			b.HoldID,
			b.CheckIn.Format(domain.DateFormat),
			b.CheckOut.Format(domain.DateFormat),
			b.Nights,
			b.NightlyRate,
			b.CleaningFee,
			b.ServiceFee,
			b.TotalAmount,
			b.Currency,
			b.Status,
			b.IdempotencyKey,
			b.ExpiresAt,
		).
		Suffix("ON CONFLICT ON CONSTRAINT " + constraintIdempotencyKey + " DO NOTHING RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: InsertOrGet - build insert query: %w", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&b.CreatedAt, &b.UpdatedAt)
	switch {
	case err == nil:
		return b, domain.Inserted, nil
	case errors.Is(err, sql.ErrNoRows):
		// конфликт по ключу идемпотентности: запрос уже выполнен другим вызовом
		if b.IdempotencyKey == nil {
			return nil, 0, fmt.Errorf("%w: InsertOrGet - conflict without idempotency key", ErrExecQuery)
		}
		existing, err := r.GetByIdempotencyKey(ctx, b.CustomerID, *b.IdempotencyKey)
		if err != nil {
			return nil, 0, err
		}
		return existing, domain.AlreadyExists, nil
	case pgerr.IsExclusionViolation(err):
		return nil, 0, fmt.Errorf("%w: InsertOrGet: %w", ErrOverlap, err)
	case pgerr.IsUniqueViolation(err, constraintHoldID):
		return nil, 0, fmt.Errorf("%w: InsertOrGet: %w", ErrHoldAlreadyConverted, err)
	default:
		return nil, 0, fmt.Errorf("%w: InsertOrGet - execute insert: %w", ErrExecQuery, err)
	}
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id}, false)
}

// GetByIDForUpdate получает бронирование с блокировкой строки (внутри транзакции)
func (r *Repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.getOne(ctx, "GetByIDForUpdate", squirrel.Eq{"id": id}, dbmetrics.IsInTransaction(ctx))
}

// GetByIdempotencyKey ищет бронирование клиента по ключу идемпотентности
func (r *Repository) GetByIdempotencyKey(ctx context.Context, customerID int64, key string) (*domain.Booking, error) {
	return r.getOne(ctx, "GetByIdempotencyKey",
		squirrel.Eq{"customer_id": customerID, "idempotency_key": key}, false)
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Sqlizer, forUpdate bool) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(bookingColumns...).From("bookings").Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, op, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan booking: %w", ErrScanRow, op, err)
	}
	return b, nil
}

// FindOverlapping возвращает неотмененные бронирования объекта, пересекающие диапазон
func (r *Repository) FindOverlapping(ctx context.Context, propertyID uuid.UUID, rng domain.DateRange) ([]*domain.Booking, error) {
	from, to := rng.CheckIn, rng.CheckOut
	return r.List(ctx, domain.BookingFilter{PropertyID: &propertyID, From: &from, To: &to})
}

// List получает бронирования по фильтру.
// Без явного статуса при фильтре по датам отмененные бронирования исключаются.
func (r *Repository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(bookingColumns...).From("bookings")

	if filter.CustomerID != nil {
		builder = builder.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.PropertyID != nil {
		builder = builder.Where(squirrel.Eq{"property_id": *filter.PropertyID})
	}
	if filter.From != nil {
		builder = builder.Where(squirrel.Gt{"check_out": filter.From.Format(domain.DateFormat)})
	}
	if filter.To != nil {
		builder = builder.Where(squirrel.Lt{"check_in": filter.To.Format(domain.DateFormat)})
	}

	switch {
	case filter.Status != nil:
		builder = builder.Where(squirrel.Eq{"status": *filter.Status})
	case filter.From != nil || filter.To != nil:
		builder = builder.Where(squirrel.NotEq{"status": domain.BookingCancelled})
	}

	if filter.CustomerID != nil {
		builder = builder.OrderBy("created_at DESC")
	} else {
		builder = builder.OrderBy("check_in ASC")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return collect(rows, "List")
}

// UpdateStatus переводит бронирование из статуса from в to
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error {
	query, args, err := psqlbuilder.Update("bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %w", ErrBuildQuery, err)
	}
	return r.execOne(ctx, "UpdateStatus", query, args)
}

// Cancel отменяет бронирование из статуса from, фиксируя кто, когда и почему
func (r *Repository) Cancel(
	ctx context.Context,
	id uuid.UUID,
	from domain.BookingStatus,
	cancelledAt time.Time,
	cancelledBy *int64,
	reason string,
) error {
	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.BookingCancelled).
		Set("cancelled_at", cancelledAt).
		Set("cancelled_by", cancelledBy).
		Set("cancellation_reason", reason).
		Set("updated_at", cancelledAt).
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %w", ErrBuildQuery, err)
	}
	return r.execOne(ctx, "Cancel", query, args)
}

// ExpirePendingPayments отменяет до limit бронирований, чье окно оплаты истекло к now,
// и возвращает отмененные строки
func (r *Repository) ExpirePendingPayments(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, expirePendingSQL,
		domain.BookingCancelled,
		now,
		string(domain.ReasonPaymentExpired),
		domain.BookingPendingPayment,
		domain.EventCapture,
		domain.EventPending,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: ExpirePendingPayments - execute update: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return collect(rows, "ExpirePendingPayments")
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func collect(rows *sql.Rows, op string) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan booking: %w", ErrScanRow, op, err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - iterate rows: %w", ErrScanRow, op, err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b              domain.Booking
		holdID         uuid.NullUUID
		idempotencyKey sql.NullString
		cancelledAt    sql.NullTime
		cancelledBy    sql.NullInt64
		reason         sql.NullString
	)
	if err := row.Scan(
		&b.ID,
		&b.CustomerID,
		&b.PropertyID,
		&holdID,
		&b.CheckIn,
		&b.CheckOut,
		&b.Nights,
		&b.NightlyRate,
		&b.CleaningFee,
		&b.ServiceFee,
		&b.TotalAmount,
		&b.Currency,
		&b.Status,
		&idempotencyKey,
		&b.ExpiresAt,
		&cancelledAt,
		&cancelledBy,
		&reason,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	b.CheckIn = domain.TruncateDay(b.CheckIn)
	b.CheckOut = domain.TruncateDay(b.CheckOut)
	if holdID.Valid {
		id := holdID.UUID
		b.HoldID = &id
	}
	if idempotencyKey.Valid {
		b.IdempotencyKey = &idempotencyKey.String
	}
	if cancelledAt.Valid {
		b.CancelledAt = &cancelledAt.Time
	}
	if cancelledBy.Valid {
		b.CancelledBy = &cancelledBy.Int64
	}
	if reason.Valid {
		b.CancellationReason = &reason.String
	}
	return &b, nil
}
