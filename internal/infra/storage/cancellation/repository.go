package cancellation

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

var cancellationColumns = []string{
	"id",
	"booking_id",
	"actor_id",
	"actor_role",
	"reason",
	"notes",
	"mode",
	"tier",
	"policy_version",
	"total_amount",
	"penalty_amount",
	"refundable_amount",
	"currency",
	"releases_inventory",
	"refund_id",
	"created_at",
}

// Repository журнал решений об отмене. Записи только добавляются.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория отмен
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// InsertOrGet сохраняет снимок отмены. Для бронирования, у которого снимок уже есть,
// возвращает существующую запись и AlreadyExists.
func (r *Repository) InsertOrGet(ctx context.Context, c *domain.BookingCancellation) (*domain.BookingCancellation, domain.InsertOutcome, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_cancellations").
		Columns(cancellationColumns[:len(cancellationColumns)-1]...).
		Values(
			c.ID,
			c.BookingID,
			c.ActorID,
			c.ActorRole,
			c.Reason,
			c.Notes,
			c.Mode,
			c.Tier,
			c.PolicyVersion,
			c.TotalAmount,
			c.PenaltyAmount,
			c.RefundableAmount,
			c.Currency,
			c.ReleasesInventory,
			c.RefundID,
		).
		Suffix("ON CONFLICT ON CONSTRAINT booking_cancellations_booking_id_key DO NOTHING RETURNING created_at").
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: InsertOrGet - build insert query: %w", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := r.GetByBookingID(ctx, c.BookingID)
		if err != nil {
			return nil, 0, err
		}
		return existing, domain.AlreadyExists, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: InsertOrGet - execute insert: %w", ErrExecQuery, err)
	}
	return c, domain.Inserted, nil
}

// GetByBookingID получает снимок отмены бронирования
func (r *Repository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.BookingCancellation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(cancellationColumns...).
		From("booking_cancellations").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBookingID - build select query: %w", ErrBuildQuery, err)
	}

	var (
		c        domain.BookingCancellation
		notes    sql.NullString
		refundID uuid.NullUUID
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&c.ID,
		&c.BookingID,
		&c.ActorID,
		&c.ActorRole,
		&c.Reason,
		&notes,
		&c.Mode,
		&c.Tier,
		&c.PolicyVersion,
		&c.TotalAmount,
		&c.PenaltyAmount,
		&c.RefundableAmount,
		&c.Currency,
		&c.ReleasesInventory,
		&refundID,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCancellationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBookingID - scan cancellation: %w", ErrScanRow, err)
	}
	if notes.Valid {
		c.Notes = &notes.String
	}
	if refundID.Valid {
		id := refundID.UUID
		c.RefundID = &id
	}
	return &c, nil
}
