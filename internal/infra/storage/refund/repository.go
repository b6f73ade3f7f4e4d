package refund

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

var refundColumns = []string{
	"id",
	"booking_id",
	"payment_id",
	"amount",
	"processed_amount",
	"currency",
	"provider",
	"status",
	"provider_refund_ref",
	"processed_by",
	"failure_reason",
	"created_at",
	"updated_at",
}

// Repository репозиторий возвратов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория возвратов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет возврат в статусе PENDING
func (r *Repository) Create(ctx context.Context, rf *domain.Refund) (*domain.Refund, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("refunds").
		Columns("id", "booking_id", "payment_id", "amount", "currency", "provider", "status").
		Values(rf.ID, rf.BookingID, rf.PaymentID, rf.Amount, rf.Currency, rf.Provider, rf.Status).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&rf.CreatedAt, &rf.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	return rf, nil
}

// GetByID получает возврат по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	return r.getOne(ctx, "GetByID", id, false)
}

// GetByIDForUpdate получает возврат по ID с блокировкой строки
func (r *Repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	return r.getOne(ctx, "GetByIDForUpdate", id, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getOne(ctx context.Context, op string, id uuid.UUID, forUpdate bool) (*domain.Refund, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(refundColumns...).From("refunds").Where(squirrel.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, op, err)
	}

	var (
		rf            domain.Refund
		processed     sql.NullInt64
		ref           sql.NullString
		processedBy   sql.NullInt64
		failureReason sql.NullString
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&rf.ID,
		&rf.BookingID,
		&rf.PaymentID,
		&rf.Amount,
		&processed,
		&rf.Currency,
		&rf.Provider,
		&rf.Status,
		&ref,
		&processedBy,
		&failureReason,
		&rf.CreatedAt,
		&rf.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRefundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan refund: %w", ErrScanRow, op, err)
	}

	if processed.Valid {
		rf.ProcessedAmount = &processed.Int64
	}
	if ref.Valid {
		rf.ProviderRefundRef = &ref.String
	}
	if processedBy.Valid {
		rf.ProcessedBy = &processedBy.Int64
	}
	if failureReason.Valid {
		rf.FailureReason = &failureReason.String
	}
	return &rf, nil
}

// Update сохраняет изменившиеся поля возврата при условии, что статус в БД все еще from
func (r *Repository) Update(ctx context.Context, rf *domain.Refund, from domain.RefundStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("refunds").
		Set("status", rf.Status).
		Set("processed_amount", rf.ProcessedAmount).
		Set("provider_refund_ref", rf.ProviderRefundRef).
		Set("processed_by", rf.ProcessedBy).
		Set("failure_reason", rf.FailureReason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": rf.ID, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %w", ErrBuildQuery, err)
	}

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - rows affected: %w", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}
