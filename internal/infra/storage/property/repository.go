package property

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

// Repository репозиторий объектов размещения (только чтение)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория объектов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает объект по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"vendor_id",
		"title",
		"nightly_rate",
		"cleaning_fee",
		"service_fee_percent",
		"currency",
		"min_nights",
		"max_nights",
	).
		From("properties").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	var p domain.Property
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.VendorID,
		&p.Title,
		&p.NightlyRate,
		&p.CleaningFee,
		&p.ServiceFeePercent,
		&p.Currency,
		&p.MinNights,
		&p.MaxNights,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan property: %w", ErrScanRow, err)
	}

	return &p, nil
}
