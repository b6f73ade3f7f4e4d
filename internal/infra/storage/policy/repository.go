package policy

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

var policyColumns = []string{
	"id",
	"property_id",
	"version",
	"free_cancel_before_hours",
	"partial_refund_before_hours",
	"no_refund_within_hours",
	"penalty_model",
	"penalty_value",
	"default_mode",
	"charge_first_night_on_late_cancel",
	"is_active",
	"created_by",
	"created_at",
	"updated_at",
}

// Repository репозиторий версий политик отмены
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория политик
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetEffective получает действующую политику для объекта с учетом иерархии:
// 1. Активная политика объекта
// 2. Активная глобальная политика (property_id IS NULL)
// Внутри уровня берется последняя обновленная строка.
func (r *Repository) GetEffective(ctx context.Context, propertyID uuid.UUID) (*domain.CancellationPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(policyColumns...).
		From("cancellation_policies").
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Or{
			squirrel.Eq{"property_id": propertyID},
			squirrel.Eq{"property_id": nil},
		}).
		OrderBy("(property_id IS NULL) ASC", "updated_at DESC", "version DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetEffective - build select query: %w", ErrBuildQuery, err)
	}

	p, err := scanPolicy(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetEffective - scan policy: %w", ErrScanRow, err)
	}
	return p, nil
}

// CreateVersion деактивирует текущую политику в области видимости (объект или глобальная)
// и сохраняет новую с версией на единицу больше. Вызывать внутри транзакции.
func (r *Repository) CreateVersion(ctx context.Context, p *domain.CancellationPolicy) (*domain.CancellationPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	scope := squirrel.Eq{"property_id": nil}
	if p.PropertyID != nil {
		scope = squirrel.Eq{"property_id": *p.PropertyID}
	}

	// 1. Текущая максимальная версия в области видимости
	query, args, err := psqlbuilder.Select("COALESCE(MAX(version), 0)").
		From("cancellation_policies").
		Where(scope).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateVersion - build version query: %w", ErrBuildQuery, err)
	}
	var current int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&current); err != nil {
		return nil, fmt.Errorf("%w: CreateVersion - scan version: %w", ErrScanRow, err)
	}

	// 2. Деактивируем предыдущие версии
	query, args, err = psqlbuilder.Update("cancellation_policies").
		Set("is_active", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(scope).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateVersion - build deactivate query: %w", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: CreateVersion - deactivate previous: %w", ErrExecQuery, err)
	}

	// 3. Сохраняем новую версию
	p.Version = current + 1
	p.IsActive = true
	query, args, err = psqlbuilder.Insert("cancellation_policies").
		Columns(
			"id",
			"property_id",
			"version",
			"free_cancel_before_hours",
			"partial_refund_before_hours",
			"no_refund_within_hours",
			"penalty_model",
			"penalty_value",
			"default_mode",
			"charge_first_night_on_late_cancel",
			"is_active",
			"created_by",
		).
		Values(
			p.ID,
			p.PropertyID,
			p.Version,
			p.FreeCancelBeforeHours,
			p.PartialRefundBeforeHours,
			p.NoRefundWithinHours,
			p.PenaltyModel,
			p.PenaltyValue,
			p.DefaultMode,
			p.ChargeFirstNightOnLateCancel,
			p.IsActive,
			p.CreatedBy,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateVersion - build insert query: %w", ErrBuildQuery, err)
	}
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: CreateVersion - execute insert: %w", ErrExecQuery, err)
	}

	return p, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPolicy(row rowScanner) (*domain.CancellationPolicy, error) {
	var (
		p          domain.CancellationPolicy
		propertyID uuid.NullUUID
		createdBy  sql.NullInt64
	)
	if err := row.Scan(
		&p.ID,
		&propertyID,
		&p.Version,
		&p.FreeCancelBeforeHours,
		&p.PartialRefundBeforeHours,
		&p.NoRefundWithinHours,
		&p.PenaltyModel,
		&p.PenaltyValue,
		&p.DefaultMode,
		&p.ChargeFirstNightOnLateCancel,
		&p.IsActive,
		&createdBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if propertyID.Valid {
		id := propertyID.UUID
		p.PropertyID = &id
	}
	if createdBy.Valid {
		p.CreatedBy = &createdBy.Int64
	}
	return &p, nil
}
