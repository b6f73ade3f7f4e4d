package calendar

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-StayBookingService/pkg/psqlbuilder"
)

// Repository репозиторий календаря объекта. Календарь ведут внешние инструменты, ядро только читает.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория календаря
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetDays возвращает явно заданные ночи в диапазоне [from, to)
func (r *Repository) GetDays(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*domain.CalendarDay, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("property_id", "day", "status", "min_nights_override", "note").
		From("calendar_days").
		Where(squirrel.Eq{"property_id": propertyID}).
		Where(squirrel.GtOrEq{"day": from.Format(domain.DateFormat)}).
		Where(squirrel.Lt{"day": to.Format(domain.DateFormat)}).
		OrderBy("day ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetDays - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetDays - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	days := make([]*domain.CalendarDay, 0)
	for rows.Next() {
		var (
			d        domain.CalendarDay
			override sql.NullInt32
			note     sql.NullString
		)
		if err := rows.Scan(&d.PropertyID, &d.Day, &d.Status, &override, &note); err != nil {
			return nil, fmt.Errorf("%w: GetDays - scan day: %w", ErrScanRow, err)
		}
		d.Day = domain.TruncateDay(d.Day)
		if override.Valid {
			v := int(override.Int32)
			d.MinNightsOverride = &v
		}
		if note.Valid {
			d.Note = &note.String
		}
		days = append(days, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetDays - iterate rows: %w", ErrScanRow, err)
	}

	return days, nil
}
