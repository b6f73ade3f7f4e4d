package outbox

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

var outboxColumns = []string{
	"id",
	"topic",
	"event_type",
	"aggregate_id",
	"payload",
	"status",
	"attempts",
	"available_at",
	"last_error",
	"created_at",
	"published_at",
}

// Repository репозиторий исходящих событий
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория исходящих событий
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Enqueue записывает события. Вызывается внутри транзакции, меняющей состояние.
func (r *Repository) Enqueue(ctx context.Context, events ...*domain.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Insert("outbox_events").
		Columns("id", "topic", "event_type", "aggregate_id", "payload", "status", "attempts", "available_at")
	for _, e := range events {
		// lib/pq передает []byte как bytea, поэтому jsonb отправляем строкой
		builder = builder.Values(e.ID, e.Topic, e.EventType, e.AggregateID, string(e.Payload), e.Status, e.Attempts, e.AvailableAt)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: Enqueue - build insert query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Enqueue - execute insert: %w", ErrExecQuery, err)
	}
	return nil
}

// FetchPending выбирает готовые к доставке события и блокирует их до конца транзакции.
// Параллельные релеи пропускают уже заблокированные строки.
func (r *Repository) FetchPending(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(outboxColumns...).
		From("outbox_events").
		Where(squirrel.Eq{"status": domain.OutboxPending}).
		Where(squirrel.LtOrEq{"available_at": now}).
		OrderBy("available_at", "created_at").
		Limit(uint64(limit))
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE SKIP LOCKED")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - execute select: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var (
			e           domain.OutboxEvent
			payload     []byte
			lastError   sql.NullString
			publishedAt sql.NullTime
		)
		if err := rows.Scan(
			&e.ID,
			&e.Topic,
			&e.EventType,
			&e.AggregateID,
			&payload,
			&e.Status,
			&e.Attempts,
			&e.AvailableAt,
			&lastError,
			&e.CreatedAt,
			&publishedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: FetchPending - scan event: %w", ErrScanRow, err)
		}
		e.Payload = payload
		if lastError.Valid {
			e.LastError = &lastError.String
		}
		if publishedAt.Valid {
			e.PublishedAt = &publishedAt.Time
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FetchPending - rows iteration: %w", ErrScanRow, err)
	}
	return events, nil
}

// MarkPublished отмечает событие доставленным
func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	query, args, err := psqlbuilder.Update("outbox_events").
		Set("status", domain.OutboxPublished).
		Set("published_at", at).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkPublished - build update query: %w", ErrBuildQuery, err)
	}
	return r.exec(ctx, "MarkPublished", query, args)
}

// MarkRetry откладывает повторную доставку события
func (r *Repository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, availableAt time.Time, lastErr string) error {
	query, args, err := psqlbuilder.Update("outbox_events").
		Set("attempts", attempts).
		Set("available_at", availableAt).
		Set("last_error", lastErr).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkRetry - build update query: %w", ErrBuildQuery, err)
	}
	return r.exec(ctx, "MarkRetry", query, args)
}

// MarkFailed прекращает попытки доставки события
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	query, args, err := psqlbuilder.Update("outbox_events").
		Set("status", domain.OutboxFailed).
		Set("attempts", attempts).
		Set("last_error", lastErr).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkFailed - build update query: %w", ErrBuildQuery, err)
	}
	return r.exec(ctx, "MarkFailed", query, args)
}

func (r *Repository) exec(ctx context.Context, op, query string, args []interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}
	return nil
}
