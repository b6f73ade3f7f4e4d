package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// OutboxRepo исходящие события
type OutboxRepo struct{ s *Store }

func (s *Store) OutboxRepo() *OutboxRepo { return &OutboxRepo{s: s} }

func (r *OutboxRepo) Enqueue(ctx context.Context, events ...*domain.OutboxEvent) error {
	defer r.s.enter(ctx)()
	if err := r.s.fault("outbox.Enqueue"); err != nil {
		return err
	}
	for _, e := range events {
		r.s.outbox = append(r.s.outbox, *e)
	}
	return nil
}

func (r *OutboxRepo) FetchPending(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error) {
	defer r.s.enter(ctx)()
	out := make([]*domain.OutboxEvent, 0)
	for _, e := range r.s.outbox {
		if e.Status == domain.OutboxPending && !e.AvailableAt.After(now) {
			event := e
			out = append(out, &event)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvailableAt.Before(out[j].AvailableAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *OutboxRepo) update(ctx context.Context, id uuid.UUID, fn func(e *domain.OutboxEvent)) error {
	defer r.s.enter(ctx)()
	for i := range r.s.outbox {
		if r.s.outbox[i].ID == id {
			fn(&r.s.outbox[i])
			return nil
		}
	}
	return nil
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, func(e *domain.OutboxEvent) {
		e.Status = domain.OutboxPublished
		e.Attempts++
		e.PublishedAt = &at
		e.LastError = nil
	})
}

func (r *OutboxRepo) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, availableAt time.Time, lastErr string) error {
	return r.update(ctx, id, func(e *domain.OutboxEvent) {
		e.Attempts = attempts
		e.AvailableAt = availableAt
		e.LastError = &lastErr
	})
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	return r.update(ctx, id, func(e *domain.OutboxEvent) {
		e.Status = domain.OutboxFailed
		e.Attempts = attempts
		e.LastError = &lastErr
	})
}
