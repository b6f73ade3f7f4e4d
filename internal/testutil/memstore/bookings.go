package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/booking"
)

// BookingRepo бронирования
type BookingRepo struct{ s *Store }

func (s *Store) BookingRepo() *BookingRepo { return &BookingRepo{s: s} }

func (r *BookingRepo) InsertOrGet(ctx context.Context, b *domain.Booking) (*domain.Booking, domain.InsertOutcome, error) {
	defer r.s.enter(ctx)()
	if err := r.s.fault("bookings.InsertOrGet"); err != nil {
		return nil, 0, err
	}

	if b.IdempotencyKey != nil {
		if existing, ok := r.s.findByKey(b.CustomerID, *b.IdempotencyKey); ok {
			return &existing, domain.AlreadyExists, nil
		}
	}
	for _, other := range r.s.bookings {
		if b.HoldID != nil && other.HoldID != nil && *other.HoldID == *b.HoldID {
			return nil, 0, bookingRepo.ErrHoldAlreadyConverted
		}
		if other.PropertyID == b.PropertyID && other.IsActive() && other.Range().Overlaps(b.Range()) {
			return nil, 0, bookingRepo.ErrOverlap
		}
	}

	stamp(&b.CreatedAt)
	b.UpdatedAt = b.CreatedAt
	r.s.bookings[b.ID] = *b
	return b, domain.Inserted, nil
}

func (s *Store) findByKey(customerID int64, key string) (domain.Booking, bool) {
	for _, b := range s.bookings {
		if b.CustomerID == customerID && b.IdempotencyKey != nil && *b.IdempotencyKey == key {
			return b, true
		}
	}
	return domain.Booking{}, false
}

func (r *BookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	defer r.s.enter(ctx)()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return &b, nil
}

func (r *BookingRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *BookingRepo) GetByIdempotencyKey(ctx context.Context, customerID int64, key string) (*domain.Booking, error) {
	defer r.s.enter(ctx)()
	b, ok := r.s.findByKey(customerID, key)
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return &b, nil
}

func (r *BookingRepo) FindOverlapping(ctx context.Context, propertyID uuid.UUID, rng domain.DateRange) ([]*domain.Booking, error) {
	from, to := rng.CheckIn, rng.CheckOut
	return r.List(ctx, domain.BookingFilter{PropertyID: &propertyID, From: &from, To: &to})
}

func (r *BookingRepo) List(ctx context.Context, f domain.BookingFilter) ([]*domain.Booking, error) {
	defer r.s.enter(ctx)()

	out := make([]*domain.Booking, 0)
	for _, b := range r.s.bookings {
		if f.CustomerID != nil && b.CustomerID != *f.CustomerID {
			continue
		}
		if f.PropertyID != nil && b.PropertyID != *f.PropertyID {
			continue
		}
		if f.From != nil && !b.CheckOut.After(*f.From) {
			continue
		}
		if f.To != nil && !b.CheckIn.Before(*f.To) {
			continue
		}
		switch {
		case f.Status != nil:
			if b.Status != *f.Status {
				continue
			}
		case f.From != nil || f.To != nil:
			if b.Status == domain.BookingCancelled {
				continue
			}
		}
		booking := b
		out = append(out, &booking)
	}

	if f.CustomerID != nil {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	}
	return out, nil
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error {
	defer r.s.enter(ctx)()
	if err := r.s.fault("bookings.UpdateStatus"); err != nil {
		return err
	}
	b, ok := r.s.bookings[id]
	if !ok || b.Status != from {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	r.s.bookings[id] = b
	return nil
}

func (r *BookingRepo) Cancel(
	ctx context.Context,
	id uuid.UUID,
	from domain.BookingStatus,
	cancelledAt time.Time,
	cancelledBy *int64,
	reason string,
) error {
	defer r.s.enter(ctx)()
	b, ok := r.s.bookings[id]
	if !ok || b.Status != from {
		return bookingRepo.ErrStatusConflict
	}
	r.s.bookings[id] = cancelled(b, cancelledAt, cancelledBy, reason)
	return nil
}

func cancelled(b domain.Booking, at time.Time, by *int64, reason string) domain.Booking {
	b.Status = domain.BookingCancelled
	b.CancelledAt = &at
	b.CancelledBy = by
	b.CancellationReason = &reason
	b.UpdatedAt = at
	return b
}

func (r *BookingRepo) ExpirePendingPayments(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	defer r.s.enter(ctx)()
	if err := r.s.fault("bookings.ExpirePendingPayments"); err != nil {
		return nil, err
	}

	due := make([]domain.Booking, 0)
	for _, b := range r.s.bookings {
		if b.PaymentWindowElapsedAt(now) && !r.s.hasPendingEvent(b.ID, domain.EventCapture) {
			due = append(due, b)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ExpiresAt.Before(due[j].ExpiresAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]*domain.Booking, 0, len(due))
	for _, b := range due {
		c := cancelled(b, now, nil, string(domain.ReasonPaymentExpired))
		r.s.bookings[b.ID] = c
		out = append(out, &c)
	}
	return out, nil
}
