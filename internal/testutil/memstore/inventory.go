package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	holdRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/hold"
	lockRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/lock"
	propertyRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/property"
)

// PropertyRepo объекты размещения
type PropertyRepo struct{ s *Store }

func (s *Store) Properties() *PropertyRepo { return &PropertyRepo{s: s} }

func (r *PropertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	defer r.s.enter(ctx)()
	p, ok := r.s.properties[id]
	if !ok {
		return nil, propertyRepo.ErrPropertyNotFound
	}
	return &p, nil
}

// CalendarRepo календарь
type CalendarRepo struct{ s *Store }

func (s *Store) Calendar() *CalendarRepo { return &CalendarRepo{s: s} }

func (r *CalendarRepo) GetDays(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*domain.CalendarDay, error) {
	defer r.s.enter(ctx)()
	if err := r.s.fault("calendar.GetDays"); err != nil {
		return nil, err
	}
	out := make([]*domain.CalendarDay, 0)
	for _, d := range r.s.calendar[propertyID] {
		if !d.Day.Before(from) && d.Day.Before(to) {
			day := d
			out = append(out, &day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// LockRepo блокировки объектов. Транзакции в памяти взаимоисключающие,
// блокировка только проверяет, что вызов сделан внутри транзакции.
type LockRepo struct{ s *Store }

func (s *Store) Locks() *LockRepo { return &LockRepo{s: s} }

func (r *LockRepo) AcquirePropertyLock(ctx context.Context, _ uuid.UUID) error {
	if !r.s.inTx(ctx) {
		return lockRepo.ErrNotInTransaction
	}
	r.s.locks++
	return nil
}

// HoldRepo холды
type HoldRepo struct{ s *Store }

func (s *Store) HoldRepo() *HoldRepo { return &HoldRepo{s: s} }

func (r *HoldRepo) Create(ctx context.Context, h *domain.Hold) (*domain.Hold, error) {
	defer r.s.enter(ctx)()
	if err := r.s.fault("holds.Create"); err != nil {
		return nil, err
	}
	stamp(&h.CreatedAt)
	h.UpdatedAt = h.CreatedAt
	r.s.holds[h.ID] = *h
	return h, nil
}

func (r *HoldRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	defer r.s.enter(ctx)()
	h, ok := r.s.holds[id]
	if !ok {
		return nil, holdRepo.ErrHoldNotFound
	}
	return &h, nil
}

func (r *HoldRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	return r.GetByID(ctx, id)
}

func (r *HoldRepo) FindActiveOverlapping(
	ctx context.Context,
	propertyID uuid.UUID,
	rng domain.DateRange,
	now time.Time,
	excludeID *uuid.UUID,
) ([]*domain.Hold, error) {
	defer r.s.enter(ctx)()
	out := make([]*domain.Hold, 0)
	for _, h := range r.s.holds {
		if h.PropertyID != propertyID || !h.IsLiveAt(now) || !h.Range().Overlaps(rng) {
			continue
		}
		if excludeID != nil && h.ID == *excludeID {
			continue
		}
		hold := h
		out = append(out, &hold)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (r *HoldRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.HoldStatus, bookingID *uuid.UUID) error {
	defer r.s.enter(ctx)()
	h, ok := r.s.holds[id]
	if !ok || h.Status != from {
		return holdRepo.ErrStatusConflict
	}
	h.Status = to
	if bookingID != nil {
		id := *bookingID
		h.BookingID = &id
	}
	h.UpdatedAt = time.Now().UTC()
	r.s.holds[id] = h
	return nil
}

func (r *HoldRepo) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	defer r.s.enter(ctx)()
	if err := r.s.fault("holds.ExpireStale"); err != nil {
		return 0, err
	}
	n := 0
	for id, h := range r.s.holds {
		if h.Status == domain.HoldActive && h.IsExpiredAt(now) {
			h.Status = domain.HoldExpired
			h.UpdatedAt = now
			r.s.holds[id] = h
			n++
		}
	}
	return n, nil
}
