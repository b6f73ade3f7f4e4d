package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	paymentRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/payment"
	refundRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/refund"
)

// PaymentRepo платежи и журнал платежных операций
type PaymentRepo struct{ s *Store }

func (s *Store) PaymentRepo() *PaymentRepo { return &PaymentRepo{s: s} }

func (r *PaymentRepo) InsertOrGet(ctx context.Context, p *domain.Payment) (*domain.Payment, domain.InsertOutcome, error) {
	defer r.s.enter(ctx)()
	for _, existing := range r.s.payments {
		if existing.BookingID == p.BookingID {
			return &existing, domain.AlreadyExists, nil
		}
	}
	stamp(&p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	r.s.payments[p.ID] = *p
	return p, domain.Inserted, nil
}

func (r *PaymentRepo) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	defer r.s.enter(ctx)()
	for _, p := range r.s.payments {
		if p.BookingID == bookingID {
			return &p, nil
		}
	}
	return nil, paymentRepo.ErrPaymentNotFound
}

func (r *PaymentRepo) GetByBookingIDForUpdate(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	return r.GetByBookingID(ctx, bookingID)
}

func (r *PaymentRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	defer r.s.enter(ctx)()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, paymentRepo.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus, providerRef *string) error {
	defer r.s.enter(ctx)()
	if err := r.s.fault("payments.UpdateStatus"); err != nil {
		return err
	}
	p, ok := r.s.payments[id]
	if !ok || p.Status != from {
		return paymentRepo.ErrStatusConflict
	}
	p.Status = to
	if providerRef != nil {
		ref := *providerRef
		p.ProviderRef = &ref
	}
	p.UpdatedAt = time.Now().UTC()
	r.s.payments[id] = p
	return nil
}

func (r *PaymentRepo) InsertEventOrGet(ctx context.Context, e *domain.PaymentEvent) (*domain.PaymentEvent, domain.InsertOutcome, error) {
	defer r.s.enter(ctx)()
	if existing, ok := r.s.findEvent(e.PaymentID, e.EventType, e.IdempotencyKey); ok {
		return &existing, domain.AlreadyExists, nil
	}
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	r.s.events[e.ID] = *e
	return e, domain.Inserted, nil
}

func (s *Store) findEvent(paymentID uuid.UUID, t domain.PaymentEventType, key string) (domain.PaymentEvent, bool) {
	for _, e := range s.events {
		if e.PaymentID == paymentID && e.EventType == t && e.IdempotencyKey == key {
			return e, true
		}
	}
	return domain.PaymentEvent{}, false
}

func (r *PaymentRepo) GetEvent(ctx context.Context, paymentID uuid.UUID, t domain.PaymentEventType, key string) (*domain.PaymentEvent, error) {
	defer r.s.enter(ctx)()
	e, ok := r.s.findEvent(paymentID, t, key)
	if !ok {
		return nil, paymentRepo.ErrEventNotFound
	}
	return &e, nil
}

func (r *PaymentRepo) GetEventForUpdate(ctx context.Context, paymentID uuid.UUID, t domain.PaymentEventType, key string) (*domain.PaymentEvent, error) {
	return r.GetEvent(ctx, paymentID, t, key)
}

func (r *PaymentRepo) RecordEventProviderRef(ctx context.Context, eventID uuid.UUID, providerRef string) error {
	defer r.s.enter(ctx)()
	if err := r.s.fault("payments.RecordEventProviderRef"); err != nil {
		return err
	}
	e, ok := r.s.events[eventID]
	if !ok || e.Status != domain.EventPending {
		return paymentRepo.ErrStatusConflict
	}
	e.ProviderRef = &providerRef
	e.UpdatedAt = time.Now().UTC()
	r.s.events[eventID] = e
	return nil
}

func (r *PaymentRepo) CompleteEvent(
	ctx context.Context,
	eventID uuid.UUID,
	status domain.PaymentEventStatus,
	providerRef *string,
	errMsg *string,
) error {
	defer r.s.enter(ctx)()
	if err := r.s.fault("payments.CompleteEvent"); err != nil {
		return err
	}
	e, ok := r.s.events[eventID]
	if !ok || e.Status != domain.EventPending {
		return paymentRepo.ErrStatusConflict
	}
	e.Status = status
	e.Error = errMsg
	if providerRef != nil {
		ref := *providerRef
		e.ProviderRef = &ref
	}
	e.UpdatedAt = time.Now().UTC()
	r.s.events[eventID] = e
	return nil
}

func (r *PaymentRepo) HasPendingEvent(ctx context.Context, bookingID uuid.UUID, t domain.PaymentEventType) (bool, error) {
	defer r.s.enter(ctx)()
	return r.s.hasPendingEvent(bookingID, t), nil
}

func (s *Store) hasPendingEvent(bookingID uuid.UUID, t domain.PaymentEventType) bool {
	for _, p := range s.payments {
		if p.BookingID != bookingID {
			continue
		}
		for _, e := range s.events {
			if e.PaymentID == p.ID && e.EventType == t && e.Status == domain.EventPending {
				return true
			}
		}
	}
	return false
}

// RefundRepo возвраты
type RefundRepo struct{ s *Store }

func (s *Store) RefundRepo() *RefundRepo { return &RefundRepo{s: s} }

func (r *RefundRepo) Create(ctx context.Context, rf *domain.Refund) (*domain.Refund, error) {
	defer r.s.enter(ctx)()
	stamp(&rf.CreatedAt)
	rf.UpdatedAt = rf.CreatedAt
	r.s.refunds[rf.ID] = *rf
	return rf, nil
}

func (r *RefundRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	defer r.s.enter(ctx)()
	rf, ok := r.s.refunds[id]
	if !ok {
		return nil, refundRepo.ErrRefundNotFound
	}
	return &rf, nil
}

func (r *RefundRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	return r.GetByID(ctx, id)
}

func (r *RefundRepo) Update(ctx context.Context, rf *domain.Refund, from domain.RefundStatus) error {
	defer r.s.enter(ctx)()
	if err := r.s.fault("refunds.Update"); err != nil {
		return err
	}
	existing, ok := r.s.refunds[rf.ID]
	if !ok || existing.Status != from {
		return refundRepo.ErrStatusConflict
	}
	updated := *rf
	updated.UpdatedAt = time.Now().UTC()
	r.s.refunds[rf.ID] = updated
	return nil
}
