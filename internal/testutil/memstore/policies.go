package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	cancellationRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/cancellation"
	policyRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/policy"
)

// PolicyRepo версии политик отмены
type PolicyRepo struct{ s *Store }

func (s *Store) PolicyRepo() *PolicyRepo { return &PolicyRepo{s: s} }

func (r *PolicyRepo) GetEffective(ctx context.Context, propertyID uuid.UUID) (*domain.CancellationPolicy, error) {
	defer r.s.enter(ctx)()

	var property, global *domain.CancellationPolicy
	for i := range r.s.policies {
		p := r.s.policies[i]
		if !p.IsActive {
			continue
		}
		switch {
		case p.PropertyID != nil && *p.PropertyID == propertyID:
			if property == nil || newer(&p, property) {
				property = &p
			}
		case p.PropertyID == nil:
			if global == nil || newer(&p, global) {
				global = &p
			}
		}
	}
	if property != nil {
		return property, nil
	}
	if global != nil {
		return global, nil
	}
	return nil, policyRepo.ErrPolicyNotFound
}

func newer(a, b *domain.CancellationPolicy) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.Version > b.Version
}

func samePolicyScope(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *PolicyRepo) CreateVersion(ctx context.Context, p *domain.CancellationPolicy) (*domain.CancellationPolicy, error) {
	defer r.s.enter(ctx)()

	current := 0
	for i := range r.s.policies {
		existing := &r.s.policies[i]
		if !samePolicyScope(existing.PropertyID, p.PropertyID) {
			continue
		}
		current = max(current, existing.Version)
		existing.IsActive = false
	}

	now := time.Now().UTC()
	p.Version = current + 1
	p.IsActive = true
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.policies = append(r.s.policies, *p)
	return p, nil
}

// CancellationRepo снимки решений об отмене
type CancellationRepo struct{ s *Store }

func (s *Store) CancellationRepo() *CancellationRepo { return &CancellationRepo{s: s} }

func (r *CancellationRepo) InsertOrGet(ctx context.Context, c *domain.BookingCancellation) (*domain.BookingCancellation, domain.InsertOutcome, error) {
	defer r.s.enter(ctx)()
	if err := r.s.fault("cancellations.InsertOrGet"); err != nil {
		return nil, 0, err
	}
	if existing, ok := r.s.cancellations[c.BookingID]; ok {
		return &existing, domain.AlreadyExists, nil
	}
	stamp(&c.CreatedAt)
	r.s.cancellations[c.BookingID] = *c
	return c, domain.Inserted, nil
}

func (r *CancellationRepo) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.BookingCancellation, error) {
	defer r.s.enter(ctx)()
	c, ok := r.s.cancellations[bookingID]
	if !ok {
		return nil, cancellationRepo.ErrCancellationNotFound
	}
	return &c, nil
}
