package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// ErrInternal ошибка чтения хранилища при проверке доступности
var ErrInternal = errors.New("inventory: internal error")

// Checker проверяет, что диапазон ночей объекта свободен.
// Должен вызываться под блокировкой объекта, иначе результат может устареть к моменту записи.
type Checker struct {
	calendarRepo CalendarRepository
	bookingRepo  BookingRepository
	holdRepo     HoldRepository
}

// NewChecker создает новый экземпляр проверки доступности
func NewChecker(calendarRepo CalendarRepository, bookingRepo BookingRepository, holdRepo HoldRepository) *Checker {
	return &Checker{
		calendarRepo: calendarRepo,
		bookingRepo:  bookingRepo,
		holdRepo:     holdRepo,
	}
}

// Check проверяет по порядку:
// 1. заблокированные ночи (ErrBlockedDates)
// 2. минимальное и максимальное число ночей
// 3. пересечение с неотмененными бронированиями (ErrDatesUnavailable)
// 4. пересечение с живыми холдами, кроме excludeHoldID (ErrDatesContended)
func (c *Checker) Check(
	ctx context.Context,
	property *domain.Property,
	rng domain.DateRange,
	now time.Time,
	excludeHoldID *uuid.UUID,
) error {
	days, err := c.calendarRepo.GetDays(ctx, property.ID, rng.CheckIn, rng.CheckOut)
	if err != nil {
		return fmt.Errorf("%w: get calendar days: %v", ErrInternal, err)
	}
	if blocked := domain.BlockedNights(days); len(blocked) > 0 {
		return &domain.ConflictError{Reason: domain.ErrBlockedDates, PropertyID: property.ID, Nights: blocked}
	}

	nights := rng.Nights()
	if minNights := domain.EffectiveMinNights(property, rng.CheckIn, days); nights < minNights {
		return fmt.Errorf("%w: %d nights requested, at least %d required", domain.ErrMinimumStayNotMet, nights, minNights)
	}
	if property.MaxNights > 0 && nights > property.MaxNights {
		return fmt.Errorf("%w: %d nights requested, at most %d allowed", domain.ErrInvalidRange, nights, property.MaxNights)
	}

	bookings, err := c.bookingRepo.FindOverlapping(ctx, property.ID, rng)
	if err != nil {
		return fmt.Errorf("%w: find overlapping bookings: %v", ErrInternal, err)
	}
	for _, b := range bookings {
		if b.IsActive() {
			id := b.ID
			return &domain.ConflictError{
				Reason:        domain.ErrDatesUnavailable,
				PropertyID:    property.ID,
				Nights:        overlapNights(rng, b.Range()),
				ConflictingID: &id,
			}
		}
	}

	holds, err := c.holdRepo.FindActiveOverlapping(ctx, property.ID, rng, now, excludeHoldID)
	if err != nil {
		return fmt.Errorf("%w: find overlapping holds: %v", ErrInternal, err)
	}
	for _, h := range holds {
		if h.IsLiveAt(now) {
			id := h.ID
			return &domain.ConflictError{
				Reason:        domain.ErrDatesContended,
				PropertyID:    property.ID,
				Nights:        overlapNights(rng, h.Range()),
				ConflictingID: &id,
			}
		}
	}
	return nil
}

func overlapNights(a, b domain.DateRange) []time.Time {
	out := make([]time.Time, 0)
	for _, d := range a.Days() {
		if b.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}
