package get_availability

import (
	"time"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// buildNights раскладывает календарь, бронирования и живые холды по ночам окна.
// Приоритет состояний: BLOCKED, затем BOOKED, затем HELD.
func buildNights(
	property *domain.Property,
	rng domain.DateRange,
	days []*domain.CalendarDay,
	bookings []*domain.Booking,
	holds []*domain.Hold,
	now time.Time,
) []Night {
	byDay := make(map[time.Time]*domain.CalendarDay, len(days))
	for _, d := range days {
		byDay[domain.TruncateDay(d.Day)] = d
	}

	nights := make([]Night, 0, rng.Nights())
	for _, date := range rng.Days() {
		night := Night{
			Date:      date,
			State:     NightAvailable,
			MinNights: domain.EffectiveMinNights(property, date, days),
		}
		if cd, ok := byDay[date]; ok {
			night.Note = cd.Note
			if cd.Status == domain.DayBlocked {
				night.State = NightBlocked
			}
		}
		if night.State == NightAvailable && bookedOn(date, bookings) {
			night.State = NightBooked
		}
		if night.State == NightAvailable && heldOn(date, holds, now) {
			night.State = NightHeld
		}
		nights = append(nights, night)
	}
	return nights
}

func bookedOn(date time.Time, bookings []*domain.Booking) bool {
	for _, b := range bookings {
		if b.IsActive() && b.Range().Contains(date) {
			return true
		}
	}
	return false
}

func heldOn(date time.Time, holds []*domain.Hold, now time.Time) bool {
	for _, h := range holds {
		if h.IsLiveAt(now) && h.Range().Contains(date) {
			return true
		}
	}
	return false
}
