package domain

import (
	"time"

	"github.com/google/uuid"
)

// Hold временная эксклюзивная заявка на даты объекта
type Hold struct {
	ID          uuid.UUID
	PropertyID  uuid.UUID
	CheckIn     time.Time
	CheckOut    time.Time
	Status      HoldStatus
	ExpiresAt   time.Time
	CreatedByID int64
	BookingID   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Range диапазон ночей холда
func (h *Hold) Range() DateRange {
	return DateRange{CheckIn: h.CheckIn, CheckOut: h.CheckOut}
}

// IsExpiredAt true, если TTL холда истек к моменту now
func (h *Hold) IsExpiredAt(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}

// IsLiveAt холд блокирует даты только если он ACTIVE и не истек
func (h *Hold) IsLiveAt(now time.Time) bool {
	return h.Status == HoldActive && !h.IsExpiredAt(now)
}

// EffectiveStatus статус с учетом ленивого истечения
func (h *Hold) EffectiveStatus(now time.Time) HoldStatus {
	if h.Status == HoldActive && h.IsExpiredAt(now) {
		return HoldExpired
	}
	return h.Status
}
