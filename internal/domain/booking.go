package domain

import (
	"time"

	"github.com/google/uuid"
)

// Booking бронирование, созданное из холда
type Booking struct {
	ID             uuid.UUID
	CustomerID     int64
	PropertyID     uuid.UUID
	HoldID         *uuid.UUID
	CheckIn        time.Time
	CheckOut       time.Time
	Nights         int
	NightlyRate    int64
	CleaningFee    int64
	ServiceFee     int64
	TotalAmount    int64
	Currency       string
	Status         BookingStatus
	IdempotencyKey *string
	ExpiresAt      time.Time // окончание окна оплаты

	CancelledAt        *time.Time
	CancelledBy        *int64
	CancellationReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Range диапазон ночей бронирования
func (b *Booking) Range() DateRange {
	return DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// IsActive true для бронирований, занимающих календарь
func (b *Booking) IsActive() bool {
	return b.Status != BookingCancelled
}

// PaymentWindowElapsedAt true, если бронирование все еще ждет оплаты, а окно закрылось
func (b *Booking) PaymentWindowElapsedAt(now time.Time) bool {
	return b.Status == BookingPendingPayment && !b.ExpiresAt.After(now)
}

// NightlyShare приблизительная стоимость одной ночи: floor(total / nights)
func (b *Booking) NightlyShare() int64 {
	n := b.Nights
	if n <= 0 {
		n = b.Range().Nights()
	}
	if n <= 0 {
		return b.TotalAmount
	}
	return b.TotalAmount / int64(n)
}

// BookingFilter фильтр для списков бронирований
type BookingFilter struct {
	CustomerID *int64
	PropertyID *uuid.UUID
	Status     *BookingStatus
	From       *time.Time // ночи, пересекающиеся с [From, To)
	To         *time.Time
}

// InsertOutcome результат операции insert-or-get
type InsertOutcome int

const (
	Inserted InsertOutcome = iota + 1
	AlreadyExists
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	}
	return "unknown"
}
