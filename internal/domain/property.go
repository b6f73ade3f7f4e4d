package domain

import (
	"time"

	"github.com/google/uuid"
)

// Property объект размещения. Управляется внешним каталогом, ядро только читает.
type Property struct {
	ID                uuid.UUID
	VendorID          int64
	Title             string
	NightlyRate       int64 // в минорных единицах валюты
	CleaningFee       int64
	ServiceFeePercent int64 // 0..100
	Currency          string
	MinNights         int
	MaxNights         int // 0 = без ограничения
}

// IsOwnedBy true, если объект принадлежит вендору
func (p *Property) IsOwnedBy(vendorID int64) bool {
	return p.VendorID == vendorID
}

// CalendarDayStatus статус ночи в календаре
type CalendarDayStatus string

const (
	DayAvailable CalendarDayStatus = "AVAILABLE"
	DayBlocked   CalendarDayStatus = "BLOCKED"
)

// CalendarDay состояние конкретной ночи объекта. Отсутствие строки означает AVAILABLE.
type CalendarDay struct {
	PropertyID        uuid.UUID
	Day               time.Time
	Status            CalendarDayStatus
	MinNightsOverride *int
	Note              *string
}

// BlockedNights возвращает заблокированные ночи из набора
func BlockedNights(days []*CalendarDay) []time.Time {
	blocked := make([]time.Time, 0)
	for _, d := range days {
		if d.Status == DayBlocked {
			blocked = append(blocked, d.Day)
		}
	}
	return blocked
}

// EffectiveMinNights минимальное число ночей: переопределение на ночь заезда, иначе значение объекта
func EffectiveMinNights(p *Property, checkIn time.Time, days []*CalendarDay) int {
	for _, d := range days {
		if d.Day.Equal(checkIn) && d.MinNightsOverride != nil {
			return *d.MinNightsOverride
		}
	}
	if p.MinNights < 1 {
		return 1
	}
	return p.MinNights
}

// PriceQuote расчет стоимости проживания
type PriceQuote struct {
	Nights      int
	NightlyRate int64
	Subtotal    int64
	CleaningFee int64
	ServiceFee  int64
	Total       int64
	Currency    string
}

// Quote считает стоимость: ночи × тариф + уборка + сервисный сбор (процент от ночей)
func Quote(p *Property, nights int) PriceQuote {
	subtotal := int64(nights) * p.NightlyRate
	serviceFee := roundPercent(subtotal, p.ServiceFeePercent)
	return PriceQuote{
		Nights:      nights,
		NightlyRate: p.NightlyRate,
		Subtotal:    subtotal,
		CleaningFee: p.CleaningFee,
		ServiceFee:  serviceFee,
		Total:       subtotal + p.CleaningFee + serviceFee,
		Currency:    p.Currency,
	}
}

// roundPercent round(amount × percent / 100) с округлением половины вверх
func roundPercent(amount, percent int64) int64 {
	if amount <= 0 || percent <= 0 {
		return 0
	}
	return (amount*percent + 50) / 100
}
