package domain

import (
	"fmt"
	"time"
)

// DateRange полуоткрытый диапазон ночей [CheckIn, CheckOut).
// Обе даты хранятся как полночь UTC.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewDateRange нормализует даты до полуночи UTC
func NewDateRange(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: TruncateDay(checkIn), CheckOut: TruncateDay(checkOut)}
}

// ParseDateRange разбирает пару дат в формате YYYY-MM-DD
func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := time.Parse(DateFormat, checkIn)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: checkIn: %v", ErrInvalidInput, err)
	}
	out, err := time.Parse(DateFormat, checkOut)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: checkOut: %v", ErrInvalidInput, err)
	}
	return NewDateRange(in, out), nil
}

// TruncateDay приводит момент времени к полуночи UTC той же календарной даты
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights количество ночей в диапазоне
func (r DateRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Valid true, если checkIn строго раньше checkOut
func (r DateRange) Valid() bool {
	return r.CheckIn.Before(r.CheckOut)
}

// Overlaps existing.checkIn < checkOut AND existing.checkOut > checkIn
func (r DateRange) Overlaps(o DateRange) bool {
	return o.CheckIn.Before(r.CheckOut) && o.CheckOut.After(r.CheckIn)
}

// Contains true, если ночь day входит в диапазон
func (r DateRange) Contains(day time.Time) bool {
	d := TruncateDay(day)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// Days перечисляет ночи диапазона
func (r DateRange) Days() []time.Time {
	n := r.Nights()
	if n <= 0 {
		return nil
	}
	days := make([]time.Time, 0, n)
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (r DateRange) String() string {
	return r.CheckIn.Format(DateFormat) + ".." + r.CheckOut.Format(DateFormat)
}
