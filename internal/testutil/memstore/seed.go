package memstore

import (
	"sort"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// AddProperty добавляет объект размещения
func (s *Store) AddProperty(p domain.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = p
}

// SetCalendarDay сохраняет состояние ночи календаря
func (s *Store) SetCalendarDay(d domain.CalendarDay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days, ok := s.calendar[d.PropertyID]
	if !ok {
		days = make(map[string]domain.CalendarDay)
		s.calendar[d.PropertyID] = days
	}
	d.Day = domain.TruncateDay(d.Day)
	days[d.Day.Format(domain.DateFormat)] = d
}

// PutHold сохраняет холд как есть
func (s *Store) PutHold(h domain.Hold) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[h.ID] = h
}

// PutBooking сохраняет бронирование как есть
func (s *Store) PutBooking(b domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b
}

// PutPayment сохраняет платеж как есть
func (s *Store) PutPayment(p domain.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
}

// PutRefund сохраняет возврат как есть
func (s *Store) PutRefund(r domain.Refund) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refunds[r.ID] = r
}

// PutPolicy сохраняет версию политики как есть
func (s *Store) PutPolicy(p domain.CancellationPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = append(s.policies, p)
}

// Hold возвращает копию холда
func (s *Store) Hold(id uuid.UUID) (domain.Hold, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	return h, ok
}

// Booking возвращает копию бронирования
func (s *Store) Booking(id uuid.UUID) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

// Bookings все бронирования в порядке заезда
func (s *Store) Bookings() []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out
}

// Holds все холды
func (s *Store) Holds() []domain.Hold {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Hold, 0, len(s.holds))
	for _, h := range s.holds {
		out = append(out, h)
	}
	return out
}

// PaymentFor возвращает платеж бронирования
func (s *Store) PaymentFor(bookingID uuid.UUID) (domain.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			return p, true
		}
	}
	return domain.Payment{}, false
}

// PaymentEvents журнал платежа в порядке создания
func (s *Store) PaymentEvents(paymentID uuid.UUID) []domain.PaymentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PaymentEvent, 0)
	for _, e := range s.events {
		if e.PaymentID == paymentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Refund возвращает копию возврата
func (s *Store) Refund(id uuid.UUID) (domain.Refund, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refunds[id]
	return r, ok
}

// Refunds все возвраты
func (s *Store) Refunds() []domain.Refund {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Refund, 0, len(s.refunds))
	for _, r := range s.refunds {
		out = append(out, r)
	}
	return out
}

// Cancellation запись об отмене бронирования
func (s *Store) Cancellation(bookingID uuid.UUID) (domain.BookingCancellation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cancellations[bookingID]
	return c, ok
}

// Outbox все исходящие события
func (s *Store) Outbox() []domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutboxEvent(nil), s.outbox...)
}

// OutboxTypes типы исходящих событий топика в порядке записи
func (s *Store) OutboxTypes(topic string) []domain.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventType, 0)
	for _, e := range s.outbox {
		if e.Topic == topic {
			out = append(out, e.EventType)
		}
	}
	return out
}
