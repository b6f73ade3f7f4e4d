// Package memstore хранилище в памяти для тестов usecase и сервисов.
// Повторяет семантику Postgres-репозиториев: те же ошибки, insert-or-get,
// проверки статуса при обновлении. Транзакции выполняются по одной,
// при ошибке состояние откатывается к снимку.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

type txKey struct{}

// Store общее состояние всех репозиториев
type Store struct {
	mu sync.Mutex

	properties    map[uuid.UUID]domain.Property
	calendar      map[uuid.UUID]map[string]domain.CalendarDay
	holds         map[uuid.UUID]domain.Hold
	bookings      map[uuid.UUID]domain.Booking
	policies      []domain.CancellationPolicy
	cancellations map[uuid.UUID]domain.BookingCancellation // по booking_id
	payments      map[uuid.UUID]domain.Payment
	events        map[uuid.UUID]domain.PaymentEvent
	refunds       map[uuid.UUID]domain.Refund
	outbox        []domain.OutboxEvent

	faults    map[string]error
	commits   int
	rollbacks int
	locks     int
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		properties:    make(map[uuid.UUID]domain.Property),
		calendar:      make(map[uuid.UUID]map[string]domain.CalendarDay),
		holds:         make(map[uuid.UUID]domain.Hold),
		bookings:      make(map[uuid.UUID]domain.Booking),
		cancellations: make(map[uuid.UUID]domain.BookingCancellation),
		payments:      make(map[uuid.UUID]domain.Payment),
		events:        make(map[uuid.UUID]domain.PaymentEvent),
		refunds:       make(map[uuid.UUID]domain.Refund),
		faults:        make(map[string]error),
	}
}

type snapshot struct {
	properties    map[uuid.UUID]domain.Property
	calendar      map[uuid.UUID]map[string]domain.CalendarDay
	holds         map[uuid.UUID]domain.Hold
	bookings      map[uuid.UUID]domain.Booking
	policies      []domain.CancellationPolicy
	cancellations map[uuid.UUID]domain.BookingCancellation
	payments      map[uuid.UUID]domain.Payment
	events        map[uuid.UUID]domain.PaymentEvent
	refunds       map[uuid.UUID]domain.Refund
	outbox        []domain.OutboxEvent
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshot {
	calendar := make(map[uuid.UUID]map[string]domain.CalendarDay, len(s.calendar))
	for k, v := range s.calendar {
		calendar[k] = copyMap(v)
	}
	return snapshot{
		properties:    copyMap(s.properties),
		calendar:      calendar,
		holds:         copyMap(s.holds),
		bookings:      copyMap(s.bookings),
		policies:      append([]domain.CancellationPolicy(nil), s.policies...),
		cancellations: copyMap(s.cancellations),
		payments:      copyMap(s.payments),
		events:        copyMap(s.events),
		refunds:       copyMap(s.refunds),
		outbox:        append([]domain.OutboxEvent(nil), s.outbox...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.properties = snap.properties
	s.calendar = snap.calendar
	s.holds = snap.holds
	s.bookings = snap.bookings
	s.policies = snap.policies
	s.cancellations = snap.cancellations
	s.payments = snap.payments
	s.events = snap.events
	s.refunds = snap.refunds
	s.outbox = snap.outbox
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// enter захватывает хранилище для одиночной операции вне транзакции
func (s *Store) enter(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// FailOn заставляет следующий вызов операции op вернуть err.
// Имена операций: "<repo>.<Method>", например "payments.CompleteEvent".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// fault вызывается под захваченным хранилищем
func (s *Store) fault(op string) error {
	err, ok := s.faults[op]
	if !ok {
		return nil
	}
	delete(s.faults, op)
	return err
}

// Do выполняет fn в транзакции. Вложенный вызов присоединяется к внешней транзакции.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.run(ctx, fn)
}

// DoSerializable то же, что Do: транзакции в памяти и так выполняются строго по одной
func (s *Store) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.run(ctx, fn)
}

// DoReadOnly то же, что Do
func (s *Store) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.run(ctx, fn)
}

func (s *Store) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			s.rollbacks++
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

// Stats счетчики транзакций и блокировок
type Stats struct {
	Commits   int
	Rollbacks int
	Locks     int
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Commits: s.commits, Rollbacks: s.rollbacks, Locks: s.locks}
}

func stamp(t *time.Time) time.Time {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
	return *t
}
