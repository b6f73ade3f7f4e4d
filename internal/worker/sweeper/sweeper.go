// Package sweeper периодически закрывает истекшие окна оплаты и холды.
// Пути чтения не зависят от sweeper: холд с expiresAt <= now везде считается истекшим.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

const (
	defaultInterval  = 30 * time.Second
	defaultBatchSize = 100
	maxBatches       = 50
)

// Виды сущностей для метрик
const (
	KindBooking = "booking"
	KindHold    = "hold"
)

// Config настройки sweeper
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// Result итог одного прохода
type Result struct {
	Bookings int
	Holds    int
}

// Sweeper фоновый процесс истечения
type Sweeper struct {
	bookingRepo  BookingRepository
	holdRepo     HoldRepository
	outboxRepo   OutboxRepository
	txManager    TxManager
	timeProvider TimeProvider
	cfg          Config
	metrics      Metrics
	logger       Logger
}

// New создает sweeper
func New(
	bookingRepo BookingRepository,
	holdRepo HoldRepository,
	outboxRepo OutboxRepository,
	txManager TxManager,
	timeProvider TimeProvider,
	cfg Config,
	metrics Metrics,
	logger Logger,
) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Sweeper{
		bookingRepo:  bookingRepo,
		holdRepo:     holdRepo,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
		timeProvider: timeProvider,
		cfg:          cfg,
		metrics:      metrics,
		logger:       logger,
	}
}

// Run выполняет проходы с фиксированным интервалом до отмены ctx
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Sweeper: started, interval=%s batch=%d", s.cfg.Interval, s.cfg.BatchSize)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.Tick(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper: stopped")
			return
		case <-ticker.C:
		}
	}
}

// Tick один проход: сначала бронирования с истекшим окном оплаты, затем холды.
// Ошибки логируются, следующий проход продолжит работу.
func (s *Sweeper) Tick(ctx context.Context) Result {
	now := s.timeProvider.Now()
	var res Result

	bookings, err := s.expireBookings(ctx, now)
	res.Bookings = bookings
	if err != nil {
		s.logger.Error("Sweeper: expire bookings: %v", err)
	}
	s.metrics.AddSweeperExpired(KindBooking, bookings)

	holds, err := s.holdRepo.ExpireStale(ctx, now)
	if err != nil {
		s.logger.Error("Sweeper: expire holds: %v", err)
	}
	res.Holds = holds
	s.metrics.AddSweeperExpired(KindHold, holds)

	if res.Bookings > 0 || res.Holds > 0 {
		s.logger.Info("Sweeper: expired bookings=%d holds=%d", res.Bookings, res.Holds)
	}
	return res
}

// expireBookings отменяет бронирования пачками; каждая пачка вместе с событиями в своей транзакции
func (s *Sweeper) expireBookings(ctx context.Context, now time.Time) (int, error) {
	total := 0
	for i := 0; i < maxBatches; i++ {
		var expired []*domain.Booking
		err := s.txManager.Do(ctx, func(ctx context.Context) error {
			var err error
			expired, err = s.bookingRepo.ExpirePendingPayments(ctx, now, s.cfg.BatchSize)
			if err != nil {
				return err
			}

			events := make([]*domain.OutboxEvent, 0, 2*len(expired))
			for _, b := range expired {
				e, err := domain.NewExpiryEvents(b, now)
				if err != nil {
					return fmt.Errorf("build expiry events for booking=%s: %w", b.ID, err)
				}
				events = append(events, e...)
			}
			if len(events) == 0 {
				return nil
			}
			return s.outboxRepo.Enqueue(ctx, events...)
		})
		if err != nil {
			return total, err
		}

		for _, b := range expired {
			s.logger.Info("Sweeper: booking=%s payment window elapsed at %s", b.ID, b.ExpiresAt.Format(time.RFC3339))
		}
		total += len(expired)
		if len(expired) < s.cfg.BatchSize {
			return total, nil
		}
	}
	s.logger.Warn("Sweeper: batch limit reached, remaining bookings move to the next tick")
	return total, nil
}
