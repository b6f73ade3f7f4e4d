package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/booking"
	holdRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/hold"
	propertyRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/property"
)

// UseCase use case для конвертации холда в бронирование
type UseCase struct {
	bookingRepo          BookingRepository
	holdRepo             HoldRepository
	propertyRepo         PropertyRepository
	lockRepo             LockRepository
	checker              AvailabilityChecker
	outboxRepo           OutboxRepository
	txManager            TransactionManager
	timeProvider         TimeProvider
	paymentWindowMinutes int
	metrics              Metrics
	logger               Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	holdRepo HoldRepository,
	propertyRepo PropertyRepository,
	lockRepo LockRepository,
	checker AvailabilityChecker,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	timeProvider TimeProvider,
	paymentWindowMinutes int,
	metrics Metrics,
	logger Logger,
) *UseCase {
	if paymentWindowMinutes <= 0 {
		paymentWindowMinutes = domain.DefaultPaymentWindowMinutes
	}
	return &UseCase{
		bookingRepo:          bookingRepo,
		holdRepo:             holdRepo,
		propertyRepo:         propertyRepo,
		lockRepo:             lockRepo,
		checker:              checker,
		outboxRepo:           outboxRepo,
		txManager:            txManager,
		timeProvider:         timeProvider,
		paymentWindowMinutes: paymentWindowMinutes,
		metrics:              metrics,
		logger:               logger,
	}
}

// Execute создает бронирование из холда ровно один раз.
// Повтор с тем же ключом идемпотентности возвращает существующее бронирование с Reused=true.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, hold=%s, idempotencyKey=%v", req.UserID, req.HoldID, req.IdempotencyKey != nil)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		uc.metrics.IncBooking("invalid")
		return nil, err
	}

	// 2. Быстрая проверка ключа вне транзакции. Корректность обеспечивает уникальный индекс.
	if req.IdempotencyKey != nil {
		existing, err := uc.bookingRepo.GetByIdempotencyKey(ctx, req.UserID, *req.IdempotencyKey)
		switch {
		case err == nil:
			uc.logger.Info("CreateBooking: idempotent replay, booking id=%s", existing.ID)
			uc.metrics.IncBooking("reused")
			return &Response{Booking: existing, Reused: true}, nil
		case !errors.Is(err, bookingRepo.ErrBookingNotFound):
			uc.logger.Error("CreateBooking: idempotency pre-check failed: %v", err)
			return nil, fmt.Errorf("%w: idempotency pre-check: %v", ErrInternal, err)
		}
	}

	now := uc.timeProvider.Now()

	var (
		result  *domain.Booking
		reused  bool
		expired bool
	)

	// 3. Основная сериализуемая транзакция
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		result, reused, expired = nil, false, false

		// 3.1. Повтор ключа внутри транзакции: при повторе после сбоя сериализации
		// холд уже мог быть конвертирован тем же запросом
		if req.IdempotencyKey != nil {
			existing, err := uc.bookingRepo.GetByIdempotencyKey(txCtx, req.UserID, *req.IdempotencyKey)
			if err == nil {
				result, reused = existing, true
				return nil
			}
			if !errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return fmt.Errorf("%w: get booking by idempotency key: %v", ErrInternal, err)
			}
		}

		// 3.2. Загружаем холд
		hold, err := uc.holdRepo.GetByIDForUpdate(txCtx, req.HoldID)
		if err != nil {
			if errors.Is(err, holdRepo.ErrHoldNotFound) {
				return ErrHoldNotFound
			}
			return fmt.Errorf("%w: get hold: %v", ErrInternal, err)
		}
		if hold.CreatedByID != req.UserID {
			return ErrNotHoldOwner
		}
		if hold.Status != domain.HoldActive {
			return domain.NewStateError("hold", hold.ID, hold.Status, "convert")
		}

		// 3.3. Ленивое истечение: холд сохраняется как EXPIRED, транзакция коммитится
		if hold.IsExpiredAt(now) {
			if err := uc.holdRepo.UpdateStatus(txCtx, hold.ID, domain.HoldActive, domain.HoldExpired, nil); err != nil {
				return fmt.Errorf("%w: expire hold: %v", ErrInternal, err)
			}
			expired = true
			return nil
		}

		// 3.4. Блокировка объекта и повторная проверка диапазона холда
		if err := uc.lockRepo.AcquirePropertyLock(txCtx, hold.PropertyID); err != nil {
			return fmt.Errorf("%w: acquire property lock: %v", ErrInternal, err)
		}
		property, err := uc.propertyRepo.GetByID(txCtx, hold.PropertyID)
		if err != nil {
			if errors.Is(err, propertyRepo.ErrPropertyNotFound) {
				return ErrPropertyNotFound
			}
			return fmt.Errorf("%w: get property: %v", ErrInternal, err)
		}

		rng := hold.Range()
		if rng.CheckIn.Before(domain.TruncateDay(now)) {
			return fmt.Errorf("%w: checkIn %s is in the past", domain.ErrInvalidRange, rng.CheckIn.Format(domain.DateFormat))
		}
		holdID := hold.ID
		if err := uc.checker.Check(txCtx, property, rng, now, &holdID); err != nil {
			return err
		}

		// 3.5. Цена фиксируется в момент конвертации
		quote := domain.Quote(property, rng.Nights())

		// 3.6. Сохраняем бронирование
		booking := &domain.Booking{
			ID:             uuid.New(),
			CustomerID:     req.UserID,
			PropertyID:     property.ID,
			HoldID:         &holdID,
			CheckIn:        rng.CheckIn,
			CheckOut:       rng.CheckOut,
			Nights:         quote.Nights,
			NightlyRate:    quote.NightlyRate,
			CleaningFee:    quote.CleaningFee,
			ServiceFee:     quote.ServiceFee,
			TotalAmount:    quote.Total,
			Currency:       quote.Currency,
			Status:         domain.BookingPendingPayment,
			IdempotencyKey: req.IdempotencyKey,
			ExpiresAt:      now.Add(time.Duration(uc.paymentWindowMinutes) * time.Minute),
			CreatedAt:      now,
		}
		saved, outcome, err := uc.bookingRepo.InsertOrGet(txCtx, booking)
		if err != nil {
			switch {
			case errors.Is(err, bookingRepo.ErrOverlap):
				return &domain.ConflictError{Reason: domain.ErrDatesUnavailable, PropertyID: property.ID}
			case errors.Is(err, bookingRepo.ErrHoldAlreadyConverted):
				return domain.NewStateError("hold", hold.ID, domain.HoldConverted, "convert")
			}
			return fmt.Errorf("%w: insert booking: %v", ErrInternal, err)
		}
		if outcome == domain.AlreadyExists {
			// параллельный запрос с тем же ключом победил
			result, reused = saved, true
			return nil
		}

		// 3.7. Холд переходит в CONVERTED
		if err := uc.holdRepo.UpdateStatus(txCtx, hold.ID, domain.HoldActive, domain.HoldConverted, &saved.ID); err != nil {
			return fmt.Errorf("%w: convert hold: %v", ErrInternal, err)
		}

		// 3.8. Уведомление после коммита
		event, err := domain.NewBookingEvent(domain.TopicNotifications, domain.EventBookingCreated, saved, now, nil)
		if err != nil {
			return fmt.Errorf("%w: build booking event: %v", ErrInternal, err)
		}
		if err := uc.outboxRepo.Enqueue(txCtx, event); err != nil {
			return fmt.Errorf("%w: enqueue booking event: %v", ErrInternal, err)
		}

		result = saved
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			uc.logger.Error("CreateBooking: hold=%s failed: %v", req.HoldID, err)
			uc.metrics.IncBooking("error")
		} else {
			uc.logger.Warn("CreateBooking: hold=%s rejected: %v", req.HoldID, err)
			uc.metrics.IncBooking("rejected")
		}
		return nil, err
	}

	if expired {
		uc.logger.Warn("CreateBooking: hold=%s expired before conversion", req.HoldID)
		uc.metrics.IncBooking("hold_expired")
		return nil, fmt.Errorf("%w: hold %s", ErrHoldExpired, req.HoldID)
	}

	if reused {
		uc.logger.Info("CreateBooking: idempotent replay resolved in transaction, booking id=%s", result.ID)
		uc.metrics.IncBooking("reused")
		return &Response{Booking: result, Reused: true}, nil
	}

	uc.metrics.IncBooking("created")
	uc.logger.Info("CreateBooking: created booking id=%s from hold=%s, total=%d %s, payment window until %s",
		result.ID, req.HoldID, result.TotalAmount, result.Currency, result.ExpiresAt.Format(time.RFC3339))
	return &Response{Booking: result}, nil
}
