package create_hold

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	propertyRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/property"
)

// UseCase use case для создания холда
type UseCase struct {
	propertyRepo PropertyRepository
	holdRepo     HoldRepository
	lockRepo     LockRepository
	checker      AvailabilityChecker
	outboxRepo   OutboxRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	settings     Settings
	metrics      Metrics
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	propertyRepo PropertyRepository,
	holdRepo HoldRepository,
	lockRepo LockRepository,
	checker AvailabilityChecker,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	timeProvider TimeProvider,
	settings Settings,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		propertyRepo: propertyRepo,
		holdRepo:     holdRepo,
		lockRepo:     lockRepo,
		checker:      checker,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
		timeProvider: timeProvider,
		settings:     settings,
		metrics:      metrics,
		logger:       logger,
	}
}

// Execute создает холд на диапазон ночей.
// Все попытки по одному объекту выполняются по очереди под advisory-блокировкой объекта.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateHold: user=%d, property=%s, checkIn=%s, checkOut=%s, ttl=%d",
		req.UserID, req.PropertyID, req.CheckIn.Format(domain.DateFormat), req.CheckOut.Format(domain.DateFormat), req.TTLMinutes)

	now := uc.timeProvider.Now()

	// 1. Валидация входных данных
	rng, ttl, err := validateRequest(req, uc.settings, now)
	if err != nil {
		uc.logger.Warn("CreateHold: validation failed: %v", err)
		uc.metrics.IncHold("invalid")
		return nil, err
	}

	// 2. Получаем объект размещения
	property, err := uc.propertyRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, propertyRepo.ErrPropertyNotFound) {
			uc.logger.Warn("CreateHold: property id=%s not found", req.PropertyID)
			return nil, ErrPropertyNotFound
		}
		uc.logger.Error("CreateHold: failed to get property id=%s: %v", req.PropertyID, err)
		return nil, fmt.Errorf("%w: failed to get property: %v", ErrInternal, err)
	}

	var result *domain.Hold

	// 3. Проверка и запись в одной сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Блокировка объекта до конца транзакции
		if err := uc.lockRepo.AcquirePropertyLock(txCtx, property.ID); err != nil {
			return fmt.Errorf("%w: acquire property lock: %v", ErrInternal, err)
		}

		// 3.2. Заблокированные ночи, бронирования и чужие холды
		if err := uc.checker.Check(txCtx, property, rng, now, nil); err != nil {
			return err
		}

		// 3.3. Сохраняем холд
		hold := &domain.Hold{
			ID:          uuid.New(),
			PropertyID:  property.ID,
			CheckIn:     rng.CheckIn,
			CheckOut:    rng.CheckOut,
			Status:      domain.HoldActive,
			ExpiresAt:   now.Add(time.Duration(ttl) * time.Minute),
			CreatedByID: req.UserID,
			CreatedAt:   now,
		}
		created, err := uc.holdRepo.Create(txCtx, hold)
		if err != nil {
			return fmt.Errorf("%w: failed to create hold: %v", ErrInternal, err)
		}

		// 3.4. Уведомление уйдет только после коммита
		event, err := domain.NewHoldEvent(created, now)
		if err != nil {
			return fmt.Errorf("%w: build hold event: %v", ErrInternal, err)
		}
		if err := uc.outboxRepo.Enqueue(txCtx, event); err != nil {
			return fmt.Errorf("%w: enqueue hold event: %v", ErrInternal, err)
		}

		result = created
		return nil
	})
	if err != nil {
		var conflict *domain.ConflictError
		switch {
		case errors.As(err, &conflict):
			uc.logger.Warn("CreateHold: conflict for property=%s range=%s: %v", property.ID, rng, err)
			uc.metrics.IncHold(resultLabel(conflict.Reason))
		case errors.Is(err, domain.ErrMinimumStayNotMet), errors.Is(err, domain.ErrInvalidRange):
			uc.logger.Warn("CreateHold: stay rules rejected range=%s: %v", rng, err)
			uc.metrics.IncHold("invalid")
		default:
			uc.logger.Error("CreateHold: transaction failed for property=%s: %v", property.ID, err)
			uc.metrics.IncHold("error")
		}
		return nil, err
	}

	uc.metrics.IncHold("created")
	uc.logger.Info("CreateHold: created hold id=%s for property=%s, expires at %s",
		result.ID, result.PropertyID, result.ExpiresAt.Format(time.RFC3339))
	return toResponse(result), nil
}

func resultLabel(reason error) string {
	switch {
	case errors.Is(reason, domain.ErrBlockedDates):
		return "blocked"
	case errors.Is(reason, domain.ErrDatesUnavailable):
		return "unavailable"
	case errors.Is(reason, domain.ErrDatesContended):
		return "contended"
	}
	return "conflict"
}
