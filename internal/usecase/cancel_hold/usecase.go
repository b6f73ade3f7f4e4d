package cancel_hold

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	holdRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/hold"
)

// UseCase use case для отмены холда его владельцем
type UseCase struct {
	holdRepo     HoldRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(holdRepo HoldRepository, txManager TransactionManager, timeProvider TimeProvider, logger Logger) *UseCase {
	return &UseCase{
		holdRepo:     holdRepo,
		txManager:    txManager,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute отменяет ACTIVE холд. Повторная отмена уже отмененного холда успешна.
// Истекший холд сохраняется как EXPIRED, а вызов завершается ошибкой domain.ErrHoldExpired.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelHold: user=%d, hold=%s", req.UserID, req.HoldID)

	if req.UserID <= 0 || req.HoldID == uuid.Nil {
		return nil, fmt.Errorf("%w: userID and holdID are required", ErrInvalidInput)
	}

	now := uc.timeProvider.Now()

	var (
		result  *domain.Hold
		expired bool
	)

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Читаем холд с блокировкой строки
		hold, err := uc.holdRepo.GetByIDForUpdate(txCtx, req.HoldID)
		if err != nil {
			if errors.Is(err, holdRepo.ErrHoldNotFound) {
				return ErrHoldNotFound
			}
			return fmt.Errorf("%w: get hold: %v", ErrInternal, err)
		}

		// 2. Только владелец
		if hold.CreatedByID != req.UserID {
			return ErrNotOwner
		}

		// 3. Переход по статусу с учетом ленивого истечения
		switch hold.EffectiveStatus(now) {
		case domain.HoldCancelled:
			result = hold
			return nil
		case domain.HoldActive:
			if err := uc.holdRepo.UpdateStatus(txCtx, hold.ID, domain.HoldActive, domain.HoldCancelled, nil); err != nil {
				return fmt.Errorf("%w: cancel hold: %v", ErrInternal, err)
			}
			hold.Status = domain.HoldCancelled
			hold.UpdatedAt = now
			result = hold
			return nil
		case domain.HoldExpired:
			if hold.Status == domain.HoldActive {
				if err := uc.holdRepo.UpdateStatus(txCtx, hold.ID, domain.HoldActive, domain.HoldExpired, nil); err != nil {
					return fmt.Errorf("%w: expire hold: %v", ErrInternal, err)
				}
				expired = true
				return nil
			}
		}
		return domain.NewStateError("hold", hold.ID, hold.Status, "cancel")
	})
	if err != nil {
		uc.logger.Warn("CancelHold: hold=%s rejected: %v", req.HoldID, err)
		return nil, err
	}
	if expired {
		uc.logger.Info("CancelHold: hold=%s had already expired, marked EXPIRED", req.HoldID)
		return nil, fmt.Errorf("cancel_hold: hold %s: %w", req.HoldID, domain.ErrHoldExpired)
	}

	uc.logger.Info("CancelHold: hold=%s is %s", result.ID, result.Status)
	return &Response{
		ID:        result.ID,
		Status:    result.Status,
		ExpiresAt: result.ExpiresAt,
		UpdatedAt: result.UpdatedAt,
	}, nil
}
