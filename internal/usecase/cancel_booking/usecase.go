package cancel_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/booking"
	cancellationRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/cancellation"
	paymentRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy"
)

// UseCase use case отмены бронирования по политике
type UseCase struct {
	bookingRepo      BookingRepository
	propertyRepo     PropertyRepository
	lockRepo         LockRepository
	policies         PolicyProvider
	cancellationRepo CancellationRepository
	paymentRepo      PaymentRepository
	refundRepo       RefundRepository
	outboxRepo       OutboxRepository
	txManager        TransactionManager
	timeProvider     TimeProvider
	metrics          Metrics
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	propertyRepo PropertyRepository,
	lockRepo LockRepository,
	policies PolicyProvider,
	cancellationRepo CancellationRepository,
	paymentRepo PaymentRepository,
	refundRepo RefundRepository,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	timeProvider TimeProvider,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:      bookingRepo,
		propertyRepo:     propertyRepo,
		lockRepo:         lockRepo,
		policies:         policies,
		cancellationRepo: cancellationRepo,
		paymentRepo:      paymentRepo,
		refundRepo:       refundRepo,
		outboxRepo:       outboxRepo,
		txManager:        txManager,
		timeProvider:     timeProvider,
		metrics:          metrics,
		logger:           logger,
	}
}

// Execute отменяет бронирование, фиксирует решение политики и создает возврат.
// Повторная отмена возвращает ранее сохраненное решение с Reused=true.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelBooking: actor=%d role=%s, booking=%s, reason=%s",
		req.Actor.UserID, req.Actor.Role, req.BookingID, req.Reason)

	// 1. Валидация и принудительный режим
	mode, err := validateRequest(req)
	if err != nil {
		uc.logger.Warn("CancelBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Права проверяем до транзакции
	current, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("CancelBooking: failed to get booking id=%s: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: get booking: %v", ErrInternal, err)
	}
	property, err := uc.propertyRepo.GetByID(ctx, current.PropertyID)
	if err != nil {
		uc.logger.Error("CancelBooking: failed to get property id=%s: %v", current.PropertyID, err)
		return nil, fmt.Errorf("%w: get property: %v", ErrInternal, err)
	}
	if !canCancel(req.Actor, current, property) {
		uc.logger.Warn("CancelBooking: actor=%d role=%s has no access to booking=%s", req.Actor.UserID, req.Actor.Role, current.ID)
		return nil, ErrAccessDenied
	}

	now := uc.timeProvider.Now()
	var resp *Response

	// 3. Отмена, решение политики и возврат в одной транзакции под блокировкой объекта
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		resp = nil

		if err := uc.lockRepo.AcquirePropertyLock(txCtx, property.ID); err != nil {
			return fmt.Errorf("%w: acquire property lock: %v", ErrInternal, err)
		}

		// 3.1. Повторная отмена
		if existing, err := uc.cancellationRepo.GetByBookingID(txCtx, req.BookingID); err == nil {
			resp, err = uc.replay(txCtx, existing)
			return err
		} else if !errors.Is(err, cancellationRepo.ErrCancellationNotFound) {
			return fmt.Errorf("%w: get cancellation: %v", ErrInternal, err)
		}

		// 3.2. Бронирование должно допускать переход в CANCELLED
		booking, err := uc.bookingRepo.GetByIDForUpdate(txCtx, req.BookingID)
		if err != nil {
			return fmt.Errorf("%w: get booking for update: %v", ErrInternal, err)
		}
		if !booking.Status.CanTransitionTo(domain.BookingCancelled) {
			return domain.NewStateError("booking", booking.ID, booking.Status, "cancel")
		}

		// 3.3. Списание в процессе: отмена подождет его завершения
		pending, err := uc.paymentRepo.HasPendingEvent(txCtx, booking.ID, domain.EventCapture)
		if err != nil {
			return fmt.Errorf("%w: check pending capture: %v", ErrInternal, err)
		}
		if pending {
			return domain.NewStateError("booking", booking.ID, booking.Status, "cancel while capture is in flight")
		}

		// 3.4. Решение по действующей политике
		pol, err := uc.policies.Effective(txCtx, property.ID)
		if err != nil {
			return fmt.Errorf("%w: get effective policy: %v", ErrInternal, err)
		}
		decision, err := policy.Decide(now, req.Actor, booking, pol, mode)
		if err != nil {
			return err
		}

		// 3.5. Возврат создается только при наличии денег на стороне провайдера
		var refund *domain.Refund
		payment, err := uc.paymentRepo.GetByBookingIDForUpdate(txCtx, booking.ID)
		switch {
		case err == nil:
			if payment.Status.IsFunded() && decision.RefundableAmount > 0 {
				refund, err = uc.refundRepo.Create(txCtx, &domain.Refund{
					ID:        uuid.New(),
					BookingID: booking.ID,
					PaymentID: payment.ID,
					Amount:    decision.RefundableAmount,
					Currency:  decision.Currency,
					Provider:  payment.Provider,
					Status:    domain.RefundPending,
					CreatedAt: now,
				})
				if err != nil {
					return fmt.Errorf("%w: create refund: %v", ErrInternal, err)
				}
			}
		case !errors.Is(err, paymentRepo.ErrPaymentNotFound):
			return fmt.Errorf("%w: get payment: %v", ErrInternal, err)
		}

		// 3.6. Бронирование -> CANCELLED
		if err := uc.bookingRepo.Cancel(txCtx, booking.ID, booking.Status, now, &req.Actor.UserID, string(req.Reason)); err != nil {
			return fmt.Errorf("%w: cancel booking: %v", ErrInternal, err)
		}
		booking.Status = domain.BookingCancelled
		booking.CancelledAt = &now
		booking.CancelledBy = &req.Actor.UserID
		reason := string(req.Reason)
		booking.CancellationReason = &reason

		// 3.7. Неизменяемый снимок решения
		record := &domain.BookingCancellation{
			ID:                uuid.New(),
			BookingID:         booking.ID,
			ActorID:           req.Actor.UserID,
			ActorRole:         req.Actor.Role,
			Reason:            req.Reason,
			Notes:             req.Notes,
			Mode:              decision.Mode,
			Tier:              decision.Tier,
			PolicyVersion:     decision.PolicyVersion,
			TotalAmount:       decision.TotalAmount,
			PenaltyAmount:     decision.PenaltyAmount,
			RefundableAmount:  decision.RefundableAmount,
			Currency:          decision.Currency,
			ReleasesInventory: decision.ReleasesInventory,
			CreatedAt:         now,
		}
		if refund != nil {
			record.RefundID = &refund.ID
		}
		saved, _, err := uc.cancellationRepo.InsertOrGet(txCtx, record)
		if err != nil {
			return fmt.Errorf("%w: insert cancellation: %v", ErrInternal, err)
		}

		// 3.8. Уведомление клиенту и хук для операционной команды
		events := make([]*domain.OutboxEvent, 0, 2)
		for _, topic := range []string{domain.TopicNotifications, domain.TopicOps} {
			event, err := domain.NewBookingEvent(topic, domain.EventBookingCancelled, booking, now, func(p *domain.BookingEventPayload) {
				p.RefundableAmount = &saved.RefundableAmount
				p.RefundID = saved.RefundID
				p.Reason = string(saved.Reason)
			})
			if err != nil {
				return fmt.Errorf("%w: build cancellation event: %v", ErrInternal, err)
			}
			events = append(events, event)
		}
		if err := uc.outboxRepo.Enqueue(txCtx, events...); err != nil {
			return fmt.Errorf("%w: enqueue cancellation events: %v", ErrInternal, err)
		}

		resp = &Response{Booking: booking, Cancellation: saved, Refund: refund}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			uc.logger.Error("CancelBooking: booking=%s failed: %v", req.BookingID, err)
		} else {
			uc.logger.Warn("CancelBooking: booking=%s rejected: %v", req.BookingID, err)
		}
		return nil, err
	}

	if resp.Reused {
		uc.logger.Info("CancelBooking: booking=%s already cancelled, returning stored decision", req.BookingID)
		return resp, nil
	}

	uc.metrics.IncCancellation(string(resp.Cancellation.Tier))
	uc.logger.Info("CancelBooking: booking=%s cancelled, tier=%s mode=%s penalty=%d refundable=%d, refund=%v",
		resp.Booking.ID, resp.Cancellation.Tier, resp.Cancellation.Mode,
		resp.Cancellation.PenaltyAmount, resp.Cancellation.RefundableAmount, resp.Cancellation.RefundID)
	return resp, nil
}

// replay собирает ответ по уже сохраненной отмене
func (uc *UseCase) replay(ctx context.Context, record *domain.BookingCancellation) (*Response, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, record.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: get cancelled booking: %v", ErrInternal, err)
	}
	resp := &Response{Booking: booking, Cancellation: record, Reused: true}
	if record.RefundID != nil {
		refund, err := uc.refundRepo.GetByID(ctx, *record.RefundID)
		if err != nil {
			return nil, fmt.Errorf("%w: get refund: %v", ErrInternal, err)
		}
		resp.Refund = refund
	}
	return resp, nil
}
