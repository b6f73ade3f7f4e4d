package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	refundRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/refund"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

// ProcessRefund проводит возврат, созданный при отмене бронирования.
// AmountOverride позволяет администратору вернуть меньше рассчитанной суммы, но не больше.
// Проведенный возврат возвращается без изменений и под новым ключом.
func (s *Service) ProcessRefund(ctx context.Context, req *models.RefundRequest) (*models.RefundResult, error) {
	const op = "refund"
	s.logger.Info("ProcessRefund: refund=%s by user=%d role=%s", req.RefundID, req.Actor.UserID, req.Actor.Role)

	res, err := s.processRefund(ctx, req)
	if res != nil && res.Reused {
		s.metrics.IncPayment(op, resultReused)
	} else {
		s.finish(op, err)
	}
	return res, err
}

func (s *Service) processRefund(ctx context.Context, req *models.RefundRequest) (*models.RefundResult, error) {
	// 1. Валидация входных данных
	if !req.Actor.IsAdmin() {
		s.logger.Warn("ProcessRefund: user=%d role=%s is not an admin", req.Actor.UserID, req.Actor.Role)
		return nil, ErrAdminOnly
	}
	key, err := resolveKey(req.IdempotencyKey, domain.EventRefund, req.RefundID)
	if err != nil {
		s.logger.Warn("ProcessRefund: validation failed: %v", err)
		return nil, err
	}
	if req.AmountOverride != nil && *req.AmountOverride <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidAmount, *req.AmountOverride)
	}

	// 2. Транзакция начала
	var st attempt
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		st = attempt{}

		refund, err := s.refundRepo.GetByIDForUpdate(ctx, req.RefundID)
		if errors.Is(err, refundRepo.ErrRefundNotFound) {
			return ErrRefundNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: get refund: %v", ErrInternal, err)
		}
		st.refund = refund

		payment, err := s.paymentRepo.GetByIDForUpdate(ctx, refund.PaymentID)
		if err != nil {
			return fmt.Errorf("%w: get payment: %v", ErrInternal, err)
		}
		st.payment = payment

		event, err := s.findEvent(ctx, payment.ID, domain.EventRefund, key)
		if err != nil {
			return err
		}
		if event != nil {
			st.event = event
			return nil
		}

		if refund.Status == domain.RefundSucceeded {
			amount := refund.Amount
			if refund.ProcessedAmount != nil {
				amount = *refund.ProcessedAmount
			}
			st.event, err = s.recordAccepted(ctx, &domain.PaymentEvent{
				PaymentID:      payment.ID,
				EventType:      domain.EventRefund,
				IdempotencyKey: key,
				Amount:         amount,
				RefundID:       &refund.ID,
				ProviderRef:    refund.ProviderRefundRef,
			})
			return err
		}
		// PROCESSING под новым ключом отклоняется: провайдер уже вызывается попыткой с другим ключом
		if refund.Status != domain.RefundPending {
			return domain.NewStateError("refund", refund.ID, refund.Status, "process")
		}

		amount := refund.Amount
		if req.AmountOverride != nil {
			if *req.AmountOverride > refund.Amount {
				return fmt.Errorf("%w: %d exceeds refundable %d", ErrInvalidAmount, *req.AmountOverride, refund.Amount)
			}
			amount = *req.AmountOverride
		}

		processing := *refund
		processing.Status = domain.RefundProcessing
		processing.ProcessedAmount = &amount
		processing.ProcessedBy = &req.Actor.UserID
		if err := s.refundRepo.Update(ctx, &processing, domain.RefundPending); err != nil {
			return fmt.Errorf("%w: start refund: %v", ErrInternal, err)
		}
		st.refund = &processing

		st.event, err = s.startEvent(ctx, &domain.PaymentEvent{
			PaymentID:      payment.ID,
			EventType:      domain.EventRefund,
			IdempotencyKey: key,
			Amount:         amount,
			RefundID:       &refund.ID,
		})
		return err
	})
	if err != nil {
		s.logger.Warn("ProcessRefund: refund=%s rejected: %v", req.RefundID, err)
		return nil, err
	}

	// 3. Повтор завершенной операции
	switch st.event.Status {
	case domain.EventSucceeded:
		s.logger.Info("ProcessRefund: refund=%s key=%s replayed", req.RefundID, key)
		return s.replayRefund(ctx, st.refund.ID, st.event)
	case domain.EventFailed:
		return nil, replayedFailure(st.event)
	}

	// 4. Вызов провайдера
	providerName := st.refund.Provider
	if providerName == "" {
		providerName = st.payment.Provider
	}
	provider, err := s.providers.Get(providerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}
	ref, err := s.callProvider(ctx, "ProcessRefund", st.event, func(providerKey string) (string, error) {
		return provider.Refund(ctx, providerKey, st.payment.ProviderRef, st.refund.ID, st.event.Amount, st.refund.Currency)
	})
	if err != nil {
		s.logger.Warn("ProcessRefund: provider %s declined refund=%s: %v", provider.Name(), req.RefundID, err)
		return nil, s.failRefund(ctx, &st, err)
	}

	// 5. Транзакция завершения
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		if err := s.completeEvent(ctx, st.event, ref); err != nil {
			return err
		}

		refund, err := s.refundRepo.GetByIDForUpdate(ctx, st.refund.ID)
		if err != nil {
			return fmt.Errorf("%w: get refund: %v", ErrInternal, err)
		}
		succeeded := *refund
		succeeded.Status = domain.RefundSucceeded
		succeeded.ProviderRefundRef = &ref
		if err := s.refundRepo.Update(ctx, &succeeded, domain.RefundProcessing); err != nil {
			return fmt.Errorf("%w: complete refund: %v", ErrInternal, err)
		}
		st.refund = &succeeded

		payment, err := s.paymentRepo.GetByIDForUpdate(ctx, st.payment.ID)
		if err != nil {
			return fmt.Errorf("%w: get payment: %v", ErrInternal, err)
		}
		target := domain.PaymentPartiallyRefunded
		if st.event.Amount >= payment.Amount {
			target = domain.PaymentRefunded
		}
		if payment.Status != target && payment.Status.CanTransitionTo(target) {
			if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, payment.Status, target, nil); err != nil {
				return fmt.Errorf("%w: update payment: %v", ErrInternal, err)
			}
			payment.Status = target
		}
		st.payment = payment

		return s.enqueueRefundEvent(ctx, domain.EventRefundSucceeded, &succeeded, st.event.Amount, "")
	})
	if err != nil {
		s.logger.Error("ProcessRefund: finalize refund=%s event=%s failed: %v", req.RefundID, st.event.ID, err)
		return nil, err
	}

	s.logger.Info("ProcessRefund: refund=%s succeeded amount=%d ref=%s payment=%s status=%s",
		req.RefundID, st.event.Amount, ref, st.payment.ID, st.payment.Status)
	return &models.RefundResult{Refund: st.refund, Payment: st.payment, Event: st.event}, nil
}

// failRefund отмечает событие и возврат FAILED. Статус FAILED у возврата окончательный.
func (s *Service) failRefund(ctx context.Context, st *attempt, cause error) error {
	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		if err := s.failEvent(ctx, st.event, cause); err != nil {
			return err
		}

		refund, err := s.refundRepo.GetByIDForUpdate(ctx, st.refund.ID)
		if err != nil {
			return fmt.Errorf("%w: get refund: %v", ErrInternal, err)
		}
		reason := cause.Error()
		failed := *refund
		failed.Status = domain.RefundFailed
		failed.FailureReason = &reason
		if err := s.refundRepo.Update(ctx, &failed, domain.RefundProcessing); err != nil {
			return fmt.Errorf("%w: fail refund: %v", ErrInternal, err)
		}
		return s.enqueueRefundEvent(ctx, domain.EventRefundFailed, &failed, st.event.Amount, reason)
	})
	if err != nil {
		s.logger.Error("ProcessRefund: failed to record provider failure for event=%s: %v", st.event.ID, err)
		return err
	}
	return fmt.Errorf("%w: %v", ErrProviderFailed, cause)
}

func (s *Service) enqueueRefundEvent(ctx context.Context, eventType domain.EventType, rf *domain.Refund, amount int64, reason string) error {
	booking, err := s.bookingRepo.GetByID(ctx, rf.BookingID)
	if err != nil {
		return fmt.Errorf("%w: get booking: %v", ErrInternal, err)
	}
	event, err := domain.NewBookingEvent(domain.TopicNotifications, eventType, booking, s.timeProvider.Now(), func(p *domain.BookingEventPayload) {
		p.RefundableAmount = &amount
		p.RefundID = &rf.ID
		p.Reason = reason
	})
	if err != nil {
		return fmt.Errorf("%w: build event: %v", ErrInternal, err)
	}
	if err := s.outboxRepo.Enqueue(ctx, event); err != nil {
		return fmt.Errorf("%w: enqueue event: %v", ErrInternal, err)
	}
	return nil
}

func (s *Service) replayRefund(ctx context.Context, refundID uuid.UUID, e *domain.PaymentEvent) (*models.RefundResult, error) {
	rf, err := s.refundRepo.GetByID(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload refund: %v", ErrInternal, err)
	}
	p, err := s.paymentRepo.GetByBookingID(ctx, rf.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload payment: %v", ErrInternal, err)
	}
	return &models.RefundResult{Refund: rf, Payment: p, Event: e, Reused: true}, nil
}
