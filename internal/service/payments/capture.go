package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	paymentRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

// Capture списывает авторизованный платеж. Платеж CAPTURED и бронирование CONFIRMED
// записываются в одной транзакции.
func (s *Service) Capture(ctx context.Context, req *models.CaptureRequest) (*models.PaymentResult, error) {
	const op = "capture"
	s.logger.Info("Capture: booking=%s by user=%d role=%s", req.BookingID, req.Actor.UserID, req.Actor.Role)

	res, err := s.capture(ctx, req)
	if res != nil && res.Reused {
		s.metrics.IncPayment(op, resultReused)
	} else {
		s.finish(op, err)
	}
	return res, err
}

func (s *Service) capture(ctx context.Context, req *models.CaptureRequest) (*models.PaymentResult, error) {
	key, err := resolveKey(req.IdempotencyKey, domain.EventCapture, req.BookingID)
	if err != nil {
		s.logger.Warn("Capture: validation failed: %v", err)
		return nil, err
	}

	// 1. Транзакция начала
	now := s.timeProvider.Now()
	var st attempt
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		st = attempt{}

		booking, err := s.getBookingForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if !canPay(req.Actor, booking) {
			return ErrAccessDenied
		}
		st.booking = booking

		payment, err := s.paymentRepo.GetByBookingIDForUpdate(ctx, booking.ID)
		if errors.Is(err, paymentRepo.ErrPaymentNotFound) {
			if booking.PaymentWindowElapsedAt(now) {
				st.expired = true
				return s.expireBooking(ctx, booking, now)
			}
			return domain.NewStateError("booking", booking.ID, booking.Status, "capture without an authorized payment")
		}
		if err != nil {
			return fmt.Errorf("%w: get payment: %v", ErrInternal, err)
		}
		st.payment = payment

		event, err := s.findEvent(ctx, payment.ID, domain.EventCapture, key)
		if err != nil {
			return err
		}
		if event != nil {
			st.event = event
			return nil
		}

		pending, err := s.paymentRepo.HasPendingEvent(ctx, booking.ID, domain.EventCapture)
		if err != nil {
			return fmt.Errorf("%w: check pending capture: %v", ErrInternal, err)
		}
		if pending {
			return domain.NewStateError("payment", payment.ID, payment.Status, "start a second capture")
		}

		if booking.PaymentWindowElapsedAt(now) {
			st.expired = true
			return s.expireBooking(ctx, booking, now)
		}
		if payment.Status == domain.PaymentCaptured && alreadyFunded(booking, payment) {
			st.event, err = s.recordAccepted(ctx, &domain.PaymentEvent{
				PaymentID:      payment.ID,
				EventType:      domain.EventCapture,
				IdempotencyKey: key,
				Amount:         payment.Amount,
				ProviderRef:    payment.ProviderRef,
			})
			return err
		}
		if booking.Status != domain.BookingPendingPayment {
			return domain.NewStateError("booking", booking.ID, booking.Status, "capture payment")
		}
		if payment.Status != domain.PaymentAuthorized {
			return domain.NewStateError("payment", payment.ID, payment.Status, "capture")
		}

		st.event, err = s.startEvent(ctx, &domain.PaymentEvent{
			PaymentID:      payment.ID,
			EventType:      domain.EventCapture,
			IdempotencyKey: key,
			Amount:         payment.Amount,
		})
		return err
	})
	if err != nil {
		s.logger.Warn("Capture: booking=%s rejected: %v", req.BookingID, err)
		return nil, err
	}
	if st.expired {
		s.logger.Info("Capture: booking=%s payment window elapsed, booking expired", req.BookingID)
		return nil, ErrPaymentWindowElapsed
	}

	// 2. Повтор завершенной операции
	switch st.event.Status {
	case domain.EventSucceeded:
		s.logger.Info("Capture: booking=%s key=%s replayed", req.BookingID, key)
		return s.replayPayment(ctx, req.BookingID, st.event)
	case domain.EventFailed:
		return nil, replayedFailure(st.event)
	}

	// 3. Вызов провайдера
	provider, err := s.providers.Get(st.payment.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, st.payment.Provider)
	}
	authRef := ""
	if st.payment.ProviderRef != nil {
		authRef = *st.payment.ProviderRef
	}
	ref, err := s.callProvider(ctx, "Capture", st.event, func(providerKey string) (string, error) {
		return provider.Capture(ctx, providerKey, authRef, st.event.Amount)
	})
	if err != nil {
		s.logger.Warn("Capture: provider %s declined booking=%s: %v", provider.Name(), req.BookingID, err)
		return nil, s.failCapture(ctx, &st, err)
	}

	// 4. Транзакция завершения: платеж и бронирование вместе
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		if err := s.completeEvent(ctx, st.event, ref); err != nil {
			return err
		}
		if err := s.paymentRepo.UpdateStatus(ctx, st.payment.ID, domain.PaymentAuthorized, domain.PaymentCaptured, nil); err != nil {
			return fmt.Errorf("%w: capture payment: %v", ErrInternal, err)
		}
		if err := s.bookingRepo.UpdateStatus(ctx, st.booking.ID, domain.BookingPendingPayment, domain.BookingConfirmed); err != nil {
			return fmt.Errorf("%w: confirm booking: %v", ErrInternal, err)
		}

		confirmed := *st.booking
		confirmed.Status = domain.BookingConfirmed
		events, err := confirmationEvents(&confirmed, s.timeProvider.Now())
		if err != nil {
			return fmt.Errorf("%w: build events: %v", ErrInternal, err)
		}
		if err := s.outboxRepo.Enqueue(ctx, events...); err != nil {
			return fmt.Errorf("%w: enqueue events: %v", ErrInternal, err)
		}

		payment := *st.payment
		payment.Status = domain.PaymentCaptured
		st.payment = &payment
		st.booking = &confirmed
		return nil
	})
	if err != nil {
		s.logger.Error("Capture: finalize booking=%s event=%s failed: %v", req.BookingID, st.event.ID, err)
		return nil, err
	}

	s.logger.Info("Capture: booking=%s confirmed, payment=%s captured ref=%s", req.BookingID, st.payment.ID, ref)
	return &models.PaymentResult{Booking: st.booking, Payment: st.payment, Event: st.event}, nil
}

// confirmationEvents уведомление и хук о подтверждении плюс событие списания
func confirmationEvents(b *domain.Booking, now time.Time) ([]*domain.OutboxEvent, error) {
	specs := []struct {
		topic     string
		eventType domain.EventType
	}{
		{domain.TopicNotifications, domain.EventBookingConfirmed},
		{domain.TopicOps, domain.EventBookingConfirmed},
		{domain.TopicNotifications, domain.EventPaymentCaptured},
	}

	events := make([]*domain.OutboxEvent, 0, len(specs))
	for _, spec := range specs {
		e, err := domain.NewBookingEvent(spec.topic, spec.eventType, b, now, nil)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// failCapture отмечает событие FAILED. Платеж остается AUTHORIZED, бронирование ждет оплаты.
func (s *Service) failCapture(ctx context.Context, st *attempt, cause error) error {
	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		return s.failEvent(ctx, st.event, cause)
	})
	if err != nil {
		s.logger.Error("Capture: failed to record provider failure for event=%s: %v", st.event.ID, err)
		return err
	}
	return fmt.Errorf("%w: %v", ErrProviderFailed, cause)
}
