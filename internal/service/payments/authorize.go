package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	paymentRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

// Authorize авторизует платеж бронирования в статусе PENDING_PAYMENT.
// Повтор с тем же ключом возвращает результат первой попытки.
// Уже авторизованный или списанный платеж возвращается без изменений, операция пишется в журнал.
func (s *Service) Authorize(ctx context.Context, req *models.AuthorizeRequest) (*models.PaymentResult, error) {
	const op = "authorize"
	s.logger.Info("Authorize: booking=%s by user=%d role=%s", req.BookingID, req.Actor.UserID, req.Actor.Role)

	res, err := s.authorize(ctx, req)
	if res != nil && res.Reused {
		s.metrics.IncPayment(op, resultReused)
	} else {
		s.finish(op, err)
	}
	return res, err
}

func (s *Service) authorize(ctx context.Context, req *models.AuthorizeRequest) (*models.PaymentResult, error) {
	// 1. Валидация входных данных
	key, err := resolveKey(req.IdempotencyKey, domain.EventAuthorize, req.BookingID)
	if err != nil {
		s.logger.Warn("Authorize: validation failed: %v", err)
		return nil, err
	}
	providerName := strings.TrimSpace(req.Provider)
	if providerName == "" {
		providerName = s.defaultProvider
	}
	if _, err := s.providers.Get(providerName); err != nil {
		s.logger.Warn("Authorize: provider %q: %v", providerName, err)
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}

	// 2. Транзакция начала
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
		switch {
		case errors.Is(err, paymentRepo.ErrPaymentNotFound):
		case err != nil:
			return fmt.Errorf("%w: get payment: %v", ErrInternal, err)
		default:
			st.payment = payment
			event, err := s.findEvent(ctx, payment.ID, domain.EventAuthorize, key)
			if err != nil {
				return err
			}
			if event != nil {
				st.event = event
				return nil
			}
		}

		if booking.PaymentWindowElapsedAt(now) {
			st.expired = true
			return s.expireBooking(ctx, booking, now)
		}
		if st.payment != nil && alreadyFunded(booking, st.payment) {
			st.event, err = s.recordAccepted(ctx, &domain.PaymentEvent{
				PaymentID:      st.payment.ID,
				EventType:      domain.EventAuthorize,
				IdempotencyKey: key,
				Amount:         st.payment.Amount,
				ProviderRef:    st.payment.ProviderRef,
			})
			return err
		}
		if booking.Status != domain.BookingPendingPayment {
			return domain.NewStateError("booking", booking.ID, booking.Status, "authorize payment")
		}

		if st.payment == nil {
			st.payment, _, err = s.paymentRepo.InsertOrGet(ctx, &domain.Payment{
				ID:        uuid.New(),
				BookingID: booking.ID,
				Provider:  providerName,
				Status:    domain.PaymentRequiresAction,
				Amount:    booking.TotalAmount,
				Currency:  booking.Currency,
			})
			if err != nil {
				return fmt.Errorf("%w: insert payment: %v", ErrInternal, err)
			}
		}
		if !st.payment.Status.CanTransitionTo(domain.PaymentAuthorized) {
			return domain.NewStateError("payment", st.payment.ID, st.payment.Status, "authorize")
		}

		pending, err := s.paymentRepo.HasPendingEvent(ctx, booking.ID, domain.EventAuthorize)
		if err != nil {
			return fmt.Errorf("%w: check pending authorization: %v", ErrInternal, err)
		}
		if pending {
			return domain.NewStateError("payment", st.payment.ID, st.payment.Status, "start a second authorization")
		}

		st.event, err = s.startEvent(ctx, &domain.PaymentEvent{
			PaymentID:      st.payment.ID,
			EventType:      domain.EventAuthorize,
			IdempotencyKey: key,
			Amount:         st.payment.Amount,
		})
		return err
	})
	if err != nil {
		s.logger.Warn("Authorize: booking=%s rejected: %v", req.BookingID, err)
		return nil, err
	}
	if st.expired {
		s.logger.Info("Authorize: booking=%s payment window elapsed, booking expired", req.BookingID)
		return nil, ErrPaymentWindowElapsed
	}

	// 3. Повтор завершенной операции
	switch st.event.Status {
	case domain.EventSucceeded:
		s.logger.Info("Authorize: booking=%s key=%s replayed", req.BookingID, key)
		return s.replayPayment(ctx, req.BookingID, st.event)
	case domain.EventFailed:
		return nil, replayedFailure(st.event)
	}

	// 4. Вызов провайдера
	provider, err := s.providers.Get(st.payment.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, st.payment.Provider)
	}
	ref, err := s.callProvider(ctx, "Authorize", st.event, func(providerKey string) (string, error) {
		return provider.Authorize(ctx, providerKey, st.booking.ID, st.event.Amount, st.payment.Currency)
	})
	if err != nil {
		s.logger.Warn("Authorize: provider %s declined booking=%s: %v", provider.Name(), req.BookingID, err)
		return nil, s.failAuthorization(ctx, &st, err)
	}

	// 5. Транзакция завершения
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		if err := s.completeEvent(ctx, st.event, ref); err != nil {
			return err
		}
		payment, err := s.paymentRepo.GetByIDForUpdate(ctx, st.payment.ID)
		if err != nil {
			return fmt.Errorf("%w: get payment: %v", ErrInternal, err)
		}
		if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, payment.Status, domain.PaymentAuthorized, &ref); err != nil {
			return fmt.Errorf("%w: authorize payment: %v", ErrInternal, err)
		}
		payment.Status = domain.PaymentAuthorized
		payment.ProviderRef = &ref
		st.payment = payment

		event, err := domain.NewBookingEvent(domain.TopicNotifications, domain.EventPaymentAuthorized, st.booking, s.timeProvider.Now(), nil)
		if err != nil {
			return fmt.Errorf("%w: build event: %v", ErrInternal, err)
		}
		if err := s.outboxRepo.Enqueue(ctx, event); err != nil {
			return fmt.Errorf("%w: enqueue event: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Authorize: finalize booking=%s event=%s failed: %v", req.BookingID, st.event.ID, err)
		return nil, err
	}

	s.logger.Info("Authorize: booking=%s payment=%s authorized ref=%s", req.BookingID, st.payment.ID, ref)
	return &models.PaymentResult{Booking: st.booking, Payment: st.payment, Event: st.event}, nil
}

func (s *Service) failAuthorization(ctx context.Context, st *attempt, cause error) error {
	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		if err := s.failEvent(ctx, st.event, cause); err != nil {
			return err
		}
		payment, err := s.paymentRepo.GetByIDForUpdate(ctx, st.payment.ID)
		if err != nil {
			return fmt.Errorf("%w: get payment: %v", ErrInternal, err)
		}
		if !payment.Status.CanTransitionTo(domain.PaymentFailed) {
			return nil
		}
		if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, payment.Status, domain.PaymentFailed, nil); err != nil {
			return fmt.Errorf("%w: fail payment: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Authorize: failed to record provider failure for event=%s: %v", st.event.ID, err)
		return err
	}
	return fmt.Errorf("%w: %v", ErrProviderFailed, cause)
}
