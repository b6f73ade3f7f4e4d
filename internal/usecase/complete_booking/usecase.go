package complete_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/booking"
)

// UseCase use case перевода CONFIRMED -> COMPLETED по внешнему сигналу
type UseCase struct {
	bookingRepo  BookingRepository
	outboxRepo   OutboxRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute завершает проживание. Повторный вызов для COMPLETED бронирования успешен.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CompleteBooking: actor=%d, booking=%s", req.Actor.UserID, req.BookingID)

	if req.BookingID == uuid.Nil {
		return nil, fmt.Errorf("%w: bookingID is required", ErrInvalidInput)
	}
	if !req.Actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	now := uc.timeProvider.Now()
	resp := &Response{}

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := uc.bookingRepo.GetByIDForUpdate(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: get booking: %v", ErrInternal, err)
		}

		if booking.Status == domain.BookingCompleted {
			resp.Booking, resp.Reused = booking, true
			return nil
		}
		if !booking.Status.CanTransitionTo(domain.BookingCompleted) {
			return domain.NewStateError("booking", booking.ID, booking.Status, "complete")
		}

		if err := uc.bookingRepo.UpdateStatus(txCtx, booking.ID, booking.Status, domain.BookingCompleted); err != nil {
			return fmt.Errorf("%w: update status: %v", ErrInternal, err)
		}
		booking.Status = domain.BookingCompleted
		booking.UpdatedAt = now

		event, err := domain.NewBookingEvent(domain.TopicNotifications, domain.EventBookingCompleted, booking, now, nil)
		if err != nil {
			return fmt.Errorf("%w: build event: %v", ErrInternal, err)
		}
		if err := uc.outboxRepo.Enqueue(txCtx, event); err != nil {
			return fmt.Errorf("%w: enqueue event: %v", ErrInternal, err)
		}

		resp.Booking = booking
		return nil
	})
	if err != nil {
		uc.logger.Warn("CompleteBooking: booking=%s rejected: %v", req.BookingID, err)
		return nil, err
	}

	uc.logger.Info("CompleteBooking: booking=%s is COMPLETED (reused=%t)", req.BookingID, resp.Reused)
	return resp, nil
}
