package get_availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	propertyRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/property"
)

// UseCase use case для получения доступности объекта по ночам
type UseCase struct {
	propertyRepo PropertyRepository
	calendarRepo CalendarRepository
	bookingRepo  BookingRepository
	holdRepo     HoldRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	propertyRepo PropertyRepository,
	calendarRepo CalendarRepository,
	bookingRepo BookingRepository,
	holdRepo HoldRepository,
	txManager TransactionManager,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		propertyRepo: propertyRepo,
		calendarRepo: calendarRepo,
		bookingRepo:  bookingRepo,
		holdRepo:     holdRepo,
		txManager:    txManager,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute возвращает состояние каждой ночи в окне [From, To).
// Результат информационный: занять даты можно только через создание холда.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailability: property=%s, from=%s, to=%s",
		req.PropertyID, req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat))

	// 1. Валидация входных данных
	rng, err := validateRequest(req)
	if err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем объект размещения
	property, err := uc.propertyRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, propertyRepo.ErrPropertyNotFound) {
			uc.logger.Warn("GetAvailability: property id=%s not found", req.PropertyID)
			return nil, ErrPropertyNotFound
		}
		uc.logger.Error("GetAvailability: failed to get property id=%s: %v", req.PropertyID, err)
		return nil, fmt.Errorf("%w: failed to get property: %v", ErrInternal, err)
	}

	now := uc.timeProvider.Now()

	var (
		days     []*domain.CalendarDay
		bookings []*domain.Booking
		holds    []*domain.Hold
	)

	// 3. Календарь, бронирования и холды читаем из одного снимка
	err = uc.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		if days, err = uc.calendarRepo.GetDays(txCtx, property.ID, rng.CheckIn, rng.CheckOut); err != nil {
			return fmt.Errorf("%w: get calendar days: %v", ErrInternal, err)
		}
		if bookings, err = uc.bookingRepo.FindOverlapping(txCtx, property.ID, rng); err != nil {
			return fmt.Errorf("%w: find bookings: %v", ErrInternal, err)
		}
		if holds, err = uc.holdRepo.FindActiveOverlapping(txCtx, property.ID, rng, now, nil); err != nil {
			return fmt.Errorf("%w: find holds: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("GetAvailability: property=%s: %v", property.ID, err)
		return nil, err
	}

	// 4. Раскладываем по ночам
	nights := buildNights(property, rng, days, bookings, holds, now)

	uc.logger.Info("GetAvailability: built %d nights for property=%s", len(nights), property.ID)
	return &Response{
		PropertyID: property.ID,
		From:       rng.CheckIn,
		To:         rng.CheckOut,
		Nights:     nights,
	}, nil
}
